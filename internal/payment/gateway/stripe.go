package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	dErrors "profast/pkg/domain-errors"
)

// Stripe creates card payment intents. The request path never retries; a
// failed call surfaces to the caller as an upstream error.
type Stripe struct {
	client *client.API
}

type Option func(*stripe.BackendConfig)

// WithBackendURL points the client at a different API host.
func WithBackendURL(url string) Option {
	return func(c *stripe.BackendConfig) {
		c.URL = stripe.String(url)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *stripe.BackendConfig) {
		c.HTTPClient = hc
	}
}

func NewStripe(secretKey string, opts ...Option) *Stripe {
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 10 * time.Second},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	sc := &client.API{}
	sc.Init(secretKey, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
	})
	return &Stripe{client: sc}
}

// CreateIntent returns the client secret of a new card payment intent.
func (g *Stripe) CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}
	return pi.ClientSecret, nil
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Code {
		case stripe.ErrorCodeAmountTooSmall, stripe.ErrorCodeAmountTooLarge:
			return dErrors.Wrap(err, dErrors.CodeValidation, stripeErr.Msg)
		}
	}
	return dErrors.Wrap(err, dErrors.CodeUpstream, "payment gateway error")
}

// Disabled is used when no secret key is configured.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, int64, string) (string, error) {
	return "", dErrors.New(dErrors.CodeUpstream, "payment gateway is not configured")
}
