package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "profast/pkg/domain-errors"
)

func stripeServer(t *testing.T, status int, body string, seen *url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen, _ = url.ParseQuery(string(raw))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateIntentReturnsClientSecret(t *testing.T) {
	var form url.Values
	srv := stripeServer(t, http.StatusOK,
		`{"id":"pi_123","object":"payment_intent","amount":1000,"currency":"usd","client_secret":"pi_123_secret_abc"}`, &form)

	g := NewStripe("sk_test_profast", WithBackendURL(srv.URL), WithHTTPClient(srv.Client()))
	secret, err := g.CreateIntent(context.Background(), 1000, "usd")
	require.NoError(t, err)
	assert.Equal(t, "pi_123_secret_abc", secret)
	assert.Equal(t, "1000", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "card", form.Get("payment_method_types[0]"))
}

func TestCreateIntentMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   dErrors.Code
	}{
		{
			name:   "amount too small",
			status: http.StatusBadRequest,
			body:   `{"error":{"type":"invalid_request_error","code":"amount_too_small","message":"Amount must be at least 50 cents"}}`,
			code:   dErrors.CodeValidation,
		},
		{
			name:   "card declined",
			status: http.StatusPaymentRequired,
			body:   `{"error":{"type":"card_error","code":"card_declined","message":"declined"}}`,
			code:   dErrors.CodeUpstream,
		},
		{
			name:   "provider outage",
			status: http.StatusInternalServerError,
			body:   `{"error":{"type":"api_error","message":"boom"}}`,
			code:   dErrors.CodeUpstream,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := stripeServer(t, tt.status, tt.body, nil)
			g := NewStripe("sk_test_profast", WithBackendURL(srv.URL), WithHTTPClient(srv.Client()))

			_, err := g.CreateIntent(context.Background(), 10, "usd")
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestDisabledGateway(t *testing.T) {
	_, err := Disabled{}.CreateIntent(context.Background(), 100, "usd")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
}
