package gateway

import (
	"context"
	"log/slog"

	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/circuit"
)

// IntentCreator is anything that can open a payment intent.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error)
}

// Guarded fails fast while the breaker is open. Only upstream failures count
// against the processor; rejected amounts do not.
type Guarded struct {
	next    IntentCreator
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next IntentCreator, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	if !g.breaker.Allow() {
		return "", dErrors.New(dErrors.CodeUpstream, "payment gateway unavailable")
	}
	secret, err := g.next.CreateIntent(ctx, amountCents, currency)
	if err != nil && dErrors.HasCode(err, dErrors.CodeUpstream) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "payment gateway circuit opened", "breaker", g.breaker.Name())
		}
		return "", err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "payment gateway circuit closed", "breaker", g.breaker.Name())
	}
	return secret, err
}
