// Package outbox implements the transactional outbox: domain writes record an
// Entry in the same transaction, and a Worker later publishes entries to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the services.
const (
	EventPaymentRecorded  = "payment.recorded"
	EventRiderActivated   = "rider.activated"
	EventTrackingAppended = "tracking.appended"
)

// Entry is one pending or published outbox row.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// Store persists outbox entries. Append must join the transaction in ctx.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	FetchUnpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Recorder turns domain events into outbox entries.
type Recorder struct {
	store Store
	now   func() time.Time
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record encodes payload as JSON and appends it. A nil Recorder records
// nothing.
func (r *Recorder) Record(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) error {
	if r == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return r.store.Append(ctx, &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		CreatedAt:     r.now().UTC(),
	})
}
