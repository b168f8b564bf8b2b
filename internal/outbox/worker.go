package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"profast/internal/platform/metrics"
)

// Worker polls unpublished entries and hands them to the publisher. Delivery
// is at-least-once: a crash between publish and mark republishes the batch.
type Worker struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type WorkerOption func(*Worker)

func WithInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

func NewWorker(store Store, publisher Publisher, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:     store,
		publisher: publisher,
		interval:  2 * time.Second,
		batchSize: 100,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the outbox every interval until ctx is cancelled. Batch failures
// are logged and retried on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.metrics.IncOutboxPublishError()
				w.logger.ErrorContext(ctx, "outbox publish failed", "error", err)
			}
		}
	}
}

// Drain publishes batches until the outbox is empty and returns how many
// entries were published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.ProcessBatch(ctx)
		total += n
		if err != nil || n < w.batchSize {
			return total, err
		}
	}
}

// ProcessBatch publishes at most one batch.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	entries, err := w.store.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := w.publisher.Publish(ctx, entries); err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := w.store.MarkPublished(ctx, ids, w.now().UTC()); err != nil {
		return 0, err
	}
	w.metrics.AddOutboxPublished(len(entries))
	w.logger.DebugContext(ctx, "outbox batch published", "count", len(entries))
	return len(entries), nil
}
