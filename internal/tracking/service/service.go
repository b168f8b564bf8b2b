package service

import (
	"context"
	"log/slog"
	"strings"

	"profast/internal/outbox"
	"profast/internal/platform/metrics"
	"profast/internal/tracking/models"
	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/tx"
	"profast/pkg/requestcontext"
)

type Store interface {
	Append(ctx context.Context, e *models.Event) error
	ListByTrackingID(ctx context.Context, q models.Query) ([]models.Event, error)
}

// Service is the tracking ledger: append-only writes, newest-first reads.
type Service struct {
	store    Store
	tx       tx.Runner
	recorder *outbox.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithOutbox(r *outbox.Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, runner tx.Runner, opts ...Option) *Service {
	s := &Service{store: store, tx: runner, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append validates and stamps an event, then writes it together with its
// tracking.appended outbox entry. The parcel is not looked up.
func (s *Service) Append(ctx context.Context, e *models.Event) (id.EventID, error) {
	if e == nil || strings.TrimSpace(e.TrackingID) == "" || strings.TrimSpace(e.Status) == "" {
		return id.EventID{}, dErrors.New(dErrors.CodeValidation, "tracking_id and status are required")
	}
	e.ID = id.NewEventID()
	e.Timestamp = requestcontext.Now(ctx).UTC()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Append(ctx, e); err != nil {
			return err
		}
		return s.recorder.Record(ctx, "tracking", e.TrackingID, outbox.EventTrackingAppended, appendedPayload{
			EventID:    e.ID,
			TrackingID: e.TrackingID,
			Status:     e.Status,
			Timestamp:  e.Timestamp.Format(timeLayout),
		})
	})
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return id.EventID{}, err
		}
		return id.EventID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save tracking event")
	}

	s.metrics.IncTrackingAppended()
	s.logger.InfoContext(ctx, "tracking event appended",
		"tracking_id", e.TrackingID,
		"status", e.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	return e.ID, nil
}

// History returns the events for one tracking id, newest first. An unknown
// tracking id yields an empty slice.
func (s *Service) History(ctx context.Context, q models.Query) ([]models.Event, error) {
	if strings.TrimSpace(q.TrackingID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tracking_id is required")
	}
	events, err := s.store.ListByTrackingID(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tracking history")
	}
	return events, nil
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type appendedPayload struct {
	EventID    id.EventID `json:"event_id"`
	TrackingID string     `json:"tracking_id"`
	Status     string     `json:"status"`
	Timestamp  string     `json:"timestamp"`
}
