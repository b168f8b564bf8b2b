package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"profast/internal/parcel/models"
	"profast/internal/platform/metrics"
	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/sentinel"
	"profast/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, p *models.Parcel) error
	List(ctx context.Context, filter models.ListFilter) ([]models.Summary, error)
	FindByID(ctx context.Context, parcelID id.ParcelID) (*models.Parcel, error)
	Delete(ctx context.Context, parcelID id.ParcelID) error
}

// Service owns parcel registration, listing, lookup and deletion. Payment
// status is changed only by the payment coordinator.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

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

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new parcel and returns its identifier. Status fields start
// at created/unpaid whatever the caller sent for payment_status.
func (s *Service) Create(ctx context.Context, p *models.Parcel) (id.ParcelID, error) {
	if p == nil || strings.TrimSpace(p.TrackingID) == "" {
		return id.ParcelID{}, dErrors.New(dErrors.CodeValidation, "tracking_id is required")
	}

	p.ID = id.NewParcelID()
	p.PaymentStatus = models.PaymentUnpaid
	if p.DeliveryStatus == "" {
		p.DeliveryStatus = models.DeliveryCreated
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = requestcontext.Now(ctx)
	}
	if p.CreatedBy == "" {
		p.CreatedBy = requestcontext.SubjectEmail(ctx)
	}

	if err := s.store.Create(ctx, p); err != nil {
		return id.ParcelID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save parcel")
	}
	s.metrics.IncParcelsCreated()
	s.logger.InfoContext(ctx, "parcel created",
		"parcel_id", p.ID,
		"tracking_id", p.TrackingID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return p.ID, nil
}

func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]models.Summary, error) {
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list parcels")
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, parcelID id.ParcelID) (*models.Parcel, error) {
	p, err := s.store.FindByID(ctx, parcelID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "parcel not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load parcel")
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, parcelID id.ParcelID) error {
	if err := s.store.Delete(ctx, parcelID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "parcel not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete parcel")
	}
	s.logger.InfoContext(ctx, "parcel deleted",
		"parcel_id", parcelID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
