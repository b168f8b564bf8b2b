package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"profast/internal/outbox"
	parcelmodels "profast/internal/parcel/models"
	"profast/internal/payment/models"
	"profast/internal/platform/metrics"
	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/sentinel"
	"profast/pkg/platform/tx"
	"profast/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . Gateway

// ParcelStore is the slice of the parcel store the coordinator writes through.
type ParcelStore interface {
	FindByIDForUpdate(ctx context.Context, parcelID id.ParcelID) (*parcelmodels.Parcel, error)
	MarkPaid(ctx context.Context, parcelID id.ParcelID) error
}

type Store interface {
	Create(ctx context.Context, p *models.Payment) error
	ListByEmail(ctx context.Context, q models.ListQuery) ([]models.Payment, error)
}

// Gateway creates payment intents with an external processor.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error)
}

const defaultCurrency = "usd"

// Service coordinates payment intents and payment confirmation.
type Service struct {
	parcels  ParcelStore
	payments Store
	gateway  Gateway
	tx       tx.Runner
	recorder *outbox.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	currency string
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

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithCurrency(currency string) Option {
	return func(s *Service) {
		if currency != "" {
			s.currency = strings.ToLower(currency)
		}
	}
}

func New(parcels ParcelStore, payments Store, gateway Gateway, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		parcels:  parcels,
		payments: payments,
		gateway:  gateway,
		tx:       runner,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("profast/internal/payment"),
		currency: defaultCurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIntent asks the gateway for a card payment intent. Parcel state is not
// consulted.
func (s *Service) CreateIntent(ctx context.Context, req models.IntentRequest) (*models.Intent, error) {
	ctx, span := s.tracer.Start(ctx, "payment.CreateIntent")
	defer span.End()

	if req.AmountInCents == nil {
		return nil, s.reject(span, dErrors.New(dErrors.CodeValidation, "amountInCents is required"))
	}
	amount := int64(math.Round(req.AmountInCents.Float64()))
	if amount <= 0 {
		return nil, s.reject(span, dErrors.New(dErrors.CodeValidation, "amountInCents must be positive"))
	}
	span.SetAttributes(attribute.Int64("payment.amount_cents", amount))

	start := time.Now()
	secret, err := s.gateway.CreateIntent(ctx, amount, s.currency)
	s.metrics.ObserveGateway(time.Since(start))
	if err != nil {
		s.logger.WarnContext(ctx, "payment intent failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if _, ok := dErrors.As(err); !ok {
			err = dErrors.Wrap(err, dErrors.CodeUpstream, "payment gateway error")
		}
		return nil, s.reject(span, err)
	}
	return &models.Intent{ClientSecret: secret}, nil
}

// Record confirms a payment: the parcel flips to paid and the payment row is
// written in one transaction, or nothing is written.
func (s *Service) Record(ctx context.Context, req models.RecordRequest) (id.PaymentID, error) {
	ctx, span := s.tracer.Start(ctx, "payment.Record")
	defer span.End()

	if strings.TrimSpace(req.ParcelID) == "" || strings.TrimSpace(req.Email) == "" || req.Amount == nil {
		return id.PaymentID{}, s.reject(span, dErrors.New(dErrors.CodeValidation, "parcelId, email and amount are required"))
	}
	if req.Amount.Float64() <= 0 {
		return id.PaymentID{}, s.reject(span, dErrors.New(dErrors.CodeValidation, "amount must be positive"))
	}
	parcelID, err := id.ParseParcelID(req.ParcelID)
	if err != nil {
		return id.PaymentID{}, s.reject(span, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid parcelId"))
	}
	span.SetAttributes(attribute.String("parcel.id", parcelID.String()))

	paidAt := requestcontext.Now(ctx).UTC()
	payment := &models.Payment{
		ID:            id.NewPaymentID(),
		ParcelID:      parcelID,
		Email:         req.Email,
		Amount:        req.Amount.Float64(),
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		PaidAtString:  paidAt.Format(models.PaidAtLayout),
		PaidAt:        paidAt,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		parcel, err := s.parcels.FindByIDForUpdate(ctx, parcelID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "parcel not found")
			}
			return err
		}
		if parcel.IsPaid() {
			return dErrors.New(dErrors.CodeAlreadyPaid, "parcel already paid")
		}
		if err := s.parcels.MarkPaid(ctx, parcelID); err != nil {
			return translateMarkPaid(err)
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyPaid, "parcel already paid")
			}
			return err
		}
		return s.recorder.Record(ctx, "parcel", parcelID.String(), outbox.EventPaymentRecorded, recordedPayload{
			PaymentID:     payment.ID,
			ParcelID:      parcelID,
			Email:         payment.Email,
			Amount:        payment.Amount,
			TransactionID: payment.TransactionID,
			PaidAt:        payment.PaidAtString,
		})
	})
	if err != nil {
		if _, ok := dErrors.As(err); !ok {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
		}
		return id.PaymentID{}, s.reject(span, err)
	}

	s.metrics.IncPaymentsRecorded()
	s.logger.InfoContext(ctx, "payment recorded",
		"payment_id", payment.ID,
		"parcel_id", parcelID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return payment.ID, nil
}

// List returns the payer's payments, newest first.
func (s *Service) List(ctx context.Context, q models.ListQuery) ([]models.Payment, error) {
	if strings.TrimSpace(q.Email) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	payments, err := s.payments.ListByEmail(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}

func (s *Service) reject(span trace.Span, err error) error {
	code := dErrors.CodeOf(err)
	s.metrics.IncPaymentRejected(string(code))
	span.SetStatus(codes.Error, string(code))
	span.RecordError(err)
	return err
}

func translateMarkPaid(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "parcel not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeAlreadyPaid, "parcel already paid")
	default:
		return err
	}
}

type recordedPayload struct {
	PaymentID     id.PaymentID `json:"payment_id"`
	ParcelID      id.ParcelID  `json:"parcel_id"`
	Email         string       `json:"email"`
	Amount        float64      `json:"amount"`
	TransactionID string       `json:"transaction_id,omitempty"`
	PaidAt        string       `json:"paid_at"`
}
