package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"profast/internal/directory/cache"
	"profast/internal/directory/models"
	"profast/internal/outbox"
	"profast/internal/platform/metrics"
	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
	"profast/pkg/email"
	"profast/pkg/platform/sentinel"
	"profast/pkg/platform/tx"
	"profast/pkg/requestcontext"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	SetRole(ctx context.Context, userID id.UserID, role models.Role) (*models.User, error)
	SetRoleByEmail(ctx context.Context, email string, role models.Role) error
	Search(ctx context.Context, q models.SearchQuery) ([]models.Summary, error)
}

type RiderStore interface {
	Create(ctx context.Context, r *models.Rider) error
	List(ctx context.Context, f models.RiderFilter) ([]models.Rider, error)
	FindByID(ctx context.Context, riderID id.RiderID) (*models.Rider, error)
	SetStatus(ctx context.Context, riderID id.RiderID, status models.RiderStatus) error
}

type RoleCache interface {
	Get(ctx context.Context, email string) (string, bool, error)
	Set(ctx context.Context, email, role string) error
	Invalidate(ctx context.Context, emails ...string) error
}

const searchLimit = 10

// Service is the user and rider directory. It also resolves roles for the
// admin guard.
type Service struct {
	users    UserStore
	riders   RiderStore
	tx       tx.Runner
	roles    RoleCache
	recorder *outbox.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithRoleCache(c RoleCache) Option {
	return func(s *Service) {
		s.roles = c
	}
}

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

func New(users UserStore, riders RiderStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		users:  users,
		riders: riders,
		tx:     runner,
		roles:  cache.NewRoleCache(nil),
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("profast/internal/directory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register inserts a user unless one with the same email exists. The stored
// role always starts as user.
func (s *Service) Register(ctx context.Context, u *models.User) (userID id.UserID, exists bool, err error) {
	if u == nil || strings.TrimSpace(u.Email) == "" {
		return id.UserID{}, false, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if existing, err := s.users.FindByEmail(ctx, u.Email); err == nil {
		return existing.ID, true, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return id.UserID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	u.ID = id.NewUserID()
	u.Role = models.RoleUser
	if strings.TrimSpace(u.DisplayName) == "" {
		u.DisplayName = email.DisplayName(u.Email)
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return id.UserID{}, true, nil
		}
		return id.UserID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register user")
	}
	s.logger.InfoContext(ctx, "user registered",
		"user_id", u.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return u.ID, false, nil
}

// SelfUpdate merges patch into the user's profile. It reports false when the
// stored profile already matched.
func (s *Service) SelfUpdate(ctx context.Context, email string, patch models.Patch) (bool, error) {
	if field, locked := patch.Locked(email); locked {
		return false, dErrors.New(dErrors.CodeValidation, field+" cannot be changed")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, notFoundOr(err, "user not found", "failed to load user")
	}
	changed, err := u.Apply(patch)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeValidation, "displayName must be a string")
	}
	if !changed {
		return false, nil
	}
	if err := s.users.Update(ctx, u); err != nil {
		return false, notFoundOr(err, "user not found", "failed to update user")
	}
	return true, nil
}

func (s *Service) Search(ctx context.Context, text string) ([]models.Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "query parameter is required")
	}
	found, err := s.users.Search(ctx, models.SearchQuery{Text: text, Limit: searchLimit})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search users")
	}
	return found, nil
}

// UpdateRole sets a user's role and drops any cached copy of it.
func (s *Service) UpdateRole(ctx context.Context, userID id.UserID, role models.Role) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "directory.UpdateRole")
	defer span.End()

	if !role.Valid() {
		return nil, spanError(span, dErrors.New(dErrors.CodeValidation, "invalid role"))
	}
	u, err := s.users.SetRole(ctx, userID, role)
	if err != nil {
		return nil, spanError(span, notFoundOr(err, "user not found", "failed to update user role"))
	}
	s.invalidate(ctx, u.Email)
	s.logger.InfoContext(ctx, "user role updated",
		"user_id", userID,
		"role", role,
		"request_id", requestcontext.RequestID(ctx),
	)
	return u, nil
}

// RoleByEmail returns the stored role, or user when none was stored. Results
// are served from the role cache when present.
func (s *Service) RoleByEmail(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	role, ok, err := s.roles.Get(ctx, email)
	switch {
	case err != nil:
		s.metrics.IncRoleCache("error")
		s.logger.WarnContext(ctx, "role cache read failed", "error", err)
	case ok:
		s.metrics.IncRoleCache("hit")
		return role, nil
	default:
		s.metrics.IncRoleCache("miss")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", notFoundOr(err, "user not found", "failed to get role")
	}
	role = string(u.EffectiveRole())
	if err := s.roles.Set(ctx, email, role); err != nil {
		s.logger.WarnContext(ctx, "role cache write failed", "error", err)
	}
	return role, nil
}

// Apply submits a rider application. Every application starts pending.
func (s *Service) Apply(ctx context.Context, r *models.Rider) (id.RiderID, error) {
	if r == nil || strings.TrimSpace(r.Email) == "" {
		return id.RiderID{}, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	r.ID = id.NewRiderID()
	r.Status = models.RiderPending
	if err := s.riders.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return id.RiderID{}, dErrors.New(dErrors.CodeConflict, "You have already submitted your application.")
		}
		return id.RiderID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit application")
	}
	return r.ID, nil
}

func (s *Service) ListRiders(ctx context.Context, f models.RiderFilter) ([]models.Rider, error) {
	if f.Status != "" && f.Status != "all" && !f.Status.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid rider status")
	}
	riders, err := s.riders.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch riders")
	}
	return riders, nil
}

// UpdateRiderStatus writes the new status. Activation also promotes the
// applicant's user to rider and records rider.activated, all in one
// transaction. The promoted email is the one supplied, else the application's.
func (s *Service) UpdateRiderStatus(ctx context.Context, riderID id.RiderID, upd models.StatusUpdate) error {
	ctx, span := s.tracer.Start(ctx, "directory.UpdateRiderStatus",
		trace.WithAttributes(attribute.String("rider.id", riderID.String()), attribute.String("rider.status", string(upd.Status))))
	defer span.End()

	if !upd.Status.Valid() {
		return spanError(span, dErrors.New(dErrors.CodeValidation, "invalid rider status"))
	}

	var promoted string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rider, err := s.riders.FindByID(ctx, riderID)
		if err != nil {
			return notFoundOr(err, "rider not found", "failed to load rider")
		}
		if err := s.riders.SetStatus(ctx, riderID, upd.Status); err != nil {
			return notFoundOr(err, "rider not found", "failed to update rider status")
		}
		if upd.Status != models.RiderActive {
			return nil
		}

		email := strings.TrimSpace(upd.Email)
		if email == "" {
			email = rider.Email
		}
		switch err := s.users.SetRoleByEmail(ctx, email, models.RoleRider); {
		case err == nil:
			promoted = email
		case errors.Is(err, sentinel.ErrNotFound):
			s.logger.WarnContext(ctx, "activated rider has no user account", "email", email)
		default:
			return err
		}
		return s.recorder.Record(ctx, "rider", riderID.String(), outbox.EventRiderActivated, activatedPayload{
			RiderID:  riderID,
			Email:    email,
			Promoted: promoted != "",
		})
	})
	if err != nil {
		if _, ok := dErrors.As(err); !ok {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to update rider status")
		}
		return spanError(span, err)
	}

	if upd.Status == models.RiderActive {
		s.metrics.IncRidersActivated()
		s.invalidate(ctx, promoted)
	}
	s.logger.InfoContext(ctx, "rider status updated",
		"rider_id", riderID,
		"status", upd.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Service) invalidate(ctx context.Context, email string) {
	if email == "" {
		return
	}
	if err := s.roles.Invalidate(ctx, email); err != nil {
		s.logger.ErrorContext(ctx, "role cache invalidation failed", "email", email, "error", err)
	}
}

func notFoundOr(err error, notFound, internal string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}

func spanError(span trace.Span, err error) error {
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	span.RecordError(err)
	return err
}

type activatedPayload struct {
	RiderID  id.RiderID `json:"rider_id"`
	Email    string     `json:"email"`
	Promoted bool       `json:"promoted"`
}
