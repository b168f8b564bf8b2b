package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"profast/internal/parcel/models"
	"profast/internal/parcel/store"
	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
	"profast/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store)
	s.now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithSubject(s.ctx, id.Subject{UID: "u1", Email: "alice@x.com"})
}

func (s *ServiceSuite) TestCreateAppliesDefaults() {
	parcelID, err := s.service.Create(s.ctx, &models.Parcel{TrackingID: "TRK1", PaymentStatus: models.PaymentPaid})
	s.Require().NoError(err)
	s.False(parcelID.IsNil())

	got, err := s.service.Get(s.ctx, parcelID)
	s.Require().NoError(err)
	s.Equal(models.PaymentUnpaid, got.PaymentStatus, "caller cannot create a paid parcel")
	s.Equal(models.DeliveryCreated, got.DeliveryStatus)
	s.Equal(s.now, got.CreatedAt)
	s.Equal("alice@x.com", got.CreatedBy)
}

func (s *ServiceSuite) TestCreateKeepsCallerValues() {
	at := s.now.Add(-time.Hour)
	parcelID, err := s.service.Create(s.ctx, &models.Parcel{
		TrackingID:     "TRK1",
		CreatedBy:      "shop@x.com",
		DeliveryStatus: models.DeliveryInTransit,
		CreatedAt:      at,
	})
	s.Require().NoError(err)

	got, err := s.service.Get(s.ctx, parcelID)
	s.Require().NoError(err)
	s.Equal("shop@x.com", got.CreatedBy)
	s.Equal(models.DeliveryInTransit, got.DeliveryStatus)
	s.Equal(at, got.CreatedAt)
}

func (s *ServiceSuite) TestCreateRequiresTrackingID() {
	for _, p := range []*models.Parcel{nil, {}, {TrackingID: "   "}} {
		_, err := s.service.Create(s.ctx, p)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	}
	items, err := s.service.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Empty(items, "no store write on validation failure")
}

func (s *ServiceSuite) TestGetAndDeleteUnknown() {
	_, err := s.service.Get(s.ctx, id.NewParcelID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Delete(s.ctx, id.NewParcelID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDeleteThenGet() {
	parcelID, err := s.service.Create(s.ctx, &models.Parcel{TrackingID: "TRK1"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, parcelID))
	_, err = s.service.Get(s.ctx, parcelID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

type failingStore struct{ store.InMemoryStore }

func (f *failingStore) List(context.Context, models.ListFilter) ([]models.Summary, error) {
	return nil, errors.New("connection reset")
}

func TestListWrapsStoreFailure(t *testing.T) {
	svc := New(&failingStore{})
	_, err := svc.List(context.Background(), models.ListFilter{})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
}
