//go:build integration

package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"profast/internal/outbox"
	parcelmodels "profast/internal/parcel/models"
	parcelstore "profast/internal/parcel/store"
	"profast/internal/payment/gateway"
	"profast/internal/payment/models"
	"profast/internal/payment/service"
	"profast/internal/payment/store"
	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/tx"
	"profast/pkg/testutil/containers"
)

type PostgresCoordinatorSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	parcels  *parcelstore.PostgresStore
	payments *store.PostgresStore
	outbox   *outbox.PostgresStore
	service  *service.Service
}

func TestPostgresCoordinatorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCoordinatorSuite))
}

func (s *PostgresCoordinatorSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.parcels = parcelstore.NewPostgres(s.postgres.DB)
	s.payments = store.NewPostgres(s.postgres.DB)
	s.outbox = outbox.NewPostgresStore(s.postgres.DB)
	s.service = service.New(s.parcels, s.payments, gateway.Disabled{}, tx.NewPostgresRunner(s.postgres.DB),
		service.WithOutbox(outbox.NewRecorder(s.outbox)))
}

func (s *PostgresCoordinatorSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "parcels", "payments", "outbox"))
}

func (s *PostgresCoordinatorSuite) seedParcel(ctx context.Context) id.ParcelID {
	p := &parcelmodels.Parcel{
		ID:             id.NewParcelID(),
		TrackingID:     "TRK-PG",
		CreatedBy:      "alice@x.com",
		DeliveryStatus: parcelmodels.DeliveryCreated,
		PaymentStatus:  parcelmodels.PaymentUnpaid,
		CreatedAt:      time.Now().UTC(),
	}
	s.Require().NoError(s.parcels.Create(ctx, p))
	return p.ID
}

func (s *PostgresCoordinatorSuite) TestConcurrentRecordsPayOnce() {
	ctx := context.Background()
	parcelID := s.seedParcel(ctx)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.service.Record(ctx, models.RecordRequest{
				ParcelID: parcelID.String(),
				Email:    "alice@x.com",
				Amount:   id.Number(150).Ptr(),
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyPaid), "got %v", err)
	}
	s.Equal(1, succeeded)

	payments, err := s.payments.ListByEmail(ctx, models.ListQuery{Email: "alice@x.com"})
	s.Require().NoError(err)
	s.Len(payments, 1)

	pending, err := s.outbox.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *PostgresCoordinatorSuite) TestUnknownParcelWritesNothing() {
	ctx := context.Background()
	_, err := s.service.Record(ctx, models.RecordRequest{
		ParcelID: id.NewParcelID().String(),
		Email:    "alice@x.com",
		Amount:   id.Number(150).Ptr(),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	payments, err := s.payments.ListByEmail(ctx, models.ListQuery{Email: "alice@x.com"})
	s.Require().NoError(err)
	s.Empty(payments)
}
