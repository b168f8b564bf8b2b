//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"profast/internal/tracking/models"
	"profast/internal/tracking/store"
	id "profast/pkg/domain"
	"profast/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "trackings"))
}

func (s *PostgresLedgerSuite) TestTiesBreakByInsertionOrder() {
	ctx := context.Background()
	at := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	for _, status := range []string{"first", "second", "third"} {
		e := &models.Event{ID: id.NewEventID(), TrackingID: "TRK1", Status: status, Timestamp: at}
		s.Require().NoError(json.Unmarshal([]byte(`{"hub":"north"}`), &e.Metadata))
		s.Require().NoError(s.store.Append(ctx, e))
	}

	events, err := s.store.ListByTrackingID(ctx, models.Query{TrackingID: "TRK1"})
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal("third", events[0].Status)
	s.Equal("first", events[2].Status)
	s.JSONEq(`"north"`, string(events[0].Metadata["hub"]))
}

func (s *PostgresLedgerSuite) TestUnknownTrackingIDIsEmpty() {
	events, err := s.store.ListByTrackingID(context.Background(), models.Query{TrackingID: "NOPE"})
	s.Require().NoError(err)
	s.NotNil(events)
	s.Empty(events)
}
