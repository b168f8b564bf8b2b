package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profast/internal/tracking/models"
	id "profast/pkg/domain"
)

func TestInMemoryLedgerPaging(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := range 4 {
		require.NoError(t, s.Append(ctx, &models.Event{
			ID:         id.NewEventID(),
			TrackingID: "TRK1",
			Status:     string(rune('a' + i)),
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := s.ListByTrackingID(ctx, models.Query{TrackingID: "TRK1", Page: id.Page{Limit: 2, Offset: 1}})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Status)
	assert.Equal(t, "b", page[1].Status)
}

func TestInMemoryLedgerIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	require.NoError(t, s.Append(ctx, &models.Event{ID: id.NewEventID(), TrackingID: "TRK1", Status: "a"}))

	got, err := s.ListByTrackingID(ctx, models.Query{TrackingID: "TRK1"})
	require.NoError(t, err)
	got[0].Status = "mutated"

	again, err := s.ListByTrackingID(ctx, models.Query{TrackingID: "TRK1"})
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Status)
}
