package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"profast/internal/parcel/models"
	id "profast/pkg/domain"
	"profast/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	base  time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.base = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newParcel(tracking, owner string, offset time.Duration) *models.Parcel {
	p := &models.Parcel{
		ID:             id.NewParcelID(),
		TrackingID:     tracking,
		CreatedBy:      owner,
		DeliveryStatus: models.DeliveryCreated,
		PaymentStatus:  models.PaymentUnpaid,
		CreatedAt:      s.base.Add(offset),
	}
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *InMemoryStoreSuite) TestListSortsNewestFirstAndFilters() {
	s.newParcel("T1", "alice@x.com", 0)
	s.newParcel("T2", "bob@x.com", time.Hour)
	s.newParcel("T3", "alice@x.com", 2*time.Hour)

	all, err := s.store.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"T3", "T2", "T1"}, trackingIDs(all))

	mine, err := s.store.List(s.ctx, models.ListFilter{CreatedBy: "alice@x.com"})
	s.Require().NoError(err)
	s.Equal([]string{"T3", "T1"}, trackingIDs(mine))

	none, err := s.store.List(s.ctx, models.ListFilter{CreatedBy: "carol@x.com"})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *InMemoryStoreSuite) TestListPaginates() {
	for i := range 5 {
		s.newParcel(string(rune('A'+i)), "alice@x.com", time.Duration(i)*time.Minute)
	}
	page, err := s.store.List(s.ctx, models.ListFilter{Page: id.Page{Limit: 2, Offset: 1}})
	s.Require().NoError(err)
	s.Equal([]string{"D", "C"}, trackingIDs(page))

	past, err := s.store.List(s.ctx, models.ListFilter{Page: id.Page{Offset: 10}})
	s.Require().NoError(err)
	s.Empty(past)
}

func (s *InMemoryStoreSuite) TestFindReturnsCopy() {
	p := s.newParcel("T1", "alice@x.com", 0)

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	got.Title = "mutated"

	again, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Empty(again.Title)
}

func (s *InMemoryStoreSuite) TestDelete() {
	p := s.newParcel("T1", "alice@x.com", 0)

	s.Require().NoError(s.store.Delete(s.ctx, p.ID))
	s.ErrorIs(s.store.Delete(s.ctx, p.ID), sentinel.ErrNotFound)

	_, err := s.store.FindByID(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestMarkPaidDistinguishesOutcomes() {
	p := s.newParcel("T1", "alice@x.com", 0)

	s.Require().NoError(s.store.MarkPaid(s.ctx, p.ID))
	s.ErrorIs(s.store.MarkPaid(s.ctx, p.ID), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.MarkPaid(s.ctx, id.NewParcelID()), sentinel.ErrNotFound)

	got, err := s.store.FindByIDForUpdate(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(got.IsPaid())
}

func trackingIDs(items []models.Summary) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.TrackingID)
	}
	return out
}
