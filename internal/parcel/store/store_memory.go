package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"profast/internal/parcel/models"
	id "profast/pkg/domain"
	"profast/pkg/platform/sentinel"
)

// Error Contract:
// - Return sentinel.ErrNotFound when the parcel does not exist
// - Return wrapped errors with context for infrastructure failures

type entry struct {
	parcel models.Parcel
	seq    uint64
}

// InMemoryStore keeps parcels in a map for tests and local runs. Returned
// parcels are copies.
type InMemoryStore struct {
	mu      sync.RWMutex
	parcels map[id.ParcelID]*entry
	seq     uint64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{parcels: make(map[id.ParcelID]*entry)}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Parcel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.parcels[p.ID] = &entry{parcel: *p, seq: s.seq}
	return nil
}

// List returns summaries newest first; parcels sharing a created_at keep
// reverse insertion order.
func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]models.Summary, error) {
	s.mu.RLock()
	matched := make([]*entry, 0, len(s.parcels))
	for _, e := range s.parcels {
		if filter.CreatedBy != "" && e.parcel.CreatedBy != filter.CreatedBy {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.parcel.CreatedAt.Equal(b.parcel.CreatedAt) {
			return a.parcel.CreatedAt.After(b.parcel.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]models.Summary, 0, len(matched))
	for _, e := range id.Window(matched, filter.Page) {
		out = append(out, e.parcel.Summary())
	}
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, parcelID id.ParcelID) (*models.Parcel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.parcels[parcelID]
	if !ok {
		return nil, fmt.Errorf("parcel %s: %w", parcelID, sentinel.ErrNotFound)
	}
	p := e.parcel
	return &p, nil
}

// FindByIDForUpdate is FindByID; the caller's LockRunner serialises writers.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, parcelID id.ParcelID) (*models.Parcel, error) {
	return s.FindByID(ctx, parcelID)
}

func (s *InMemoryStore) Delete(_ context.Context, parcelID id.ParcelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parcels[parcelID]; !ok {
		return fmt.Errorf("parcel %s: %w", parcelID, sentinel.ErrNotFound)
	}
	delete(s.parcels, parcelID)
	return nil
}

// MarkPaid flips payment_status to paid. It reports ErrInvalidState when the
// parcel is already paid so a lost race is never silent.
func (s *InMemoryStore) MarkPaid(_ context.Context, parcelID id.ParcelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.parcels[parcelID]
	if !ok {
		return fmt.Errorf("parcel %s: %w", parcelID, sentinel.ErrNotFound)
	}
	if e.parcel.IsPaid() {
		return fmt.Errorf("parcel %s already paid: %w", parcelID, sentinel.ErrInvalidState)
	}
	e.parcel.PaymentStatus = models.PaymentPaid
	return nil
}
