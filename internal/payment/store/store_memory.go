package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"profast/internal/payment/models"
	id "profast/pkg/domain"
	"profast/pkg/platform/sentinel"
)

// InMemoryStore keeps payments in insertion order. One payment per parcel.
type InMemoryStore struct {
	mu       sync.RWMutex
	payments []models.Payment
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.ParcelID == p.ParcelID {
			return fmt.Errorf("payment for parcel %s: %w", p.ParcelID, sentinel.ErrConflict)
		}
	}
	s.payments = append(s.payments, *p)
	return nil
}

// ListByEmail returns the payer's payments, most recent paid_at first.
func (s *InMemoryStore) ListByEmail(_ context.Context, q models.ListQuery) ([]models.Payment, error) {
	s.mu.RLock()
	out := make([]models.Payment, 0)
	for i := len(s.payments) - 1; i >= 0; i-- {
		if s.payments[i].Email == q.Email {
			out = append(out, s.payments[i])
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaidAt.After(out[j].PaidAt)
	})
	return id.Window(out, q.Page), nil
}

// Count is used by tests to check that failed records leave no payment behind.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}
