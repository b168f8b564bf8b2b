package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"profast/internal/directory/models"
	id "profast/pkg/domain"
	"profast/pkg/platform/sentinel"
)

type riderEntry struct {
	rider models.Rider
	seq   uint64
}

type InMemoryRiders struct {
	mu     sync.RWMutex
	riders map[id.RiderID]*riderEntry
	seq    uint64
}

func NewInMemoryRiders() *InMemoryRiders {
	return &InMemoryRiders{riders: make(map[id.RiderID]*riderEntry)}
}

func (s *InMemoryRiders) Create(_ context.Context, r *models.Rider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.riders {
		if e.rider.Email == r.Email {
			return fmt.Errorf("rider %s: %w", r.Email, sentinel.ErrConflict)
		}
	}
	s.seq++
	c := *r
	c.Attributes = maps.Clone(r.Attributes)
	s.riders[r.ID] = &riderEntry{rider: c, seq: s.seq}
	return nil
}

// List returns applications in submission order.
func (s *InMemoryRiders) List(_ context.Context, f models.RiderFilter) ([]models.Rider, error) {
	s.mu.RLock()
	matched := make([]*riderEntry, 0)
	for _, e := range s.riders {
		if f.Matches(&e.rider) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	out := make([]models.Rider, 0, len(matched))
	for _, e := range matched {
		c := e.rider
		c.Attributes = maps.Clone(e.rider.Attributes)
		out = append(out, c)
	}
	return id.Window(out, f.Page), nil
}

func (s *InMemoryRiders) FindByID(_ context.Context, riderID id.RiderID) (*models.Rider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.riders[riderID]
	if !ok {
		return nil, fmt.Errorf("rider %s: %w", riderID, sentinel.ErrNotFound)
	}
	c := e.rider
	c.Attributes = maps.Clone(e.rider.Attributes)
	return &c, nil
}

func (s *InMemoryRiders) SetStatus(_ context.Context, riderID id.RiderID, status models.RiderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.riders[riderID]
	if !ok {
		return fmt.Errorf("rider %s: %w", riderID, sentinel.ErrNotFound)
	}
	e.rider.Status = status
	return nil
}
