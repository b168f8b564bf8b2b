package store

import (
	"context"
	"sort"
	"sync"

	"profast/internal/tracking/models"
	id "profast/pkg/domain"
)

type entry struct {
	event models.Event
	seq   uint64
}

// InMemoryStore is an append-only ledger keyed by tracking_id.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]entry
	seq    uint64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]entry)}
}

func (s *InMemoryStore) Append(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.events[e.TrackingID] = append(s.events[e.TrackingID], entry{event: *e, seq: s.seq})
	return nil
}

// ListByTrackingID returns events newest first; equal timestamps fall back to
// reverse insertion order.
func (s *InMemoryStore) ListByTrackingID(_ context.Context, q models.Query) ([]models.Event, error) {
	s.mu.RLock()
	entries := append([]entry(nil), s.events[q.TrackingID]...)
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.event.Timestamp.Equal(b.event.Timestamp) {
			return a.event.Timestamp.After(b.event.Timestamp)
		}
		return a.seq > b.seq
	})

	out := make([]models.Event, 0, len(entries))
	for _, e := range id.Window(entries, q.Page) {
		out = append(out, e.event)
	}
	return out, nil
}
