package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"profast/internal/directory/models"
	id "profast/pkg/domain"
	"profast/pkg/platform/sentinel"
)

type userEntry struct {
	user models.User
	seq  uint64
}

// InMemoryUsers is the users collection for single-process deployments.
type InMemoryUsers struct {
	mu    sync.RWMutex
	users map[id.UserID]*userEntry
	seq   uint64
}

func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{users: make(map[id.UserID]*userEntry)}
}

func (s *InMemoryUsers) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.users {
		if e.user.Email == u.Email {
			return fmt.Errorf("user %s: %w", u.Email, sentinel.ErrConflict)
		}
	}
	s.seq++
	s.users[u.ID] = &userEntry{user: copyUser(u), seq: s.seq}
	return nil
}

func (s *InMemoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.byEmail(email); e != nil {
		u := copyUser(&e.user)
		return &u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, sentinel.ErrNotFound)
}

func (s *InMemoryUsers) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.byEmail(u.Email)
	if e == nil {
		return fmt.Errorf("user %s: %w", u.Email, sentinel.ErrNotFound)
	}
	e.user.DisplayName = u.DisplayName
	e.user.Attributes = maps.Clone(u.Attributes)
	return nil
}

// SetRole updates the role of the user with userID and returns the user.
func (s *InMemoryUsers) SetRole(_ context.Context, userID id.UserID, role models.Role) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	e.user.Role = role
	u := copyUser(&e.user)
	return &u, nil
}

func (s *InMemoryUsers) SetRoleByEmail(_ context.Context, email string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.byEmail(email)
	if e == nil {
		return fmt.Errorf("user %s: %w", email, sentinel.ErrNotFound)
	}
	e.user.Role = role
	return nil
}

// Search matches the text case-insensitively against display name or email,
// in registration order.
func (s *InMemoryUsers) Search(_ context.Context, q models.SearchQuery) ([]models.Summary, error) {
	needle := strings.ToLower(q.Text)
	s.mu.RLock()
	matched := make([]*userEntry, 0)
	for _, e := range s.users {
		if strings.Contains(strings.ToLower(e.user.DisplayName), needle) ||
			strings.Contains(strings.ToLower(e.user.Email), needle) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	out := make([]models.Summary, 0, len(matched))
	for _, e := range matched {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		out = append(out, e.user.Summary())
	}
	return out, nil
}

func (s *InMemoryUsers) byEmail(email string) *userEntry {
	for _, e := range s.users {
		if e.user.Email == email {
			return e
		}
	}
	return nil
}

func copyUser(u *models.User) models.User {
	c := *u
	c.Attributes = maps.Clone(u.Attributes)
	return c
}
