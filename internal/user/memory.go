package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"serveyz.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. Used in
// tests and as a stand-in until a DSN is configured.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string // email -> id
	order   []string
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty user store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (s *InMemory) UpsertIfAbsent(ctx context.Context, u User) (User, bool, error) {
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return User{}, false, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byEmail[email]; ok {
		return *s.byID[id], false, nil
	}

	u.ID = ids.New()
	u.Email = email
	u.Role = RoleUser // server-assigned default; caller input is ignored
	u.CreatedAt = time.Now().UTC()
	s.byID[u.ID] = &u
	s.byEmail[email] = u.ID
	s.order = append(s.order, u.ID)
	return u, true, nil
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return *s.byID[id], nil
}

func (s *InMemory) List(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]User, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, *s.byID[id])
	}
	return res, nil
}

func (s *InMemory) SetRole(ctx context.Context, id string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (s *InMemory) SetRoleByEmail(ctx context.Context, email string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return ErrNotFound
	}
	s.byID[id].Role = role
	return nil
}

func (s *InMemory) RoleFlag(ctx context.Context, email string, role Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return false, nil
	}
	return s.byID[id].Role == role, nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
