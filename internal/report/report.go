package report

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"serveyz.org/internal/ids"
)

// Report is an immutable abuse report submitted against a survey.
type Report struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"userEmail"`
	SurveyID  string    `json:"survey_id,omitempty"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound     = errors.New("report not found")
	ErrInvalidEmail = errors.New("userEmail is required")
)

// Store defines report persistence. Reports are append-only.
type Store interface {
	Create(ctx context.Context, r Report) (Report, error)
	List(ctx context.Context) ([]Report, error)
	ListByEmail(ctx context.Context, email string) ([]Report, error)
	GetByID(ctx context.Context, id string) (Report, error)
}

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu      sync.RWMutex
	reports []Report
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty report store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Create(ctx context.Context, r Report) (Report, error) {
	if strings.TrimSpace(r.UserEmail) == "" {
		return Report{}, ErrInvalidEmail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = ids.New()
	r.CreatedAt = time.Now().UTC()
	s.reports = append(s.reports, r)
	return r, nil
}

func (s *InMemory) List(ctx context.Context) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Report, len(s.reports))
	copy(res, s.reports)
	return res, nil
}

func (s *InMemory) ListByEmail(ctx context.Context, email string) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Report
	for _, r := range s.reports {
		if r.UserEmail == email {
			res = append(res, r)
		}
	}
	return res, nil
}

func (s *InMemory) GetByID(ctx context.Context, id string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return Report{}, ErrNotFound
}
