package survey

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"serveyz.org/internal/ids"
)

// Store defines survey and vote persistence. Implementations own all
// concurrency safety: CastVote must pair the vote record with its counter
// increment atomically, and IncrementVoteCount must never lose concurrent
// updates on the same id.
type Store interface {
	Create(ctx context.Context, s Survey) (Survey, error)
	GetByID(ctx context.Context, id string) (Survey, error)
	List(ctx context.Context) ([]Survey, error)
	Query(ctx context.Context, q Query) (Page, error)
	Count(ctx context.Context, search, category string) (int, error)
	UpdateStatus(ctx context.Context, id string, status Status, feedback string) error
	IncrementVoteCount(ctx context.Context, id string, delta int) error
	CastVote(ctx context.Context, v Vote) (Vote, error)
	VotesBySurvey(ctx context.Context, surveyID string) ([]Vote, error)
}

// InMemory implements Store with a single mutex, which also makes the
// vote-record/counter-increment pair atomic.
type InMemory struct {
	mu      sync.RWMutex
	surveys map[string]*Survey
	order   []string
	votes   []Vote
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty survey store.
func NewInMemory() *InMemory {
	return &InMemory{surveys: make(map[string]*Survey)}
}

func (s *InMemory) Create(ctx context.Context, sv Survey) (Survey, error) {
	if strings.TrimSpace(sv.Title) == "" {
		return Survey{}, ErrInvalidTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sv.ID = ids.New()
	sv.VoteCount = 0
	sv.Status = StatusPending
	sv.CreatedAt = time.Now().UTC()
	s.surveys[sv.ID] = &sv
	s.order = append(s.order, sv.ID)
	return sv, nil
}

func (s *InMemory) GetByID(ctx context.Context, id string) (Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sv, ok := s.surveys[id]
	if !ok {
		return Survey{}, ErrNotFound
	}
	return *sv, nil
}

func (s *InMemory) List(ctx context.Context) ([]Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Survey, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, *s.surveys[id])
	}
	return res, nil
}

func (s *InMemory) Query(ctx context.Context, q Query) (Page, error) {
	q = q.normalized()

	s.mu.RLock()
	matched := make([]Survey, 0, len(s.order))
	for _, id := range s.order {
		if matches(s.surveys[id], q.Search, q.Category) {
			matched = append(matched, *s.surveys[id])
		}
	}
	s.mu.RUnlock()

	switch q.Sort {
	case SortAsc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].VoteCount < matched[j].VoteCount })
	case SortDesc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].VoteCount > matched[j].VoteCount })
	}

	total := len(matched)
	offset := (q.Page - 1) * q.PageSize
	if offset >= total {
		return Page{Items: []Survey{}, TotalCount: total}, nil
	}
	end := offset + q.PageSize
	if end > total {
		end = total
	}
	return Page{Items: matched[offset:end], TotalCount: total}, nil
}

func (s *InMemory) Count(ctx context.Context, search, category string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sv := range s.surveys {
		if matches(sv, search, category) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) UpdateStatus(ctx context.Context, id string, status Status, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[id]
	if !ok {
		return ErrNotFound
	}
	sv.Status = status
	sv.Feedback = feedback
	return nil
}

func (s *InMemory) IncrementVoteCount(ctx context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[id]
	if !ok {
		return ErrNotFound
	}
	sv.VoteCount += delta
	return nil
}

// CastVote records the vote and increments the survey counter under one
// lock. A missing survey leaves no vote record behind.
func (s *InMemory) CastVote(ctx context.Context, v Vote) (Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sv, ok := s.surveys[v.SurveyID]
	if !ok {
		return Vote{}, ErrNotFound
	}

	v.ID = ids.New()
	v.CreatedAt = time.Now().UTC()
	s.votes = append(s.votes, v)
	sv.VoteCount++
	return v, nil
}

func (s *InMemory) VotesBySurvey(ctx context.Context, surveyID string) ([]Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Vote
	for _, v := range s.votes {
		if v.SurveyID == surveyID {
			res = append(res, v)
		}
	}
	return res, nil
}

func matches(sv *Survey, search, category string) bool {
	if search != "" && !strings.Contains(strings.ToLower(sv.Title), strings.ToLower(search)) {
		return false
	}
	if category != "" && sv.Category != category {
		return false
	}
	return true
}
