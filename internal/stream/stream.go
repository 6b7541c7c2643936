package stream

import (
	"context"
	"sync"
	"time"
)

// VoteEvent describes a recorded vote for live dashboards.
type VoteEvent struct {
	SurveyID  string    `json:"survey_id"`
	Title     string    `json:"title"`
	Choice    string    `json:"choice"`
	VoteCount int       `json:"vote_count"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream fan-outs vote events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan VoteEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan VoteEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan VoteEvent {
	ch := make(chan VoteEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt VoteEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
