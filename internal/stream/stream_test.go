package stream

import (
	"context"
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := s.Subscribe(ctx)
	b := s.Subscribe(ctx)

	evt := VoteEvent{SurveyID: "srv-1", Title: "Remote work", Choice: "yes", VoteCount: 7, Timestamp: time.Now().UTC()}
	s.Publish(evt)

	for _, ch := range []<-chan VoteEvent{a, b} {
		select {
		case got := <-ch:
			if got.SurveyID != "srv-1" || got.VoteCount != 7 {
				t.Fatalf("unexpected event: %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestSubscribeClosesOnContextEnd(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	cancel()

	select {
	case _, open := <-ch:
		if open {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context end")
	}

	// Publishing after unsubscribe must not panic.
	s.Publish(VoteEvent{SurveyID: "srv-2"})
}
