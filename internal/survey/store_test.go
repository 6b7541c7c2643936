package survey

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestCreateDefaults(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	sv, err := s.Create(ctx, Survey{Title: "Remote work habits", Category: "tech", OwnerEmail: "o@example.com", Status: StatusApproved, VoteCount: 99})
	if err != nil {
		t.Fatal(err)
	}
	if sv.Status != StatusPending {
		t.Fatalf("new surveys must start pending, got %q", sv.Status)
	}
	if sv.VoteCount != 0 {
		t.Fatalf("new surveys must start with zero votes, got %d", sv.VoteCount)
	}
	if sv.ID == "" {
		t.Fatal("expected generated id")
	}

	if _, err := s.Create(ctx, Survey{Title: "  "}); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestQueryFilterSortPaginate(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	// 12 matching surveys ("abc" in title, category tech) plus noise.
	for i := 0; i < 12; i++ {
		sv, err := s.Create(ctx, Survey{Title: fmt.Sprintf("Survey ABC %02d", i), Category: "tech"})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.IncrementVoteCount(ctx, sv.ID, i); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Create(ctx, Survey{Title: "Survey abc other", Category: "health"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, Survey{Title: "Unrelated tech", Category: "tech"}); err != nil {
		t.Fatal(err)
	}

	page, err := s.Query(ctx, Query{Search: "abc", Category: "tech", Sort: SortAsc, Page: 2, PageSize: 5})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 12 {
		t.Fatalf("TotalCount must ignore pagination: got %d, want 12", page.TotalCount)
	}
	if len(page.Items) != 5 {
		t.Fatalf("expected items 6-10 of the filtered set, got %d items", len(page.Items))
	}
	// Ascending by vote count, page 2 covers counts 5..9.
	for i, sv := range page.Items {
		if sv.VoteCount != 5+i {
			t.Fatalf("item %d: vote count %d, want %d", i, sv.VoteCount, 5+i)
		}
	}

	// Last partial page.
	page, err = s.Query(ctx, Query{Search: "abc", Category: "tech", Sort: SortAsc, Page: 3, PageSize: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 2 || page.TotalCount != 12 {
		t.Fatalf("expected 2 items on page 3, got %d (total %d)", len(page.Items), page.TotalCount)
	}

	// Page past the end is empty, not an error.
	page, err = s.Query(ctx, Query{Search: "abc", Category: "tech", Page: 99})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 0 || page.TotalCount != 12 {
		t.Fatalf("expected empty page with total 12, got %d items (total %d)", len(page.Items), page.TotalCount)
	}
}

func TestQueryDefaults(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		if _, err := s.Create(ctx, Survey{Title: fmt.Sprintf("S%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	page, err := s.Query(ctx, Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 10 {
		t.Fatalf("default page size must be 10, got %d", len(page.Items))
	}
	if page.TotalCount != 15 {
		t.Fatalf("unexpected total: %d", page.TotalCount)
	}
}

func TestCountMatchesQueryTotal(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := s.Create(ctx, Survey{Title: "Coffee habits", Category: "food"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Create(ctx, Survey{Title: "Tea habits", Category: "food"}); err != nil {
		t.Fatal(err)
	}

	n, err := s.Count(ctx, "coffee", "food")
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("expected 4, got %d", n)
	}
}

func TestCastVotePairsRecordAndIncrement(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	sv, _ := s.Create(ctx, Survey{Title: "Pets"})

	v, err := s.CastVote(ctx, Vote{SurveyID: sv.ID, VoterEmail: "v@example.com", Choice: "yes"})
	if err != nil {
		t.Fatal(err)
	}
	if v.ID == "" {
		t.Fatal("expected generated vote id")
	}

	got, _ := s.GetByID(ctx, sv.ID)
	if got.VoteCount != 1 {
		t.Fatalf("vote count not incremented: %d", got.VoteCount)
	}
	votes, _ := s.VotesBySurvey(ctx, sv.ID)
	if len(votes) != 1 {
		t.Fatalf("expected one vote record, got %d", len(votes))
	}
}

func TestCastVoteMissingSurveyLeavesNoRecord(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.CastVote(ctx, Vote{SurveyID: "missing", VoterEmail: "v@example.com"}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	votes, _ := s.VotesBySurvey(ctx, "missing")
	if len(votes) != 0 {
		t.Fatalf("no vote may be recorded for a missing survey, got %d", len(votes))
	}
}

func TestConcurrentVotesAllCounted(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	sv, _ := s.Create(ctx, Survey{Title: "Concurrency"})

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.CastVote(ctx, Vote{SurveyID: sv.ID, VoterEmail: fmt.Sprintf("v%d@example.com", i), Choice: "yes"})
		}(i)
	}
	wg.Wait()

	got, _ := s.GetByID(ctx, sv.ID)
	if got.VoteCount != n {
		t.Fatalf("lost increments: count=%d, want %d", got.VoteCount, n)
	}
	votes, _ := s.VotesBySurvey(ctx, sv.ID)
	if len(votes) != n {
		t.Fatalf("expected %d vote records, got %d", n, len(votes))
	}
}

func TestUpdateStatus(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	sv, _ := s.Create(ctx, Survey{Title: "Review me"})

	if err := s.UpdateStatus(ctx, sv.ID, StatusRejected, "duplicate submission"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetByID(ctx, sv.ID)
	if got.Status != StatusRejected || got.Feedback != "duplicate submission" {
		t.Fatalf("status update not applied: %+v", got)
	}

	if err := s.UpdateStatus(ctx, "missing", StatusApproved, ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("approved"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseStatus("published"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
