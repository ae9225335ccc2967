package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"quiz-portal-client/internal/domain"
)

func TestSubmissionGuardSetNX(t *testing.T) {
	mr := miniredis.RunT(t)
	guard := NewSubmissionGuard(newClient(mr), "portal", time.Hour)
	ctx := context.Background()

	if err := guard.Acquire(ctx, 7, "quiz-1"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("portal:submitted:7:quiz-1") {
		t.Fatalf("expected guard key to be set")
	}
	if err := guard.Acquire(ctx, 7, "quiz-1"); err != domain.ErrAlreadySubmitted {
		t.Fatalf("expected duplicate to be rejected, got %v", err)
	}

	if err := guard.Release(ctx, 7, "quiz-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := guard.Acquire(ctx, 7, "quiz-1"); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestLeaderboardTop(t *testing.T) {
	mr := miniredis.RunT(t)
	lb := NewLeaderboard(newClient(mr), "portal")
	ctx := context.Background()

	for _, p := range []domain.Participant{
		{ID: 1, Name: "Alice", ClassName: "Eight", TotalPoints: 3},
		{ID: 2, Name: "Bob", ClassName: "Seven", TotalPoints: 9},
		{ID: 3, Name: "Carol", ClassName: "Eight", TotalPoints: 5},
	} {
		if err := lb.Record(ctx, p); err != nil {
			t.Fatalf("record %s: %v", p.Name, err)
		}
	}
	// a later total replaces the earlier one
	if err := lb.Record(ctx, domain.Participant{ID: 1, Name: "Alice", ClassName: "Eight", TotalPoints: 6}); err != nil {
		t.Fatalf("record: %v", err)
	}

	top, err := lb.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []domain.LeaderboardEntry{
		{Rank: 1, Name: "Bob", Class: "Seven", Points: 9},
		{Rank: 2, Name: "Alice", Class: "Eight", Points: 6},
	}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), top)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], top[i])
		}
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	top, err := NewLeaderboard(newClient(mr), "portal").Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", top)
	}
}
