package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/academy/internal/database"
)

func setupRefreshRunStore(t *testing.T) *RefreshRunStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRefreshRunStore(db)
}

func TestRefreshRunRecordRecent(t *testing.T) {
	s := setupRefreshRunStore(t)
	ctx := context.Background()
	base := time.Date(2024, 4, 5, 8, 0, 0, 0, time.UTC)

	if err := s.Record(ctx, "job", base, 1500*time.Millisecond, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, "calendar", base.Add(time.Minute), 200*time.Millisecond, errors.New("upstream down")); err != nil {
		t.Fatalf("record: %v", err)
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Job != "calendar" || runs[0].Error != "upstream down" {
		t.Errorf("newest run = %+v", runs[0])
	}
	if runs[1].Duration != 1500*time.Millisecond || runs[1].Error != "" {
		t.Errorf("oldest run = %+v", runs[1])
	}
	if !runs[1].StartedAt.Equal(base) {
		t.Errorf("started = %v, want %v", runs[1].StartedAt, base)
	}

	limited, err := s.Recent(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limit 1 = %d runs, %v", len(limited), err)
	}
}

func TestRefreshRunPrune(t *testing.T) {
	s := setupRefreshRunStore(t)
	ctx := context.Background()
	old := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{old, old.Add(time.Hour), recent} {
		if err := s.Record(ctx, "job", at, time.Second, nil); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	n, err := s.Prune(ctx, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d, want 2", n)
	}
	runs, _ := s.Recent(ctx, 10)
	if len(runs) != 1 || !runs[0].StartedAt.Equal(recent) {
		t.Errorf("remaining = %+v", runs)
	}
}
