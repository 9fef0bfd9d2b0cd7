package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAllowBlocksAtLimit(t *testing.T) {
	svc := NewMemoryService(map[string]int{CategoryLLM: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.Allow(ctx, CategoryLLM); err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if _, err := svc.Record(ctx, CategoryLLM); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}
	if err := svc.Allow(ctx, CategoryLLM); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}

	counter, err := svc.Get(ctx, CategoryLLM)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if counter.Count != 2 || counter.Limit != 2 || counter.Remaining() != 0 {
		t.Fatalf("unexpected counter: %+v", counter)
	}
}

func TestUnlimitedCategoryAlwaysAllowed(t *testing.T) {
	svc := NewMemoryService(map[string]int{CategoryOCR: 0})
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		if _, err := svc.Record(ctx, "unconfigured"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := svc.Allow(ctx, "unconfigured"); err != nil {
		t.Fatalf("expected unlimited category to be allowed, got %v", err)
	}
	counter, _ := svc.Get(ctx, CategoryOCR)
	if counter.Remaining() != -1 {
		t.Fatalf("expected unlimited remaining, got %d", counter.Remaining())
	}
}

func TestCounterResetsWhenDateChanges(t *testing.T) {
	svc := NewMemoryService(map[string]int{CategoryOCR: 1})
	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	ctx := context.Background()

	if _, err := svc.Record(ctx, CategoryOCR); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := svc.Allow(ctx, CategoryOCR); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected limit on day one, got %v", err)
	}

	day = day.Add(2 * time.Minute)
	if err := svc.Allow(ctx, CategoryOCR); err != nil {
		t.Fatalf("expected fresh counter after midnight, got %v", err)
	}
	counter, _ := svc.Record(ctx, CategoryOCR)
	if counter.Date != "2026-03-02" || counter.Count != 1 {
		t.Fatalf("unexpected counter after rollover: %+v", counter)
	}
}

func TestDateFollowsConfiguredZone(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	svc := NewService(NewMemoryStore(), map[string]int{CategoryLLM: 5}, loc)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) }

	counter, err := svc.Record(context.Background(), CategoryLLM)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if counter.Date != "2026-03-02" {
		t.Fatalf("expected local date 2026-03-02, got %s", counter.Date)
	}
}

func TestRecordIsAtomicUnderConcurrency(t *testing.T) {
	svc := NewMemoryService(map[string]int{CategoryOCR: 1000})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Record(ctx, CategoryOCR)
		}()
	}
	wg.Wait()

	counter, _ := svc.Get(ctx, CategoryOCR)
	if counter.Count != 50 {
		t.Fatalf("expected 50, got %d", counter.Count)
	}
}

func TestSnapshotAndReset(t *testing.T) {
	svc := NewMemoryService(map[string]int{CategoryOCR: 10, CategoryLLM: 50})
	ctx := context.Background()
	_, _ = svc.Record(ctx, CategoryLLM)
	_, _ = svc.Record(ctx, CategoryLLM)

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap) != 2 || snap[0].Category != CategoryLLM || snap[0].Count != 2 || snap[1].Category != CategoryOCR {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	if _, err := svc.Reset(ctx, CategoryLLM); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	counter, _ := svc.Get(ctx, CategoryLLM)
	if counter.Count != 0 {
		t.Fatalf("expected reset counter, got %d", counter.Count)
	}
}
