package inmemory

import (
	"context"
	"testing"
)

func TestNearestOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := New()

	store.Upsert(ctx, "east", "east doc", []float32{0, 1})
	store.Upsert(ctx, "north", "north doc", []float32{1, 0})
	store.Upsert(ctx, "northeast", "northeast doc", []float32{1, 1})

	hits, err := store.Nearest(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("nearest failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Title != "north" {
		t.Fatalf("expected exact match first, got %q", hits[0].Title)
	}
	if hits[1].Title != "northeast" {
		t.Fatalf("expected closest neighbour second, got %q", hits[1].Title)
	}
	if hits[0].Distance > hits[1].Distance {
		t.Fatalf("hits out of order: %v", hits)
	}
}

func TestUpsertReplacesByTitle(t *testing.T) {
	ctx := context.Background()
	store := New()

	store.Upsert(ctx, "doc", "old", []float32{1, 0})
	store.Upsert(ctx, "doc", "new", []float32{1, 0})

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Fatalf("expected upsert to replace, got %d docs", count)
	}
	hits, _ := store.Nearest(ctx, []float32{1, 0}, 1)
	if hits[0].Content != "new" {
		t.Fatalf("expected replaced content, got %q", hits[0].Content)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := New()
	store.Upsert(ctx, "doc", "content", []float32{1})

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Fatalf("expected empty store, got %d", count)
	}
}
