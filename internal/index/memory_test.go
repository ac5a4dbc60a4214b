package index

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryNamespaceIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := NewMemory(3)

	err := idx.Upsert(ctx, "doc-a", []Entry{
		{ID: "a_p1_c0", Vector: []float32{1, 0, 0}, Source: "a.pdf", Page: 1, Text: "alpha"},
	})
	if err != nil {
		t.Fatalf("upsert doc-a: %v", err)
	}
	err = idx.Upsert(ctx, "doc-b", []Entry{
		{ID: "b_p1_c0", Vector: []float32{1, 0, 0}, Source: "b.pdf", Page: 1, Text: "beta"},
	})
	if err != nil {
		t.Fatalf("upsert doc-b: %v", err)
	}

	matches, err := idx.Query(ctx, "doc-a", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match in doc-a, got %d", len(matches))
	}
	if matches[0].ID != "a_p1_c0" {
		t.Errorf("expected match from doc-a namespace, got %q", matches[0].ID)
	}

	matches, err = idx.Query(ctx, "doc-missing", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("query empty namespace: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches in unknown namespace, got %d", len(matches))
	}
}

func TestMemoryRankingOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := NewMemory(2)

	err := idx.Upsert(ctx, "doc", []Entry{
		{ID: "far", Vector: []float32{0, 1}, Text: "far"},
		{ID: "near", Vector: []float32{1, 0.1}, Text: "near"},
		{ID: "exact", Vector: []float32{1, 0}, Text: "exact"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := idx.Query(ctx, "doc", []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].ID != "exact" {
		t.Errorf("expected best match %q first, got %q", "exact", matches[0].ID)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("scores not in descending order at %d: %v > %v",
				i, matches[i].Score, matches[i-1].Score)
		}
	}
}

func TestMemoryTopKTruncation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := NewMemory(2)

	entries := make([]Entry, 0, 10)
	for i := range 10 {
		entries = append(entries, Entry{
			ID:     string(rune('a' + i)),
			Vector: []float32{1, float32(i)},
		})
	}
	if err := idx.Upsert(ctx, "doc", entries); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := idx.Query(ctx, "doc", []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("expected topK to cap results at 3, got %d", len(matches))
	}
}

func TestMemoryUpsertIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := NewMemory(2)

	first := Entry{ID: "doc_p1_c0", Vector: []float32{1, 0}, Text: "first version"}
	second := Entry{ID: "doc_p1_c0", Vector: []float32{0, 1}, Text: "second version"}

	if err := idx.Upsert(ctx, "doc", []Entry{first}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := idx.Upsert(ctx, "doc", []Entry{second}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if got := idx.Count("doc"); got != 1 {
		t.Fatalf("expected 1 entry after re-upsert, got %d", got)
	}

	matches, err := idx.Query(ctx, "doc", []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if matches[0].Text != "second version" {
		t.Errorf("expected latest upsert to win, got %q", matches[0].Text)
	}
}

func TestMemoryDimensionMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := NewMemory(3)

	err := idx.Upsert(ctx, "doc", []Entry{{ID: "x", Vector: []float32{1, 0}}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch on upsert, got %v", err)
	}

	_, err = idx.Query(ctx, "doc", []float32{1, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch on query, got %v", err)
	}
}
