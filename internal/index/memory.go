package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process chunk index with brute-force cosine search. It
// mirrors Store's namespace and upsert semantics and backs tests and runs
// without a database.
//
// Memory is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	dimension  int
	namespaces map[string]map[string]Entry
}

// NewMemory creates an empty in-memory index with a fixed dimensionality.
func NewMemory(dimension int) *Memory {
	return &Memory{
		dimension:  dimension,
		namespaces: make(map[string]map[string]Entry),
	}
}

// Upsert writes entries under the given namespace, replacing any entry with
// the same ID.
func (m *Memory) Upsert(_ context.Context, namespace string, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) != m.dimension {
			return fmt.Errorf("%w: entry %q has %d dimensions, index expects %d",
				ErrDimensionMismatch, e.ID, len(e.Vector), m.dimension)
		}
	}

	ns := m.namespaces[namespace]
	if ns == nil {
		ns = make(map[string]Entry)
		m.namespaces[namespace] = ns
	}
	for _, e := range entries {
		ns[e.ID] = e
	}
	return nil
}

// Query returns up to topK matches from one namespace by descending cosine
// similarity.
func (m *Memory) Query(_ context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			ErrDimensionMismatch, len(vector), m.dimension)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, e := range m.namespaces[namespace] {
		matches = append(matches, Match{
			ID:     e.ID,
			Score:  cosine(vector, e.Vector),
			Source: e.Source,
			Page:   e.Page,
			Text:   e.Text,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count reports how many entries a namespace holds.
func (m *Memory) Count(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace])
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
