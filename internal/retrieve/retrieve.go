// Package retrieve finds the chunks most similar to a question across a set
// of document namespaces.
package retrieve

import (
	"context"
	"fmt"

	"github.com/raglet/raglet/internal/index"
	"github.com/raglet/raglet/internal/log"
)

// Embedder turns a question into a vector in the same space as the indexed
// chunks.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index serves nearest-neighbor queries scoped to a namespace.
type Index interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]index.Match, error)
}

// Retriever embeds a question once and queries each namespace independently.
type Retriever struct {
	embedder Embedder
	idx      Index
	topK     int
	logger   log.Logger
}

// New creates a Retriever that returns up to topK matches per namespace.
func New(embedder Embedder, idx Index, topK int, logger log.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		idx:      idx,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve embeds the question and collects up to topK matches from every
// namespace, concatenated in the order the namespaces were given. Each
// namespace contributes its own best matches; results are not re-ranked
// across namespaces.
func (r *Retriever) Retrieve(ctx context.Context, question string, namespaces []string) ([]index.Match, error) {
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	var all []index.Match
	for _, ns := range namespaces {
		matches, err := r.idx.Query(ctx, ns, vector, r.topK)
		if err != nil {
			return nil, fmt.Errorf("query namespace %q: %w", ns, err)
		}
		r.logger.Debug("namespace queried",
			"namespace", ns,
			"matches", len(matches))
		all = append(all, matches...)
	}
	return all, nil
}
