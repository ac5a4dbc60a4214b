// Package embed maps text to fixed-dimensionality dense vectors.
//
// The underlying embedding model is resolved lazily on first use and cached
// for the remaining process lifetime. A failed load is sticky: every later
// call reports the model as unavailable until the process restarts.
package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/raglet/raglet/internal/log"
)

// ErrModelUnavailable indicates the embedding model could not be loaded.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// LoadFunc resolves the provider-registered embedder. Called exactly once.
type LoadFunc func(ctx context.Context) (ai.Embedder, error)

// Service generates embeddings through a lazily loaded genkit embedder.
//
// Service is safe for concurrent use; the lazy load is single-flight, so
// concurrent first callers share one model instance.
type Service struct {
	load      LoadFunc
	dimension int
	logger    log.Logger

	once     sync.Once
	embedder ai.Embedder
	loadErr  error
}

// New creates a Service. dimension is the vector length the configured model
// produces; vectors of any other length are rejected.
func New(load LoadFunc, dimension int, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{load: load, dimension: dimension, logger: logger}
}

// Dimension returns the configured vector dimensionality.
func (s *Service) Dimension() int {
	return s.dimension
}

// Embed returns the embedding vector for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany returns one vector per input text, in input order. Semantically
// equivalent to calling Embed per text, but sends a single batched request.
func (s *Service) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embedder, err := s.embedderOnce(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(Normalize(text), nil)
	}

	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("generating embeddings: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if len(e.Embedding) != s.dimension {
			return nil, fmt.Errorf("embedder returned %d dimensions, index expects %d",
				len(e.Embedding), s.dimension)
		}
		vectors[i] = e.Embedding
	}
	return vectors, nil
}

// embedderOnce performs the single-flight lazy load.
func (s *Service) embedderOnce(ctx context.Context) (ai.Embedder, error) {
	s.once.Do(func() {
		s.logger.Debug("loading embedding model")
		s.embedder, s.loadErr = s.load(ctx)
		if s.loadErr != nil {
			s.logger.Error("embedding model load failed", "error", s.loadErr)
			return
		}
		s.logger.Info("embedding model loaded")
	})

	if s.loadErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, s.loadErr)
	}
	return s.embedder, nil
}

// Normalize prepares text for encoding: surrounding whitespace is trimmed
// and internal newlines collapse to spaces, so embeddings are invariant to
// whitespace formatting.
func Normalize(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
}
