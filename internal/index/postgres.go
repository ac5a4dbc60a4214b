package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/raglet/raglet/internal/log"
)

const upsertSQL = `
INSERT INTO chunks (namespace, id, embedding, source, page, content)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (namespace, id) DO UPDATE
SET embedding = EXCLUDED.embedding,
    source    = EXCLUDED.source,
    page      = EXCLUDED.page,
    content   = EXCLUDED.content`

const querySQL = `
SELECT id, source, page, content, 1 - (embedding <=> $2) AS score
FROM chunks
WHERE namespace = $1
ORDER BY embedding <=> $2
LIMIT $3`

// Store is the pgvector-backed chunk index.
//
// The chunks table and its HNSW index are created by the embedded migration
// (db/migrations), which is idempotent and safe to race between concurrent
// first users. Store is safe for concurrent use.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
	logger    log.Logger
}

// NewStore creates a Store over an existing connection pool. dimension must
// match the vector column width of the chunks table.
func NewStore(pool *pgxpool.Pool, dimension int, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, dimension: dimension, logger: logger}
}

// Upsert writes entries under the given namespace. Entries with an existing
// (namespace, id) pair are replaced, so re-ingesting a document overwrites
// rather than duplicates.
func (s *Store) Upsert(ctx context.Context, namespace string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("%w: entry %q has %d dimensions, index expects %d",
				ErrDimensionMismatch, e.ID, len(e.Vector), s.dimension)
		}
		batch.Queue(upsertSQL, namespace, e.ID, pgvector.NewVector(e.Vector), e.Source, e.Page, e.Text)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting into namespace %q: %w", namespace, err)
		}
	}

	s.logger.Debug("upserted entries", "namespace", namespace, "count", len(entries))
	return nil
}

// Query returns up to topK matches from one namespace, ordered by descending
// cosine similarity. Tie order among equal scores is backend-defined.
func (s *Store) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	rows, err := s.pool.Query(ctx, querySQL, namespace, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("querying namespace %q: %w", namespace, err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var score float64
		if err := rows.Scan(&m.ID, &m.Source, &m.Page, &m.Text, &score); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		m.Score = float32(score)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading matches from namespace %q: %w", namespace, err)
	}

	return matches, nil
}
