// Package index provides the namespaced chunk vector index.
//
// Entries live under a namespace partition key; one namespace holds the
// chunks of one ingested document (or collection), and queries never cross
// namespaces. Upserts are idempotent: re-writing an ID replaces its vector
// and metadata.
//
// Two implementations share the semantics: Store persists to PostgreSQL with
// pgvector, Memory keeps everything in process for tests and storeless runs.
package index

import "errors"

// ErrDimensionMismatch indicates a vector whose length differs from the
// index's configured dimensionality. This is a configuration error, not a
// per-request condition.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Entry is an indexed chunk: a vector plus the metadata needed to ground an
// answer without re-reading the source document.
type Entry struct {
	ID     string
	Vector []float32
	Source string
	Page   int
	Text   string
}

// Match is a query result ranked by cosine similarity, higher is better.
type Match struct {
	ID     string
	Score  float32
	Source string
	Page   int
	Text   string
}
