// Package pipeline orchestrates the full document question answering flow:
// extract, chunk, embed, index, retrieve, answer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/raglet/raglet/internal/answer"
	"github.com/raglet/raglet/internal/chunk"
	"github.com/raglet/raglet/internal/extract"
	"github.com/raglet/raglet/internal/index"
	"github.com/raglet/raglet/internal/log"
)

// Embedder produces vectors for chunk texts in index order.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Upserter persists embedded chunks under a namespace.
type Upserter interface {
	Upsert(ctx context.Context, namespace string, entries []index.Entry) error
}

// Fetcher downloads a remote document and returns its local path.
type Fetcher interface {
	Download(ctx context.Context, rawURL string) (string, error)
}

// Retriever finds the chunks relevant to a question across namespaces.
type Retriever interface {
	Retrieve(ctx context.Context, question string, namespaces []string) ([]index.Match, error)
}

// Synthesizer produces a grounded answer from retrieved matches.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, matches []index.Match) (answer.Answer, error)
}

// Config holds the tunables the pipeline needs beyond its collaborators.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	// ManifestPath, when set, persists every ingested document's chunks as
	// JSON and reads them back before embedding.
	ManifestPath string
	// QueryTimeout bounds retrieval per question; zero disables the bound.
	QueryTimeout time.Duration
	// GenerateTimeout bounds answer synthesis per question; zero disables
	// the bound.
	GenerateTimeout time.Duration
}

// Pipeline wires the ingestion and answering stages together.
type Pipeline struct {
	fetcher     Fetcher
	embedder    Embedder
	idx         Upserter
	retriever   Retriever
	synthesizer Synthesizer
	cfg         Config
	logger      log.Logger
}

// New assembles a Pipeline. fetcher may be nil when only local files are
// ingested.
func New(fetcher Fetcher, embedder Embedder, idx Upserter, retriever Retriever, synthesizer Synthesizer, cfg Config, logger log.Logger) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		embedder:    embedder,
		idx:         idx,
		retriever:   retriever,
		synthesizer: synthesizer,
		cfg:         cfg,
		logger:      logger,
	}
}

// IngestFile extracts, chunks, embeds, and indexes one local document under
// the given namespace. source overrides the document name recorded in chunk
// IDs; pass "" to use the file's own name. Returns the number of chunks
// indexed.
func (p *Pipeline) IngestFile(ctx context.Context, filePath, namespace, source string) (int, error) {
	pages, err := extract.Extract(filePath)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", filePath, err)
	}
	if source != "" {
		for i := range pages {
			pages[i].Source = source
		}
	}

	chunks, err := chunk.Split(pages, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("chunk %s: %w", filePath, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if p.cfg.ManifestPath != "" {
		if chunks, err = p.persistManifest(chunks); err != nil {
			return 0, err
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks of %s: %w", filePath, err)
	}

	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = index.Entry{
			ID:     c.ID,
			Vector: vectors[i],
			Source: c.Source,
			Page:   c.Page,
			Text:   c.Text,
		}
	}
	if err := p.idx.Upsert(ctx, namespace, entries); err != nil {
		return 0, fmt.Errorf("index chunks of %s: %w", filePath, err)
	}

	p.logger.Info("document ingested",
		"namespace", namespace,
		"chunks", len(entries))
	return len(entries), nil
}

// persistManifest writes the chunks to a private temp file, reads them back
// so the manifest stays the source of truth for what the index holds, and
// only then renames the file onto the configured path. Concurrent
// ingestions each work on their own file and never read another document's
// chunks; the rename publishes each finished manifest atomically.
func (p *Pipeline) persistManifest(chunks []chunk.Chunk) ([]chunk.Chunk, error) {
	tmp, err := os.CreateTemp(filepath.Dir(p.cfg.ManifestPath), ".manifest-*.json")
	if err != nil {
		return nil, fmt.Errorf("create manifest temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return nil, fmt.Errorf("close manifest temp file: %w", err)
	}

	if err := chunk.WriteManifest(tmpPath, chunks); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	persisted, err := chunk.ReadManifest(tmpPath)
	if err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := os.Rename(tmpPath, p.cfg.ManifestPath); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return nil, fmt.Errorf("publish manifest: %w", err)
	}
	return persisted, nil
}

// IngestURL downloads a document, ingests it, and removes the temporary
// file. The namespace is the URL-encoded document URL, so re-ingesting the
// same URL overwrites its previous chunks.
func (p *Pipeline) IngestURL(ctx context.Context, rawURL string) (string, int, error) {
	if p.fetcher == nil {
		return "", 0, errors.New("no fetcher configured for remote documents")
	}

	localPath, err := p.fetcher.Download(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(localPath) //nolint:errcheck

	namespace := Namespace(rawURL)
	count, err := p.IngestFile(ctx, localPath, namespace, sourceName(rawURL))
	if err != nil {
		return "", 0, err
	}
	return namespace, count, nil
}

// Run ingests every document and answers every question against all of them.
// Ingestion is fail-fast: the first document that cannot be processed aborts
// the run with an error naming it. Answering is fail-soft: a failed question
// yields the failure marker and the remaining questions still run.
func (p *Pipeline) Run(ctx context.Context, documents, questions []string) ([]answer.Answer, error) {
	namespaces := make([]string, 0, len(documents))
	for _, doc := range documents {
		var (
			ns  string
			err error
		)
		if isURL(doc) {
			ns, _, err = p.IngestURL(ctx, doc)
		} else {
			ns = Namespace(doc)
			_, err = p.IngestFile(ctx, doc, ns, "")
		}
		if err != nil {
			return nil, fmt.Errorf("ingest document %s: %w", doc, err)
		}
		namespaces = append(namespaces, ns)
	}

	return p.AnswerQuestions(ctx, namespaces, questions)
}

// AnswerQuestions answers each question against the given namespaces, one
// Answer per question in question order. A question whose retrieval or
// generation fails yields the failure marker; its siblings still complete.
func (p *Pipeline) AnswerQuestions(ctx context.Context, namespaces, questions []string) ([]answer.Answer, error) {
	answers := make([]answer.Answer, 0, len(questions))
	for _, q := range questions {
		// Failures are logged at the failure site; the marker answer
		// stands in for the question.
		ans, _ := p.Answer(ctx, q, namespaces)
		answers = append(answers, ans)
	}
	return answers, nil
}

// Answer retrieves context for a question from already-ingested namespaces
// and synthesizes its answer. Any failure degrades to the failure marker.
func (p *Pipeline) Answer(ctx context.Context, question string, namespaces []string) (answer.Answer, error) {
	rctx, cancel := maybeTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()
	matches, err := p.retriever.Retrieve(rctx, question, namespaces)
	if err != nil {
		p.logger.Error("retrieval failed",
			"question", question,
			"error", err)
		return answer.Answer{Question: question, Answer: answer.FailureMarker}, err
	}

	gctx, cancel := maybeTimeout(ctx, p.cfg.GenerateTimeout)
	defer cancel()
	return p.synthesizer.Synthesize(gctx, question, matches)
}

func maybeTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Namespace derives the index namespace for a document reference. URL
// encoding keeps distinct URLs distinct while remaining a single opaque
// token.
func Namespace(doc string) string {
	return url.QueryEscape(doc)
}

// sourceName extracts the document file name from a URL for chunk IDs.
func sourceName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return rawURL
	}
	return path.Base(u.Path)
}

func isURL(doc string) bool {
	return strings.HasPrefix(doc, "http://") || strings.HasPrefix(doc, "https://")
}
