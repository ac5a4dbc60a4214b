// Package api exposes the document question answering pipeline over HTTP.
//
// Endpoints:
//
//	POST /api/v1/run  ingest documents and answer questions (bearer auth)
//	GET  /health      liveness probe
//	GET  /ready       readiness probe (pings the database)
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raglet/raglet/internal/answer"
	"github.com/raglet/raglet/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to resist slowloris clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because a run may ingest several documents
	// and call the model once per question.
	WriteTimeout = 10 * time.Minute

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Runner executes the full pipeline for one request.
type Runner interface {
	Run(ctx context.Context, documents, questions []string) ([]answer.Answer, error)
}

// Config holds the server's security and throttling settings.
type Config struct {
	// Token is the bearer token required on /api/v1/run.
	Token string
	// RateLimit is tokens refilled per second per client IP.
	RateLimit float64
	// RateBurst is the per-IP bucket size.
	RateBurst int
	// TrustProxy enables X-Real-IP and X-Forwarded-For for client IPs.
	TrustProxy bool
}

// Server is the HTTP server for the pipeline API.
type Server struct {
	mux     *http.ServeMux
	cfg     Config
	limiter *rateLimiter
	logger  log.Logger
}

// NewServer registers all routes. pool backs the readiness probe and may be
// nil when running without a database.
func NewServer(runner Runner, pool *pgxpool.Pool, cfg Config, logger log.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		mux:     mux,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:  logger,
	}

	health := &healthHandler{pool: pool, logger: logger}
	mux.HandleFunc("GET /health", health.liveness)
	mux.HandleFunc("GET /ready", health.readiness)

	run := &runHandler{runner: runner, logger: logger}
	mux.Handle("POST /api/v1/run", s.authMiddleware(http.HandlerFunc(run.handle)))

	return s
}

// Handler returns the mux wrapped in the shared middleware.
// Order: recovery, request ID, logging, rate limit.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		s.recoveryMiddleware,
		s.requestIDMiddleware,
		s.loggingMiddleware,
		s.rateLimitMiddleware,
	)
}

// Run starts the server on addr and blocks until ctx is canceled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
