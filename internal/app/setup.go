package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/raglet/raglet/db"
	"github.com/raglet/raglet/internal/answer"
	"github.com/raglet/raglet/internal/config"
	"github.com/raglet/raglet/internal/embed"
	"github.com/raglet/raglet/internal/fetch"
	"github.com/raglet/raglet/internal/index"
	"github.com/raglet/raglet/internal/log"
	"github.com/raglet/raglet/internal/pipeline"
	"github.com/raglet/raglet/internal/retrieve"
)

// Setup creates and initializes the application: database pool with
// migrations applied, genkit with the configured provider, and the full
// ingestion and answering pipeline. Call Close on the returned App to
// release resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, dbCleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Embedder = embed.New(func(context.Context) (ai.Embedder, error) {
		embedder := provideEmbedder(g, cfg)
		if embedder == nil {
			return nil, fmt.Errorf("embedder %q not found for provider %q",
				cfg.EmbedderModel, cfg.Provider)
		}
		return embedder, nil
	}, cfg.EmbedderDimension, logger)

	a.Index = index.NewStore(pool, cfg.EmbedderDimension, logger)

	retriever := retrieve.New(a.Embedder, a.Index, cfg.TopK, logger)
	generator := answer.NewGenkitGenerator(g, qualifiedModelName(cfg))
	synthesizer := answer.NewSynthesizer(generator, logger)
	fetcher := fetch.New(time.Duration(cfg.DownloadTimeoutSeconds)*time.Second, logger)

	a.Pipeline = pipeline.New(fetcher, a.Embedder, a.Index, retriever, synthesizer,
		pipeline.Config{
			ChunkSize:       cfg.ChunkSize,
			ChunkOverlap:    cfg.ChunkOverlap,
			ManifestPath:    cfg.ManifestPath,
			QueryTimeout:    time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
			GenerateTimeout: time.Duration(cfg.GenerateTimeoutSeconds) * time.Second,
		}, logger)

	if cfg.DefaultDocumentURL != "" {
		preload(ctx, a)
	}

	return a, nil
}

// preload ingests the configured default document. Failures are logged and
// tolerated so the service still starts when the document host is down.
func preload(ctx context.Context, a *App) {
	ns, count, err := a.Pipeline.IngestURL(ctx, a.Config.DefaultDocumentURL)
	if err != nil {
		a.Logger.Warn("default document preload failed",
			"url", a.Config.DefaultDocumentURL,
			"error", err)
		return
	}
	a.Logger.Info("default document preloaded",
		"namespace", ns,
		"chunks", count)
}

// provideGenkit initializes genkit with the configured AI provider.
// Ollama requires explicit model and embedder registration; GoogleAI
// discovers models from the API key.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	default: // googleai
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
		logger.Info("initialized genkit with googleai provider",
			"model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
// The ollama embedder is keyed by server address, the googleai one by model
// name.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideDBPool runs migrations and opens a connection pool with pgvector
// types registered on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// qualifiedModelName prefixes the configured model with its provider so
// genkit can resolve it by name.
func qualifiedModelName(cfg *config.Config) string {
	switch cfg.Provider {
	case config.ProviderOllama:
		return "ollama/" + cfg.ModelName
	default:
		return "googleai/" + cfg.ModelName
	}
}
