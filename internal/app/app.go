// Package app assembles the document question answering service from its
// parts and owns their lifecycles.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raglet/raglet/internal/config"
	"github.com/raglet/raglet/internal/embed"
	"github.com/raglet/raglet/internal/index"
	"github.com/raglet/raglet/internal/log"
	"github.com/raglet/raglet/internal/pipeline"
)

// App holds the wired application. Construct with Setup, release with Close.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder *embed.Service
	Index    *index.Store
	Pipeline *pipeline.Pipeline

	dbCleanup func()
}

// Close releases everything Setup acquired. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	return nil
}
