package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/raglet/raglet/internal/app"
	"github.com/raglet/raglet/internal/config"
	"github.com/raglet/raglet/internal/log"
	"github.com/raglet/raglet/internal/pipeline"
)

// runIngest indexes one or more documents without asking any questions.
func runIngest(logger log.Logger) error {
	documents := os.Args[2:]
	if len(documents) == 0 {
		return errors.New("usage: raglet ingest <document>...")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	for _, doc := range documents {
		var (
			count int
			ns    string
		)
		if strings.HasPrefix(doc, "http://") || strings.HasPrefix(doc, "https://") {
			ns, count, err = a.Pipeline.IngestURL(ctx, doc)
		} else {
			ns = pipeline.Namespace(doc)
			count, err = a.Pipeline.IngestFile(ctx, doc, ns, "")
		}
		if err != nil {
			return fmt.Errorf("ingest %s: %w", doc, err)
		}
		fmt.Printf("ingested %s: %d chunks (namespace %s)\n", doc, count, ns)
	}
	return nil
}
