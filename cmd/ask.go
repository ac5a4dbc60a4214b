package cmd

import (
	"context"
	"errors"
	"flag"
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

// runAsk answers one question against documents that were ingested earlier.
// The -doc flags name the same references used at ingest time; they are not
// downloaded again.
func runAsk(logger log.Logger) error {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	var documents stringList
	fs.Var(&documents, "doc", "previously ingested document path or URL (repeatable)")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if len(documents) == 0 {
		return errors.New("at least one -doc is required")
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return errors.New("usage: raglet ask -doc <ref> ... <question>")
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

	namespaces := make([]string, len(documents))
	for i, doc := range documents {
		namespaces[i] = pipeline.Namespace(doc)
	}

	ans, err := a.Pipeline.Answer(ctx, question, namespaces)
	if err != nil {
		return err
	}
	fmt.Println(ans.Answer)
	return nil
}
