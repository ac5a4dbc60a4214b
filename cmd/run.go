package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raglet/raglet/internal/app"
	"github.com/raglet/raglet/internal/config"
	"github.com/raglet/raglet/internal/log"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// runRun ingests documents and answers questions in one invocation.
func runRun(logger log.Logger) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var documents, questions stringList
	fs.Var(&documents, "doc", "document path or URL (repeatable)")
	fs.Var(&questions, "q", "question to answer (repeatable)")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if len(documents) == 0 {
		return errors.New("at least one -doc is required")
	}
	if len(questions) == 0 {
		return errors.New("at least one -q is required")
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

	answers, err := a.Pipeline.Run(ctx, documents, questions)
	if err != nil {
		return err
	}

	for _, ans := range answers {
		fmt.Printf("Q: %s\nA: %s\n\n", ans.Question, ans.Answer)
	}
	return nil
}
