package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raglet/raglet/api"
	"github.com/raglet/raglet/internal/app"
	"github.com/raglet/raglet/internal/config"
	"github.com/raglet/raglet/internal/log"
)

// runServe initializes the application and starts the HTTP API server.
// An optional positional argument overrides the configured listen address.
func runServe(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	addr := cfg.Addr
	if len(os.Args) > 2 {
		addr = os.Args[2]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting raglet API server", "version", Version, "addr", addr)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	srv := api.NewServer(a.Pipeline, a.DBPool, api.Config{
		Token:     cfg.APIToken,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}, logger)

	return srv.Run(ctx, addr)
}
