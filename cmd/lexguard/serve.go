package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyndhavamahesh345/LexGuard/internal/api"
	"github.com/hyndhavamahesh345/LexGuard/internal/bus"
	"github.com/hyndhavamahesh345/LexGuard/internal/cache"
	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/narrate"
	"github.com/hyndhavamahesh345/LexGuard/internal/repository"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
	"github.com/hyndhavamahesh345/LexGuard/internal/service"
	"github.com/hyndhavamahesh345/LexGuard/internal/session"
	"github.com/hyndhavamahesh345/LexGuard/internal/worker"
)

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port > 0 {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context, cfg *domain.Config) error {
	slog.Info("starting lexguard",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	repo, err := repository.New(cfg.Repository)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize event bus: %w", err)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	table, source, err := service.InitialTable(ctx, cfg.Evaluation, repo)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	book, err := rules.NewBookWith(table)
	if err != nil {
		return fmt.Errorf("invalid rule table from %s: %w", source, err)
	}
	slog.Info("rule book loaded",
		"source", source,
		"rules_count", book.Len(),
		"version", book.Table().Version(),
	)

	deps := service.Deps{
		Book:  book,
		Repo:  repo,
		Cache: cacheImpl,
		Bus:   busImpl,
	}
	narrator, err := narrate.New(ctx, cfg.Narration)
	switch {
	case err == nil:
		deps.Narrator = narrator
		slog.Info("narration enabled", "model", cfg.Narration.Model)
	case errors.Is(err, narrate.ErrDisabled):
	default:
		slog.Warn("narration unavailable", "error", err)
	}

	svc := service.New(cfg.Evaluation, cfg.Cache, deps)
	if err := svc.SeedRules(ctx); err != nil {
		slog.Warn("failed to seed rule table", "error", err)
	}

	var asyncWorker *worker.Worker
	if cfg.Worker.Enabled {
		asyncWorker = worker.NewWorker(busImpl, svc)
		if err := asyncWorker.Start(worker.Config{TenantIDs: cfg.Worker.TenantIDs}); err != nil {
			slog.Error("failed to start async worker", "error", err)
			asyncWorker = nil
		}
	}

	apiDeps := api.Deps{
		Service:  svc,
		Repo:     repo,
		Cache:    cacheImpl,
		Bus:      busImpl,
		Sessions: session.NewStore(cacheImpl, cfg.Auth),
	}
	if cfg.Evaluation.Remote {
		apiDeps.Evaluator = worker.NewRemoteEvaluator(busImpl, cfg.Evaluation.RemoteTimeout, cfg.Worker.TenantIDs)
		slog.Info("evaluations delegated to workers", "timeout", cfg.Evaluation.RemoteTimeout)
	}

	srv := api.NewServer(cfg.Server, apiDeps, Version)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("lexguard is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("shutting down...")

	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("lexguard shutdown complete")
	return nil
}
