package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/p-n-ai/pai-learn/internal/api"
	"github.com/p-n-ai/pai-learn/internal/content"
	"github.com/p-n-ai/pai-learn/internal/curriculum"
	"github.com/p-n-ai/pai-learn/internal/learning"
	"github.com/p-n-ai/pai-learn/internal/platform/cache"
	"github.com/p-n-ai/pai-learn/internal/platform/config"
	"github.com/p-n-ai/pai-learn/internal/platform/database"
	"github.com/p-n-ai/pai-learn/internal/platform/metrics"
	"github.com/p-n-ai/pai-learn/internal/tracking"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// backends holds the tracking stores and the connections behind them.
type backends struct {
	stores  learning.Stores
	history tracking.History
	checks  map[string]api.HealthChecker
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{
		stores: learning.Stores{
			Progress: tracking.NewMemoryProgressStore(),
			Stars:    tracking.NewMemoryStarStore(),
		},
		history: tracking.NewMemoryHistory(),
		checks:  map[string]api.HealthChecker{},
	}

	if cfg.Tracking.ProgressBackend == config.BackendPostgres {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		b.checks["database"] = db

		if err := tracking.EnsureSchema(ctx, db.Pool); err != nil {
			b.close()
			return nil, err
		}
		progress, err := tracking.NewPostgresProgressStore(db.Pool)
		if err != nil {
			b.close()
			return nil, err
		}
		b.stores.Progress = progress
		b.history = tracking.NewPostgresHistory(db.Pool)
		slog.Info("progress backend ready", "backend", config.BackendPostgres)
	}

	if cfg.Tracking.StarsBackend == config.BackendRedis {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		b.closers = append(b.closers, func() { _ = c.Close() })
		b.checks["cache"] = c

		stars, err := tracking.NewRedisStarStore(c.Client, cfg.Tracking.StarsKey)
		if err != nil {
			b.close()
			return nil, err
		}
		b.stores.Stars = stars
		slog.Info("stars backend ready", "backend", config.BackendRedis, "key", cfg.Tracking.StarsKey)
	}

	return b, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	provider, err := content.NewProvider(content.Config{
		Source:  curriculum.NewLoader(cfg.Content.Path, cfg.Content.FetchConcurrency),
		Stores:  b.stores,
		History: b.history,
		Strict:  cfg.Content.Strict,
	})
	if err != nil {
		return err
	}

	apiServer, err := newAPIServer(provider, b.checks, reg)
	if err != nil {
		return err
	}

	// /readyz reports 503 until the first load finishes. A failed load can
	// be retried through the reload endpoint.
	go func() {
		if err := apiServer.Reload(ctx); err != nil {
			slog.Warn("initial content load failed", "path", cfg.Content.Path, "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      apiServer.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// newAPIServer wires the API server with metrics from gatherer.
func newAPIServer(provider *content.Provider, checks map[string]api.HealthChecker, gatherer prometheus.Gatherer) (*api.Server, error) {
	return api.NewServer(api.Config{
		Provider: provider,
		Checks:   checks,
		Metrics:  metrics.Handler(gatherer),
	})
}
