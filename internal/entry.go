// Package internal assembles the paranote server and MCP entry points.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/paranote/internal/api"
	"github.com/starford/paranote/internal/index"
	"github.com/starford/paranote/internal/mcpserver"
	"github.com/starford/paranote/internal/sse"
)

const (
	eventThrottle   = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Run serves the HTTP API over the configured vault, keeps the index in
// step with the file system and streams change events, until ctx is
// cancelled or the process receives SIGINT or SIGTERM.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.IndexPath()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	v, err := OpenVault(cfg, logger)
	if err != nil {
		return err
	}
	defer v.Close()

	broker := sse.NewBroker(eventThrottle)
	defer broker.Close()

	srv := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRootRouter(cfg, v, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := index.Watch(gCtx, v.Index, v.Store, v.Service.Parser(), cfg.Vault.Pattern, logger, broker.PublishNoteEvent)
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("http server listening", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down", slog.String("cause", context.Cause(gCtx).Error()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newRootRouter mounts the API under /api next to unauthenticated health
// probes. Readiness fails while the index is unreachable.
func newRootRouter(cfg *Config, v *Vault, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, nil)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, v.Index.Ping(r.Context()))
	})
	r.Mount("/api", api.NewRouter(v.Service, v.Index, api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      events,
		Pattern:     cfg.Vault.Pattern,
		StaleDays:   cfg.Actions.StaleDays,
	}))
	return r
}

func writeHealth(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		slog.Warn("readiness check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	v, err := OpenVault(app.config, app.logger)
	if err != nil {
		return err
	}
	defer v.Close()

	app.logger.Info("mcp server starting", slog.String("vault_path", v.Store.Root()))
	return mcpserver.New(v.Service, v.Index, mcpserver.Config{
		Pattern:   app.config.Vault.Pattern,
		StaleDays: app.config.Actions.StaleDays,
	}).ServeStdio()
}

func newApplication(opts []Option, logOut *os.File) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errors.New("config is required")
	}
	if app.logger == nil {
		app.logger = NewLogger(logOut, app.config.App.LogLevel)
	}
	return app, nil
}
