// Package internal provides the main application initialization and runtime logic.
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
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/berkano/internal/api"
	"github.com/starford/berkano/internal/blocks"
	"github.com/starford/berkano/internal/blockservice"
	"github.com/starford/berkano/internal/mcpserver"
	"github.com/starford/berkano/internal/schema"
	"github.com/starford/berkano/internal/sse"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("schema_dir", cfg.Schema.Dir),
		slog.String("store_path", cfg.Schema.StorePath),
		slog.String("default_locale", cfg.Locale.Default),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure schema directory exists.
	if err := os.MkdirAll(cfg.Schema.Dir, 0o755); err != nil {
		return fmt.Errorf("create schema dir: %w", err)
	}

	// Initialize SQLite schema store.
	store, err := schema.Open(cfg.Schema.StorePath)
	if err != nil {
		return fmt.Errorf("init schema store: %w", err)
	}
	defer store.Close()

	// Build the materialization engine.
	modelTypes := app.modelTypes
	if modelTypes == nil {
		modelTypes = blocks.NewModelTypeRegistry()
	}
	locales := schema.StaticLocale(cfg.Locale.Default)
	engine := blocks.NewEngine(store, locales, modelTypes, logger)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Every schema mutation broadcasts to SSE clients and clears the
	// factory caches.
	onChange := func(kind schema.ChangeKind, key uuid.UUID) {
		broker.PublishSchemaEvent(string(kind), key.String())
		engine.Registry().OnSchemaChange(kind, key)
	}

	// Run initial manifest sync.
	if err := schema.Sync(store, cfg.Schema.Dir, logger, onChange); err != nil {
		logger.Warn("initial schema sync failed", slog.String("error", err.Error()))
	}

	// Build API service and router.
	svc := blockservice.NewService(store, engine, locales)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start schema watcher driving SSE and cache invalidation.
	g.Go(func() error {
		if err := schema.Watch(gCtx, store, cfg.Schema.Dir, logger, onChange); err != nil {
			return fmt.Errorf("schema watcher error: %w", err)
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		broker.Close()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server instead of the HTTP server. Schema
// manifests are loaded once at startup; stdio transports are short-lived so
// no watcher is attached.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Logs go to stderr: stdout is the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := schema.Open(cfg.Schema.StorePath)
	if err != nil {
		return fmt.Errorf("init schema store: %w", err)
	}
	defer store.Close()

	modelTypes := app.modelTypes
	if modelTypes == nil {
		modelTypes = blocks.NewModelTypeRegistry()
	}
	locales := schema.StaticLocale(cfg.Locale.Default)
	engine := blocks.NewEngine(store, locales, modelTypes, logger)

	if err := schema.Sync(store, cfg.Schema.Dir, logger, nil); err != nil {
		logger.Warn("initial schema sync failed", slog.String("error", err.Error()))
	}

	svc := blockservice.NewService(store, engine, locales)
	return mcpserver.New(svc).ServeStdio()
}
