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
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/railspress/themekit/internal/api"
	"github.com/railspress/themekit/internal/mcpserver"
	"github.com/railspress/themekit/internal/render"
	"github.com/railspress/themekit/internal/source"
	"github.com/railspress/themekit/internal/sse"
	"github.com/railspress/themekit/internal/store"
	"github.com/railspress/themekit/internal/themeservice"
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
		slog.String("store_path", cfg.Store.Path),
		slog.String("themes_source_dir", cfg.Themes.SourceDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the themes source directory exists.
	if err := os.MkdirAll(cfg.Themes.SourceDir, 0o755); err != nil {
		return fmt.Errorf("create themes source dir: %w", err)
	}

	// Open the versioned theme store.
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Run initial sync: one draft per theme directory.
	if err := syncAllThemes(ctx, db, cfg.Themes.SourceDir, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build renderer, service, and routers.
	renderer := render.New(logger)
	svc := themeservice.NewService(db, renderer)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, broker.PublishThemeEvent)
	frontendRouter := api.NewFrontendRouter(svc)

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

	// Mount authoring API under /api, visitor routes at the root.
	r.Mount("/api", apiRouter)
	r.Mount("/", frontendRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start theme source watcher with SSE callback.
	if cfg.Themes.Watch {
		g.Go(func() error {
			return store.Watch(gCtx, db, cfg.Themes.SourceDir, logger, func(kind, theme, path string) {
				broker.PublishThemeEvent(kind, theme, path)
			})
		})
	}

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server over stdio. Logs go to stderr because
// stdout carries the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	if err := syncAllThemes(ctx, db, cfg.Themes.SourceDir, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := themeservice.NewService(db, render.New(logger))

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// syncAllThemes runs a checksum-diff sync of every theme directory under
// root into its draft state.
func syncAllThemes(ctx context.Context, db *store.DB, root string, logger *slog.Logger) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		src, err := source.NewFS(filepath.Join(root, e.Name()))
		if err != nil {
			logger.Warn("sync: open theme dir failed", slog.String("theme", e.Name()), slog.String("error", err.Error()))
			continue
		}
		changed, err := store.SyncFromSource(ctx, db, e.Name(), src, logger)
		if err != nil {
			logger.Warn("sync: theme failed", slog.String("theme", e.Name()), slog.String("error", err.Error()))
			continue
		}
		logger.Info("sync: theme drafted", slog.String("theme", e.Name()), slog.Int("changed", changed))
	}
	return nil
}
