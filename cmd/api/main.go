package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/killuadb/schemamap/internal/config"
	"github.com/killuadb/schemamap/internal/database"
	"github.com/killuadb/schemamap/internal/repositories"
	"github.com/killuadb/schemamap/internal/server"
	"github.com/killuadb/schemamap/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	var layouts services.LayoutStore
	if cfg.LayoutDB != nil {
		pool, err := database.Connect(ctx, cfg.LayoutDB.DSN(), logger)
		if err != nil {
			logger.Error("failed to connect to layout database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := database.RunMigrations(ctx, pool, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		layouts = repositories.NewLayoutRepository(pool)
	} else {
		logger.Info("LAYOUT_DB_HOST not set, keeping saved layouts in memory")
		layouts = repositories.NewMemoryLayoutRepository()
	}

	source := repositories.NewSchemaRepository(cfg.SchemaEndpoint, cfg.SchemaToken, cfg.FetchTimeout)
	sessions := services.NewSessionService(source, layouts, source.Endpoint(), cfg.FetchTimeout, logger)
	sessions.StartJanitor(cfg.SessionIdleTTL)

	srv := server.NewServer(cfg, sessions, logger)

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "schema_endpoint", cfg.SchemaEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server gracefully")

	// Close sessions first so open streams return and Shutdown can finish.
	sessions.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("server exiting")
}
