package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/recommender/internal/api"
	"github.com/Harshitk-cp/recommender/internal/buildconfig"
	"github.com/Harshitk-cp/recommender/internal/config"
	"github.com/Harshitk-cp/recommender/internal/store"
)

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

func main() {
	if err := config.Load(); err != nil {
		// The logger level comes from config, so this one is best effort.
		boot, _ := zap.NewProduction()
		boot.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := newLogger(config.LogLevel())
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("invalid LOG_LEVEL, using info", zap.String("level", config.LogLevel()), zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting recommender",
		zap.String("version", buildconfig.Version()),
		zap.String("commit", buildconfig.Commit()))

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	applied, err := store.Migrate(ctx, pool, config.MigrationsPath())
	if err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}
	if len(applied) > 0 {
		logger.Info("applied migrations", zap.Strings("versions", applied))
	}

	app := api.NewApp(pool, logger)

	// Start background services
	app.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Stop background services after in-flight requests have drained
	app.Stop()

	logger.Info("server stopped")
}
