// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-content/internal/cache"
	"github.com/olegiv/ocms-content/internal/config"
	"github.com/olegiv/ocms-content/internal/handler"
	"github.com/olegiv/ocms-content/internal/logging"
	"github.com/olegiv/ocms-content/internal/middleware"
	"github.com/olegiv/ocms-content/internal/scheduler"
	"github.com/olegiv/ocms-content/internal/service"
	"github.com/olegiv/ocms-content/internal/store"
	"github.com/olegiv/ocms-content/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	reconcile := flag.Bool("reconcile", false, "Rebuild all thread statistics and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oCMS content engine\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_PATH                   SQLite database path (default: ./data/ocms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_DRIVER                 sqlite|sqlite3 (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT               Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ENV                       Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_CACHE_TYPE                memory|redis|none (default: memory)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_REDIS_URL                 Redis URL, required for the redis cache\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_STATS_RECONCILE_SCHEDULE  Cron schedule for thread stats rebuild (default: @hourly)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Println(info)
		os.Exit(0)
	}

	if err := run(info, *reconcile); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info, reconcileOnly bool) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	slog.SetDefault(logging.NewLogger(nil, level, cfg.IsDevelopment()))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath, "driver", cfg.DBDriver)
	dbCfg := store.DefaultDBConfig()
	dbCfg.Driver = cfg.DBDriver
	db, err := store.NewDBWithConfig(cfg.DBPath, dbCfg)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// From here on WARN and ERROR records are also kept in the event log.
	logger := logging.NewLogger(db, level, cfg.IsDevelopment())
	slog.SetDefault(logger)

	backend, err := cache.NewCache(cfg.CacheConfig())
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	var schema *cache.SchemaCache
	if backend != nil {
		defer func() {
			if err := backend.Close(); err != nil {
				slog.Error("error closing cache", "error", err)
			}
		}()
		schema = cache.NewSchemaCache(backend, cfg.CacheTTLDuration())
	}
	slog.Info("cache initialized", "type", cfg.CacheType)

	clock := service.SystemClock{}
	fields := service.NewFieldService(db, schema, logger)
	content := service.NewContentService(db, fields, clock, logger)
	comments := service.NewCommentService(db, clock, logger, cfg.ThreadPathRetries)
	events := service.NewEventService(db, clock)

	schedCfg := scheduler.Config{
		ReconcileSchedule: cfg.StatsReconcileSchedule,
		PruneSchedule:     cfg.EventPruneSchedule,
		EventRetention:    cfg.EventRetention,
	}
	if reconcileOnly && schedCfg.ReconcileSchedule == "" {
		// Registers the job for the one-off run below; the scheduler never starts.
		schedCfg.ReconcileSchedule = "@hourly"
	}
	sched, err := scheduler.New(schedCfg, comments, events, logger)
	if err != nil {
		return fmt.Errorf("initializing scheduler: %w", err)
	}

	if reconcileOnly {
		if err := sched.TriggerNow(context.Background(), scheduler.JobReconcileStats); err != nil {
			return fmt.Errorf("rebuilding thread stats: %w", err)
		}
		return nil
	}

	sched.Start()
	defer sched.Stop()

	router := handler.NewRouter(handler.Deps{
		DB:       db,
		Content:  content,
		Fields:   fields,
		Comments: comments,
		Events:   events,
		Cache:    backend,
		Jobs:     sched,
		Limiter:  middleware.NewOriginRateLimiter(cfg.CommentRateLimit, cfg.CommentRateBurst, logger),
		Logger:   logger,
		Version:  info,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
