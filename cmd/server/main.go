package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"prepcost/internal/config"
	"prepcost/internal/costing"
	"prepcost/internal/db"
	"prepcost/internal/db/mock"
	"prepcost/internal/dedup"
	"prepcost/internal/engine"
	applog "prepcost/internal/log"
	"prepcost/internal/metrics"
	"prepcost/internal/server"
	"prepcost/internal/store"
	"prepcost/internal/tasks"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newRedisFunc        = db.NewRedis
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	reg := metrics.NewRegistry()
	runner := tasks.NewRunner(cfg.Engine.TaskQueueSize, reg)
	eng := engine.New(store.New(database, reg), engine.Options{
		Costing:     costing.Options{SingleMultiplier: cfg.Engine.SingleMultiplier},
		Concurrency: cfg.Engine.Concurrency,
		Warnings:    warningCache(ctx, cfg.Cache),
		Tasks:       runner,
		Metrics:     reg,
	})

	srv, err := newServerFunc(server.Config{Addr: cfg.Server.Addr, Engine: eng, Metrics: reg})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	shutdown, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	startErr := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		startErr <- srv.Start()
	}()

	select {
	case err := <-startErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-shutdown:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-startErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server exited with error", "error", err)
		return 1
	}
	runner.Wait()
	return 0
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.UseMock || cfg.URL == "" {
		applog.Info(ctx, "using in-memory mock database")
		return newMockDatabaseFunc(ctx)
	}
	return configureDatabase(cfg)
}

// warningCache shares data-quality warning de-duplication across replicas
// when redis is configured, and falls back to process memory otherwise.
func warningCache(ctx context.Context, cfg config.CacheConfig) dedup.Cache {
	if cfg.RedisURL == "" {
		return dedup.NewMemory(cfg.DedupTTL)
	}
	client, err := newRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		applog.Warn(ctx, "redis unavailable; de-duplicating warnings in memory", "error", err)
		return dedup.NewMemory(cfg.DedupTTL)
	}
	return dedup.NewRedis(client, "prepcost:warning:", cfg.DedupTTL)
}
