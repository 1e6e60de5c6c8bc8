package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pointshop/config"
	"pointshop/internal/cache"
	"pointshop/internal/database"
	"pointshop/internal/events"
	"pointshop/internal/logger"
	"pointshop/internal/metrics"
	"pointshop/internal/middleware"
	"pointshop/internal/repository"
	"pointshop/internal/router"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.Server.Env, cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := database.NewDB(&cfg.Database, cfg.Ledger.LockTimeout)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	ctx := context.Background()
	if err := repository.NewSettingRepository(db).SeedDefaults(ctx, repository.DefaultSettingValues()); err != nil {
		log.Fatal("seed settings", zap.Error(err))
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		// The cache only serves display reads; run without it.
		log.Warn("redis unavailable, settings cache disabled", zap.Error(err))
		rdb = nil
	}
	publisher := events.New(cfg.Kafka, log)

	limiter := middleware.NewRateLimiter(30, 10)
	stopSweeper := make(chan struct{})

	engine, svcs := router.Setup(cfg, db, router.Infra{
		Logger:    log,
		Publisher: publisher,
		Redis:     rdb,
		Metrics:   metrics.Ledger(),
		Limiter:   limiter,
	})
	go sweepDialogs(svcs.Dialogs.Sweep, stopSweeper)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	close(stopSweeper)
	if err := publisher.Close(); err != nil {
		log.Error("kafka close", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("redis close", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		log.Error("database close", zap.Error(err))
	}
	log.Info("server stopped")
}

func sweepDialogs(sweep func() int, stop <-chan struct{}) {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			sweep()
		case <-stop:
			return
		}
	}
}
