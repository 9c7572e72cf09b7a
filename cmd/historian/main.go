// cmd/historian is an asynchronous service that pops attempt events from the
// Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/bridgetrainer/internal/cache"
	"github.com/jason-s-yu/bridgetrainer/internal/config"
	"github.com/jason-s-yu/bridgetrainer/internal/database"
	"github.com/jason-s-yu/bridgetrainer/internal/historian"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := cfg.Logger()
	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is empty; the historian has nothing to consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("database: %v", err)
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatal(err)
	}
	defer rdb.Close()

	queue := cache.NewAttemptQueue(rdb, cfg.AttemptQueue)
	svc := historian.NewService(queue, store, cfg.Historian.BatchSize, cfg.Historian.FlushEvery(), logger.WithField("queue", queue.Queue))
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Error("historian stopped")
	}
	logger.Info("historian shutdown complete")
}
