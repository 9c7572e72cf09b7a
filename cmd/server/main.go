// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/bridgetrainer/internal/auth"
	"github.com/jason-s-yu/bridgetrainer/internal/cache"
	"github.com/jason-s-yu/bridgetrainer/internal/config"
	"github.com/jason-s-yu/bridgetrainer/internal/database"
	"github.com/jason-s-yu/bridgetrainer/internal/handlers"
	"github.com/jason-s-yu/bridgetrainer/internal/quiz"
	"github.com/jason-s-yu/bridgetrainer/internal/render"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := cfg.Logger()

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

	// attempts go through redis to the historian when it is configured,
	// otherwise straight to postgres
	var pub quiz.Publisher = store
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, writing attempts directly")
		} else {
			defer rdb.Close()
			pub = cache.NewAttemptQueue(rdb, cfg.AttemptQueue)
		}
	}

	ttl, err := auth.ParseTTL(cfg.TokenExpireTime)
	if err != nil {
		logger.Fatal(err)
	}
	issuer, err := newIssuer(ttl)
	if err != nil {
		logger.Fatal(err)
	}

	trainer := quiz.NewTrainer(store, pub, cfg.KFactor, logger)
	api := &handlers.APIServer{
		Users:    store,
		Deals:    store,
		Trainer:  trainer,
		Tokens:   issuer,
		Renderer: render.WithSymbols(cfg.Render.Symbols),
		Log:      logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithFields(logrus.Fields{"addr": srv.Addr, "k": cfg.KFactor}).Info("bridge trainer listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.WithField("unanswered", trainer.Sessions.Len()).Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
}

// newIssuer loads the signing keys named by JWT_PRIVATE_KEY and JWT_PUBLIC_KEY,
// or generates a key pair for this process.
func newIssuer(ttl time.Duration) (*auth.Issuer, error) {
	priv, pub := os.Getenv("JWT_PRIVATE_KEY"), os.Getenv("JWT_PUBLIC_KEY")
	if priv != "" && pub != "" {
		return auth.NewIssuerFromFiles(priv, pub, ttl)
	}
	return auth.NewIssuer(ttl)
}
