// PromptShare catalog API server.
//
// @title           PromptShare Catalog API
// @version         1.0
// @description     Catalog service for user-submitted prompt templates: creation, discovery, ownership-gated mutation, and one-rating-per-user aggregation.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modd3/ai-prompt-builder/internal/api"
	"github.com/modd3/ai-prompt-builder/internal/infrastructure/config"
	catalogmongo "github.com/modd3/ai-prompt-builder/internal/infrastructure/db/mongo"
	catalogredis "github.com/modd3/ai-prompt-builder/internal/infrastructure/db/redis"
	"github.com/modd3/ai-prompt-builder/internal/infrastructure/queue"
	"github.com/modd3/ai-prompt-builder/pkg/logger"

	_ "github.com/modd3/ai-prompt-builder/docs"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := catalogmongo.Connect(ctx, catalogmongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := catalogmongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index bootstrap failed")
	}

	// --- Redis ---
	rdb, err := catalogredis.Connect(ctx, catalogredis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Back-reference reconciler ---
	reconciler := queue.NewReconciler(cfg.Reconciler.Workers, catalogmongo.NewUserRepository(db), log)
	reconciler.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(db, rdb, api.Options{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		Reconciler: reconciler,
		Logger:     log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("http server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("catalog API listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
