package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"vpnserver/internal/config"
	"vpnserver/internal/database"
	"vpnserver/internal/housekeeping"
	"vpnserver/internal/log"
	"vpnserver/internal/queue"
	"vpnserver/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level).With().Str("service", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, db, err := database.Open(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer pool.Close()
	defer db.Close()

	client, err := queue.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	sweeper, err := housekeeping.NewFromConfig(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("housekeeping setup failed")
	}

	processor := tasks.NewProcessor(sweeper, logger)
	consumer := queue.NewConsumer(client, cfg.Queue, logger, processor)

	logger.Info().
		Str("stream", cfg.Queue.Stream).
		Str("group", cfg.Queue.Group).
		Str("consumer", cfg.Queue.Consumer).
		Msg("worker started")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		return
	}
	logger.Info().Msg("shutdown signal received")
}
