package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vpnserver/internal/config"
	"vpnserver/internal/database"
	"vpnserver/internal/handlers"
	"vpnserver/internal/jobs"
	"vpnserver/internal/log"
	"vpnserver/internal/openvpn"
	"vpnserver/internal/queue"
	"vpnserver/internal/repository"
	"vpnserver/internal/server"
	"vpnserver/internal/service"
	"vpnserver/internal/status"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx := context.Background()

	dbPool, db, err := database.Open(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = queue.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
	}

	profiles := cfg.Profiles()
	users := repository.NewUserRepository(db)
	messages := repository.NewMessageRepository(db)
	certificates := repository.NewCertificateRepository(db)
	connections := repository.NewConnectionRepository(db)

	policy := service.NewPolicyEvaluator(users, messages, service.SystemClock{})
	connectionService := service.NewConnectionService(profiles, certificates, policy, connections, logger)
	reporter := status.NewReporter(profiles, status.NewSource(cfg.OpenVPN, cfg.OpenVPN.LiveQuery, connections, logger))
	management := openvpn.NewManagementClient(cfg.OpenVPN.DialTimeout, cfg.OpenVPN.ReadTimeout)

	deps := handlers.Dependencies{
		Connections:   connectionService,
		Messages:      messages,
		Users:         users,
		Certificates:  certificates,
		Open:          connections,
		ConnectionLog: connections,
		Clients:       openvpn.NewServerManager(profiles.List(), management, logger),
		Status:        reporter,
		Database:      dbPool,
	}
	if redisClient != nil {
		deps.Cache = handlers.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, deps)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(redisClient, cfg.Queue, cfg.Housekeeping, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	logger.Info().
		Strs("profiles", profiles.IDs()).
		Bool("live_query", cfg.OpenVPN.LiveQuery).
		Msg("vpn server api configured")

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, db, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, pool *pgxpool.Pool, db *sql.DB, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduler did not stop in time")
	}

	if err := db.Close(); err != nil {
		logger.Error().Err(err).Msg("database close error")
	}
	pool.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
