package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guildcasino/casino/internal/app"
	"github.com/guildcasino/casino/internal/auth"
	"github.com/guildcasino/casino/internal/guard"
	"github.com/guildcasino/casino/internal/handler"
	"github.com/guildcasino/casino/internal/infra"
	"github.com/guildcasino/casino/internal/ledger"
	"github.com/guildcasino/casino/internal/projection"
	"github.com/guildcasino/casino/internal/repository"
	"github.com/guildcasino/casino/internal/rng"
	"github.com/guildcasino/casino/internal/service"
	"github.com/guildcasino/casino/internal/session"
	"github.com/guildcasino/casino/internal/settlement"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *infra.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Connect to Postgres
	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	if cfg.RunMigrations {
		if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Ledger engine and settlement
	repos := ledger.PostgresRepositories()
	engine := ledger.NewEngine(repos, cfg.HouseRules())
	coordinator := settlement.NewCoordinator(engine)
	ledgerSvc := service.NewLedgerService(pool, engine, coordinator, logger)

	casinoCfg := service.DefaultCasinoConfig()
	casinoCfg.IdleTimeout = cfg.SessionIdleTimeout
	casinoCfg.SelectionTTL = cfg.RouletteSelectionTTL
	var src rng.Source = rng.Crypto()
	if cfg.RandomOrgAPIKey != "" {
		randomOrg := rng.NewRandomOrg(cfg.RandomOrgAPIKey, logger)
		primeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := randomOrg.Prime(primeCtx); err != nil {
			logger.Warn("random.org prime failed, drawing from CSPRNG until it recovers", "error", err)
		}
		cancel()
		src = randomOrg
		logger.Info("drawing from random.org with crypto fallback")
	}
	casino := service.NewCasinoService(ledgerSvc, src, casinoCfg, logger)

	healthChecks := map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error { return infra.HealthCheck(ctx, pool) },
	}

	// Projection store and rate limiter: Redis when configured
	window := time.Minute
	var (
		store       projection.Store = projection.NewInMemoryStore()
		playLimiter guard.Limiter    = guard.NewRateLimiter(cfg.RateLimitPerMinute, window)
	)
	if cfg.RedisURL != "" {
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		redisStore := projection.NewRedisStore(client)
		store = redisStore
		playLimiter = guard.NewRedisRateLimiter(client, cfg.RateLimitPerMinute, window)
		healthChecks["redis"] = redisStore.Ping
		logger.Info("connected to redis")
	}
	boards := service.NewLeaderboardService(casino, store, cfg.LeaderboardCacheTTL,
		guard.NewCircuitBreaker(5, 30*time.Second), logger)

	// Idle session sweeper
	sweeper, err := session.NewSweeper(cfg.SessionSweepSchedule, casino.SweepIdle, logger)
	if err != nil {
		return err
	}
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	// Outbox relay
	if cfg.KafkaEnabled {
		producer := infra.NewKafkaProducer(cfg.KafkaBrokerList(), logger)
		defer producer.Close()
		relay := infra.NewOutboxRelay(repository.BindOutbox(repos.Outbox, pool), producer, logger)
		relay.Start(ctx)
	} else {
		logger.Info("kafka disabled; outbox events stay in postgres")
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTServiceExpiry, cfg.JWTAdminExpiry)

	r := app.NewRouter(app.RouterDeps{
		Casino:       casino,
		Leaderboards: boards,
		Reconciler:   ledgerSvc,
		JWTMgr:       jwtMgr,
		Logger:       logger,
		PlayLimiter:  playLimiter,
		Idempotency:  guard.NewIdempotencyGuard(24 * time.Hour),
		HealthChecks: healthChecks,
		CORSOrigin:   cfg.CORSAllowedOrigins,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Forfeit whatever is still open so no stake is left unsettled.
	if n, err := casino.SweepAll(shutdownCtx); err != nil {
		logger.Error("forfeit open sessions", "error", err)
	} else if n > 0 {
		logger.Info("open sessions forfeited on shutdown", "count", n)
	}

	logger.Info("server stopped gracefully")
	return nil
}
