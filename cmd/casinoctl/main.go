// Command casinoctl runs one operator task and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guildcasino/casino/internal/auth"
	"github.com/guildcasino/casino/internal/ctl"
	"github.com/guildcasino/casino/internal/infra"
	"github.com/guildcasino/casino/internal/ledger"
	"github.com/guildcasino/casino/internal/service"
	"github.com/guildcasino/casino/internal/settlement"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := ctl.ParseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(cfg, logger); err != nil {
		logger.Error("casinoctl failed", "command", cfg.Command, "error", err)
		os.Exit(1)
	}
}

func run(cfg ctl.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	env, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps := ctl.Deps{
		Tokens: auth.NewJWTManager(env.JWTSecret, env.JWTServiceExpiry, env.JWTAdminExpiry),
		Migrate: func(down int) error {
			if down > 0 {
				return infra.RollbackMigrations(env.DSN(), down, logger)
			}
			return infra.RunMigrations(env.DSN(), logger)
		},
	}

	if cfg.NeedsDatabase() && cfg.Command != ctl.CmdMigrate {
		pool, err := infra.NewPostgresPool(ctx, env)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		engine := ledger.NewEngine(ledger.PostgresRepositories(), env.HouseRules())
		ledgerSvc := service.NewLedgerService(pool, engine, settlement.NewCoordinator(engine), logger)
		deps.Balances = ledgerSvc
		deps.Reconciler = ledgerSvc
	}

	return ctl.Run(ctx, cfg, deps, os.Stdout)
}
