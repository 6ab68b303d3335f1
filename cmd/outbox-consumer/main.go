package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/infra"
	"github.com/guildcasino/casino/internal/projection"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
)

const consumerGroup = "casino-leaderboard-invalidator"

var errMissingGuild = errors.New("event has no guild_id")

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
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *infra.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED is false; nothing to consume")
	}
	if cfg.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required to invalidate cached leaderboards")
	}

	client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer client.Close()
	store := projection.NewRedisStore(client)

	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokerList(), string(domain.EventRoundSettled), consumerGroup)
	defer consumer.Close()
	logger.Info("outbox-consumer starting", "topic", domain.EventRoundSettled, "group", consumerGroup)

	for {
		msg, err := consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("outbox-consumer shutting down")
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := handleMessage(ctx, store, msg, logger); err != nil {
			// left uncommitted; the group redelivers it after a restart
			logger.Error("handle message", "offset", msg.Offset, "error", err)
			continue
		}
		if err := consumer.Commit(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Error("commit message", "offset", msg.Offset, "error", err)
		}
	}
}

// handleMessage drops the cached boards of the guild a settled round
// belongs to. Undecodable messages are logged and skipped.
func handleMessage(ctx context.Context, store projection.Store, msg kafka.Message, logger *slog.Logger) error {
	var evt domain.RoundSettledPayload
	err := json.Unmarshal(msg.Value, &evt)
	if err == nil && evt.GuildID == "" {
		err = errMissingGuild
	}
	if err != nil {
		logger.Warn("skipping malformed round event",
			"offset", msg.Offset,
			"event_id", infra.Header(msg, "event_id"),
			"error", err,
		)
		return nil
	}

	n, err := projection.InvalidateGuild(ctx, store, evt.GuildID)
	if err != nil {
		return fmt.Errorf("invalidate guild %s: %w", evt.GuildID, err)
	}
	logger.Debug("leaderboards invalidated",
		"guild_id", evt.GuildID,
		"round_id", evt.RoundID,
		"keys", n,
	)
	return nil
}
