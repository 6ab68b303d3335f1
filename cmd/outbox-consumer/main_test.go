package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/infra"
	"github.com/guildcasino/casino/internal/projection"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := projection.NewInMemoryStore()

	board := projection.BalanceBoard{GuildID: "g1", Limit: 10}
	require.NoError(t, projection.PutBalanceBoard(ctx, store, board, time.Minute))
	require.NoError(t, projection.PutBalanceBoard(ctx, store, projection.BalanceBoard{GuildID: "g2", Limit: 10}, time.Minute))

	st := domain.Settlement{
		RoundID: uuid.New(), GuildID: "g1", UserID: "u1",
		Kind: domain.KindDice, Stake: 5, Payout: 0, Result: domain.ResultLoss,
	}
	msg := infra.EventMessage(domain.NewRoundSettledEvent(st, 195))

	require.NoError(t, handleMessage(ctx, store, msg, logger))
	_, err := projection.GetBalanceBoard(ctx, store, "g1", 10)
	assert.ErrorIs(t, err, projection.ErrMiss)
	_, err = projection.GetBalanceBoard(ctx, store, "g2", 10)
	assert.NoError(t, err, "other guilds keep their cache")

	t.Run("malformed payload is skipped", func(t *testing.T) {
		assert.NoError(t, handleMessage(ctx, store, kafka.Message{Value: []byte("{")}, logger))
		assert.NoError(t, handleMessage(ctx, store, kafka.Message{Value: []byte(`{"user_id":"u1"}`)}, logger))
	})
}
