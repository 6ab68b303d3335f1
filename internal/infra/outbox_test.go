package infra_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/infra"
	"github.com/guildcasino/casino/internal/repository"
	"github.com/guildcasino/casino/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	batches [][]domain.OutboxDraft
	err     error
}

func (p *recordingPublisher) PublishEvents(_ context.Context, events []domain.OutboxDraft) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, events)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		st := domain.Settlement{
			RoundID: uuid.New(), GuildID: "g1", UserID: "u1",
			Kind: domain.KindDice, Stake: 5, Payout: 10, Result: domain.ResultWin,
		}
		require.NoError(t, store.Outbox().Insert(context.Background(), nil, domain.NewRoundSettledEvent(st, 205)))
	}
}

func newRelay(store *memory.Store, pub infra.EventPublisher) *infra.OutboxRelay {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return infra.NewOutboxRelay(repository.BindOutbox(store.Outbox(), nil), pub, logger)
}

func TestOutboxRelay_RelaysAndDrains(t *testing.T) {
	store := memory.NewStore()
	seedOutbox(t, store, 3)
	pub := &recordingPublisher{}

	n, err := newRelay(store, pub).RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "casino.round.settled", pub.batches[0][0].Topic())
	assert.Empty(t, store.Events())
}

func TestOutboxRelay_Empty(t *testing.T) {
	pub := &recordingPublisher{}
	n, err := newRelay(memory.NewStore(), pub).RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.batches)
}

func TestOutboxRelay_PublishFailureKeepsRows(t *testing.T) {
	store := memory.NewStore()
	seedOutbox(t, store, 2)
	pub := &recordingPublisher{err: errors.New("broker down")}
	relay := newRelay(store, pub)

	_, err := relay.RelayOnce(context.Background())
	require.Error(t, err)
	assert.Len(t, store.Events(), 2)

	pub.err = nil
	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, store.Events())
}

func TestOutboxRelay_BatchSize(t *testing.T) {
	store := memory.NewStore()
	seedOutbox(t, store, 5)
	relay := newRelay(store, &recordingPublisher{}).WithBatchSize(2)

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.Events(), 3)
}

func TestEventMessage(t *testing.T) {
	st := domain.Settlement{
		RoundID: uuid.New(), GuildID: "g7", UserID: "u1",
		Kind: domain.KindSlots, Stake: 5, Payout: 0, Result: domain.ResultLoss,
	}
	evt := domain.NewRoundSettledEvent(st, 195)
	msg := infra.EventMessage(evt)

	assert.Equal(t, "casino.round.settled", msg.Topic)
	assert.Equal(t, "g7", string(msg.Key))
	assert.Equal(t, evt.EventID.String(), infra.Header(msg, "event_id"))
	assert.Equal(t, "round", infra.Header(msg, "aggregate_type"))
	assert.Empty(t, infra.Header(msg, "missing"))
}
