package projection

import (
	"context"
	"testing"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SetAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	err := store.Set(ctx, "k1", []byte("hello"), 0)
	require.NoError(t, err)

	val, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), val)
}

func TestInMemoryStore_KeyNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "k1", []byte("data"), 0)
	_ = store.Delete(ctx, "k1")

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Set(ctx, "k1", []byte("data"), time.Second)
	now = now.Add(2 * time.Second)

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 0, store.Len())
}

func TestInMemoryStore_DeletePrefix(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "a:1", []byte("x"), 0)
	_ = store.Set(ctx, "a:2", []byte("x"), 0)
	_ = store.Set(ctx, "b:1", []byte("x"), 0)

	n, err := store.DeletePrefix(ctx, "a:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, store.Len())
}

func TestBalanceBoard_RoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	b := BalanceBoard{
		GuildID: "g1",
		Limit:   10,
		Entries: []domain.BalanceEntry{{UserID: "u1", Balance: 500}, {UserID: "u2", Balance: 200}},
	}
	require.NoError(t, PutBalanceBoard(ctx, store, b, LeaderboardTTL))

	got, err := GetBalanceBoard(ctx, store, "g1", 10)
	require.NoError(t, err)
	assert.Equal(t, b.Entries, got.Entries)
	assert.NotEmpty(t, got.UpdatedAt)

	_, err = GetBalanceBoard(ctx, store, "g1", 5)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestStatBoard_KeyedByScopeAndMetric(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	scope := domain.StatScope{Kind: domain.KindDice}

	b := StatBoard{GuildID: "g1", Metric: domain.MetricWins, Limit: 10, Lines: []domain.StatLine{{UserID: "u1", Wins: 3}}}
	require.NoError(t, PutStatBoard(ctx, store, scope, b, LeaderboardTTL))

	got, err := GetStatBoard(ctx, store, "g1", scope, domain.MetricWins, 10)
	require.NoError(t, err)
	assert.Equal(t, "dice", got.Scope)
	assert.Equal(t, int64(3), got.Lines[0].Wins)

	_, err = GetStatBoard(ctx, store, "g1", domain.ScopeAll, domain.MetricWins, 10)
	assert.ErrorIs(t, err, ErrMiss)
	_, err = GetStatBoard(ctx, store, "g1", scope, domain.MetricNet, 10)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestInvalidateGuild(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = PutBalanceBoard(ctx, store, BalanceBoard{GuildID: "g1", Limit: 10}, 0)
	_ = PutStatBoard(ctx, store, domain.ScopeAll, StatBoard{GuildID: "g1", Metric: domain.MetricNet, Limit: 10}, 0)
	_ = PutBalanceBoard(ctx, store, BalanceBoard{GuildID: "g2", Limit: 10}, 0)

	n, err := InvalidateGuild(ctx, store, "g1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = GetBalanceBoard(ctx, store, "g2", 10)
	assert.NoError(t, err)
}
