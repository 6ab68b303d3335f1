package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func start(t *testing.T, r *Registry[*counter], key string) *counter {
	t.Helper()
	c, err := r.Start(key, func() (*counter, bool, error) { return &counter{}, true, nil })
	require.NoError(t, err)
	return c
}

func TestRegistry_StartRejectsSecondLiveSession(t *testing.T) {
	r := NewRegistry[*counter]("mines")
	start(t, r, "u1")

	called := false
	_, err := r.Start("u1", func() (*counter, bool, error) {
		called = true
		return &counter{}, true, nil
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeIllegalState))
	assert.False(t, called, "create must not run while a session is live")

	start(t, r, "u2")
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_StartNotKept(t *testing.T) {
	r := NewRegistry[*counter]("blackjack")
	c, err := r.Start("u1", func() (*counter, bool, error) { return &counter{n: 21}, false, nil })
	require.NoError(t, err)
	assert.Equal(t, 21, c.n)
	assert.Equal(t, 0, r.Len())

	start(t, r, "u1")
}

func TestRegistry_StartError(t *testing.T) {
	r := NewRegistry[*counter]("blackjack")
	boom := errors.New("insufficient")
	_, err := r.Start("u1", func() (*counter, bool, error) { return nil, true, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Do(t *testing.T) {
	r := NewRegistry[*counter]("mines")

	err := r.Do("u1", func(*counter) (bool, error) { return false, nil })
	require.Error(t, err)
	assert.Equal(t, "ILLEGAL_STATE: no active mines game", err.Error())

	start(t, r, "u1")
	require.NoError(t, r.Do("u1", func(c *counter) (bool, error) {
		c.n++
		return false, nil
	}))

	var seen int
	assert.True(t, r.Peek("u1", func(c *counter) { seen = c.n }))
	assert.Equal(t, 1, seen)

	t.Run("error keeps session unless done", func(t *testing.T) {
		boom := errors.New("settle failed")
		err := r.Do("u1", func(*counter) (bool, error) { return false, boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("done removes", func(t *testing.T) {
		require.NoError(t, r.Do("u1", func(*counter) (bool, error) { return true, nil }))
		assert.Equal(t, 0, r.Len())
		assert.False(t, r.Peek("u1", func(*counter) {}))
	})
}

func TestRegistry_ConcurrentDoIsSerialized(t *testing.T) {
	r := NewRegistry[*counter]("mines")
	c := start(t, r, "u1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Do("u1", func(c *counter) (bool, error) {
				c.n++
				return false, nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.n)
}

func TestRegistry_ConcurrentStartOnlyOneWins(t *testing.T) {
	r := NewRegistry[*counter]("blackjack")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Start("u1", func() (*counter, bool, error) { return &counter{}, true, nil })
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry[*counter]("mines")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	start(t, r, "old")
	start(t, r, "stuck")
	now = now.Add(20 * time.Minute)
	start(t, r, "fresh")
	now = now.Add(5 * time.Minute)

	var resolved []string
	n := r.Sweep(15*time.Minute, func(key string, _ *counter) error {
		resolved = append(resolved, key)
		if key == "stuck" {
			return errors.New("db down")
		}
		return nil
	})

	assert.Equal(t, 1, n)
	assert.ElementsMatch(t, []string{"old", "stuck"}, resolved)
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Peek("stuck", func(*counter) {}))
	assert.True(t, r.Peek("fresh", func(*counter) {}))
}

func TestNewSweeper(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	noop := func(context.Context) (int, error) { return 0, nil }

	_, err := NewSweeper("@every 1m", noop, logger)
	assert.NoError(t, err)
	_, err = NewSweeper("*/5 * * * *", noop, logger)
	assert.NoError(t, err)
	_, err = NewSweeper("whenever", noop, logger)
	assert.Error(t, err)
}

func TestSweeper_RunsOnSchedule(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ran := make(chan struct{}, 1)
	sweep := func(context.Context) (int, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return 1, nil
	}

	s, err := NewSweeper("@every 1s", sweep, logger)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}
}
