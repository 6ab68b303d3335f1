package rng

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guildcasino/casino/internal/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDraws(w http.ResponseWriter, data []int) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"result": map[string]any{"random": map[string]any{"data": data}},
	})
}

func randomOrgServer(t *testing.T, calls *atomic.Int32, data ...int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Method string `json:"method"`
			Params struct {
				APIKey string `json:"apiKey"`
				Max    int    `json:"max"`
			} `json:"params"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "generateIntegers", req.Method)
		assert.Equal(t, "key", req.Params.APIKey)
		assert.Equal(t, randomOrgSpan-1, req.Params.Max)
		writeDraws(w, data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func unavailableServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRandomOrg_DrawsFromBatch(t *testing.T) {
	var calls atomic.Int32
	srv := randomOrgServer(t, &calls, 3, 10, 5)
	src := NewRandomOrg("key", quietLogger()).WithEndpoint(srv.URL)
	defer src.Wait()

	require.NoError(t, src.Prime(context.Background()))
	assert.Equal(t, 3, src.Intn(6))
	assert.Equal(t, 4, src.Intn(6))
	assert.Equal(t, 1, src.Intn(2))
}

func TestRandomOrg_RejectsBiasedTail(t *testing.T) {
	var calls atomic.Int32
	// 1048575 lies above the largest multiple of 6 below the span
	srv := randomOrgServer(t, &calls, randomOrgSpan-1, 7)
	src := NewRandomOrg("key", quietLogger()).WithEndpoint(srv.URL)
	defer src.Wait()

	require.NoError(t, src.Prime(context.Background()))
	assert.Equal(t, 1, src.Intn(6))
}

func TestRandomOrg_OutageDoesNotStallDraws(t *testing.T) {
	t.Run("after a failed prime", func(t *testing.T) {
		var calls atomic.Int32
		srv := unavailableServer(t, &calls)
		src := NewRandomOrg("key", quietLogger()).WithEndpoint(srv.URL)

		require.Error(t, src.Prime(context.Background()))

		start := time.Now()
		Shuffle(src, make([]int, 52))
		src.Wait()

		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, int32(1), calls.Load(), "open circuit must stop further fetches")
		assert.Equal(t, guard.CircuitOpen, src.breaker.State(randomOrgBreaker))
	})

	t.Run("cold buffer", func(t *testing.T) {
		var calls atomic.Int32
		srv := unavailableServer(t, &calls)
		src := NewRandomOrg("key", quietLogger()).WithEndpoint(srv.URL)

		start := time.Now()
		Shuffle(src, make([]int, 52))
		assert.Less(t, time.Since(start), 40*time.Millisecond, "draws must not wait on the refill")

		src.Wait()
		Shuffle(src, make([]int, 52))
		src.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestRandomOrg_SlowAPIDoesNotBlockDraws(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeDraws(w, []int{1})
	}))
	defer srv.Close()

	src := NewRandomOrg("key", quietLogger()).WithEndpoint(srv.URL)
	src.fallback = NewSequence(1, 2, 3)

	start := time.Now()
	assert.Equal(t, 1, src.Intn(6))
	assert.Equal(t, 2, src.Intn(6))
	assert.Equal(t, 3, src.Intn(6))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(release)
	src.Wait()
}

func TestRandomOrg_RecoversAfterReset(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeDraws(w, []int{5, 5, 5})
	}))
	defer srv.Close()

	src := NewRandomOrg("key", quietLogger()).
		WithEndpoint(srv.URL).
		WithBreaker(guard.NewCircuitBreaker(1, 10*time.Millisecond))
	src.fallback = NewSequence(0, 0)

	require.Error(t, src.Prime(context.Background()))
	healthy.Store(true)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, src.Intn(6), "empty buffer draws from the fallback")
	src.Wait()
	assert.Equal(t, 5, src.Intn(6), "half-open refill succeeded")
	src.Wait()
	assert.Equal(t, guard.CircuitClosed, src.breaker.State(randomOrgBreaker))
}

func TestRandomOrg_FallsBack(t *testing.T) {
	t.Run("no api key", func(t *testing.T) {
		src := NewRandomOrg("", quietLogger())
		src.fallback = NewSequence(4)
		assert.Error(t, src.Prime(context.Background()))
		assert.Equal(t, 4, src.Intn(6))
	})

	t.Run("rpc error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
		}))
		defer srv.Close()

		src := NewRandomOrg("key", quietLogger()).WithEndpoint(srv.URL)
		src.fallback = NewSequence(5)
		err := src.Prime(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
		assert.Equal(t, 5, src.Intn(6))
	})
}

func TestRandomOrg_PanicsOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { NewRandomOrg("", quietLogger()).Intn(0) })
}
