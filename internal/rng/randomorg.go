package rng

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guildcasino/casino/internal/guard"
)

const (
	randomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"
	randomOrgBreaker  = "random.org"
	// draws are fetched in [0, randomOrgSpan) and reduced per call
	randomOrgSpan     = 1 << 20
	randomOrgBatch    = 256
	randomOrgLowWater = 64
)

// RandomOrg is a Source fed by batches of true random integers from
// RANDOM.ORG. Draws never wait on the network: the buffer is refilled in
// the background, and while it is empty, the key is unset or the circuit
// is open, draws come from the fallback Source.
type RandomOrg struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	fallback Source
	breaker  *guard.CircuitBreaker

	mu  sync.Mutex
	buf []int

	refilling atomic.Bool
	inflight  sync.WaitGroup
}

// NewRandomOrg creates a RANDOM.ORG source that falls back to Crypto. One
// failed fetch opens the circuit for 30s.
func NewRandomOrg(apiKey string, logger *slog.Logger) *RandomOrg {
	return &RandomOrg{
		apiKey:   apiKey,
		endpoint: randomOrgEndpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
		fallback: Crypto(),
		breaker:  guard.NewCircuitBreaker(1, 30*time.Second),
	}
}

// WithEndpoint points the client at another JSON-RPC URL.
func (r *RandomOrg) WithEndpoint(url string) *RandomOrg {
	r.endpoint = url
	return r
}

// WithBreaker replaces the circuit breaker guarding the API.
func (r *RandomOrg) WithBreaker(cb *guard.CircuitBreaker) *RandomOrg {
	r.breaker = cb
	return r
}

// Prime fills the buffer synchronously, for use at startup.
func (r *RandomOrg) Prime(ctx context.Context) error {
	if r.apiKey == "" {
		return fmt.Errorf("random.org api key not set")
	}
	if res := r.breaker.Check(ctx, randomOrgBreaker); !res.Allowed {
		return fmt.Errorf("random.org: %s", res.Reason)
	}
	return r.load(ctx)
}

// Wait blocks until a background refill in flight has finished.
func (r *RandomOrg) Wait() {
	r.inflight.Wait()
}

func (r *RandomOrg) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("rng: Intn called with n=%d", n))
	}
	if n > randomOrgSpan {
		return r.fallback.Intn(n)
	}
	limit := (randomOrgSpan / n) * n

	r.mu.Lock()
	v, ok := -1, false
	for len(r.buf) > 0 && !ok {
		v, r.buf = r.buf[0], r.buf[1:]
		ok = v >= 0 && v < limit
	}
	low := len(r.buf) < randomOrgLowWater
	r.mu.Unlock()

	if low {
		r.refill()
	}
	if !ok {
		return r.fallback.Intn(n)
	}
	return v % n
}

// refill starts one background fetch unless one is running or the circuit
// is open.
func (r *RandomOrg) refill() {
	if r.apiKey == "" || !r.refilling.CompareAndSwap(false, true) {
		return
	}
	if !r.breaker.Check(context.Background(), randomOrgBreaker).Allowed {
		r.refilling.Store(false)
		return
	}

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer r.refilling.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), r.client.Timeout)
		defer cancel()
		if err := r.load(ctx); err != nil {
			r.logger.Warn("random.org unavailable, drawing from CSPRNG", "error", err)
		}
	}()
}

// load fetches one batch, records the outcome on the breaker and appends
// the draws to the buffer.
func (r *RandomOrg) load(ctx context.Context) error {
	data, err := r.fetch(ctx, randomOrgBatch)
	if err != nil {
		r.breaker.RecordFailure(randomOrgBreaker)
		return err
	}
	r.breaker.RecordSuccess(randomOrgBreaker)

	r.mu.Lock()
	r.buf = append(r.buf, data...)
	r.mu.Unlock()
	return nil
}

func (r *RandomOrg) fetch(ctx context.Context, n int) ([]int, error) {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey":      r.apiKey,
			"n":           n,
			"min":         0,
			"max":         randomOrgSpan - 1,
			"replacement": true,
		},
		"id": 1,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var out struct {
		Result struct {
			Random struct {
				Data []int `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("api error: %s", out.Error.Message)
	}
	if len(out.Result.Random.Data) == 0 {
		return nil, fmt.Errorf("api returned no data")
	}
	return out.Result.Random.Data, nil
}
