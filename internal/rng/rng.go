// Package rng provides the uniform draws and shuffles used by the game engines.
package rng

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"sync"
)

// Source is the randomness provider for every game. Implementations must be
// safe for concurrent use.
type Source interface {
	// Intn returns a uniform int in [0, n). n must be positive.
	Intn(n int) int
}

type cryptoSource struct{}

// Crypto returns a Source backed by crypto/rand.
func Crypto() Source {
	return cryptoSource{}
}

func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("rng: Intn called with n=%d", n))
	}
	r, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("rng: crypto/rand: %v", err))
	}
	return int(r.Int64())
}

type seededSource struct {
	mu sync.Mutex
	r  *mrand.Rand
}

// Seeded returns a deterministic Source for reproducible tests and replays.
func Seeded(seed uint64) Source {
	return &seededSource{r: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("rng: Intn called with n=%d", n))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Shuffle permutes items in place with a Fisher–Yates pass.
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Sample draws k distinct values from [0, n) without replacement.
func Sample(src Source, n, k int) []int {
	if k > n {
		k = n
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	// partial Fisher–Yates over the tail
	for i := n - 1; i >= n-k; i-- {
		j := src.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[n-k:]
}

// Sequence replays fixed draws in order; each value is reduced mod n.
// It panics when exhausted.
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequence returns a Source that yields values in order.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.values) {
		panic("rng: sequence exhausted")
	}
	v := s.values[s.next]
	s.next++
	return ((v % n) + n) % n
}
