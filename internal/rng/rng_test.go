package rng

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrypto_Intn_InRange(t *testing.T) {
	src := Crypto()
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		v := src.Intn(6)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 6)
		seen[v] = true
	}
	assert.Len(t, seen, 6, "every face should appear in 2000 draws")
}

func TestCrypto_Intn_PanicsOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { Crypto().Intn(0) })
}

func TestSeeded_Deterministic(t *testing.T) {
	a, b := Seeded(42), Seeded(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestShuffle_IsPermutation(t *testing.T) {
	items := make([]int, 52)
	for i := range items {
		items[i] = i
	}
	Shuffle(Seeded(7), items)

	sorted := append([]int(nil), items...)
	sort.Ints(sorted)
	for i := range sorted {
		assert.Equal(t, i, sorted[i])
	}
}

func TestShuffle_Distribution(t *testing.T) {
	// position of element 0 after shuffling 3 items should be roughly uniform
	src := Seeded(99)
	counts := make([]int, 3)
	const rounds = 30000
	for i := 0; i < rounds; i++ {
		items := []int{0, 1, 2}
		Shuffle(src, items)
		for pos, v := range items {
			if v == 0 {
				counts[pos]++
			}
		}
	}
	for _, c := range counts {
		assert.InDelta(t, rounds/3, c, rounds*0.03)
	}
}

func TestSample_Distinct(t *testing.T) {
	src := Seeded(3)
	for i := 0; i < 200; i++ {
		got := Sample(src, 20, 5)
		require.Len(t, got, 5)
		seen := make(map[int]bool)
		for _, v := range got {
			require.GreaterOrEqual(t, v, 0)
			require.Less(t, v, 20)
			require.False(t, seen[v], "duplicate %d", v)
			seen[v] = true
		}
	}
}

func TestSample_KLargerThanN(t *testing.T) {
	assert.Len(t, Sample(Seeded(1), 3, 10), 3)
}

func TestSequence(t *testing.T) {
	s := NewSequence(4, 9, -1)
	assert.Equal(t, 4, s.Intn(6))
	assert.Equal(t, 3, s.Intn(6))
	assert.Equal(t, 5, s.Intn(6))
	assert.Panics(t, func() { s.Intn(6) })
}
