package dice

import (
	"testing"

	"github.com/guildcasino/casino/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayout(t *testing.T) {
	for face := 1; face <= 6; face++ {
		want := int64(0)
		if face >= 4 {
			want = 20
		}
		assert.Equal(t, want, Payout(face, 10), "face %d", face)
	}
}

func TestRoll_FaceRange(t *testing.T) {
	src := rng.Seeded(5)
	seen := make(map[int]int)
	for i := 0; i < 6000; i++ {
		r := Roll(src, 7)
		require.GreaterOrEqual(t, r.Face, 1)
		require.LessOrEqual(t, r.Face, 6)
		assert.Equal(t, Payout(r.Face, 7), r.Payout)
		seen[r.Face]++
	}
	for face := 1; face <= 6; face++ {
		assert.InDelta(t, 1000, seen[face], 150, "face %d", face)
	}
}

func TestRoll_Fixed(t *testing.T) {
	r := Roll(rng.NewSequence(3), 5)
	assert.Equal(t, 4, r.Face)
	assert.Equal(t, int64(10), r.Payout)

	r = Roll(rng.NewSequence(2), 5)
	assert.Equal(t, 3, r.Face)
	assert.Equal(t, int64(0), r.Payout)
}
