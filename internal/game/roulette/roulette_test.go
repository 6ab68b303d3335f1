package roulette

import (
	"testing"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedSet(t *testing.T) {
	count := 0
	for n := 1; n <= 36; n++ {
		if IsRed(n) {
			count++
		}
	}
	assert.Equal(t, 18, count)
	assert.False(t, IsRed(0))
	assert.Equal(t, Green, ColorOf(0))
	assert.Equal(t, Red, ColorOf(32))
	assert.Equal(t, Black, ColorOf(2))
}

// expected recomputes the payout table independently for every pocket.
func expected(n int, sel Selection) int64 {
	if sel.Type == BetSingle {
		if *sel.Number == n {
			return 35
		}
		return 0
	}
	if n == 0 {
		return 0
	}
	red := map[int]bool{1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
		19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true}
	var ok bool
	switch sel.Type {
	case BetRed:
		ok = red[n]
	case BetBlack:
		ok = !red[n]
	case BetEven:
		ok = n%2 == 0
	case BetOdd:
		ok = n%2 != 0
	case BetLow:
		ok = n <= 18
	case BetHigh:
		ok = n >= 19
	case BetFirstDozen:
		return map[bool]int64{true: 2}[n <= 12]
	case BetSecondDozen:
		return map[bool]int64{true: 2}[n >= 13 && n <= 24]
	case BetThirdDozen:
		return map[bool]int64{true: 2}[n >= 25]
	}
	if ok {
		return 1
	}
	return 0
}

func TestPayout_FullTable(t *testing.T) {
	sels := []Selection{
		{Type: BetRed}, {Type: BetBlack}, {Type: BetEven}, {Type: BetOdd},
		{Type: BetLow}, {Type: BetHigh},
		{Type: BetFirstDozen}, {Type: BetSecondDozen}, {Type: BetThirdDozen},
	}
	for k := 0; k <= 36; k++ {
		sels = append(sels, Single(k))
	}

	const stake = int64(10)
	for n := 0; n < Pockets; n++ {
		for _, sel := range sels {
			m := expected(n, sel)
			assert.Equal(t, m, Multiplier(n, sel), "number %d sel %s", n, sel)
			want := int64(0)
			if m > 0 {
				want = stake * (m + 1)
			}
			assert.Equal(t, want, Payout(n, stake, sel), "number %d sel %s", n, sel)
		}
	}
}

func TestZeroLosesExceptSingleZero(t *testing.T) {
	for _, bt := range []BetType{BetRed, BetBlack, BetEven, BetOdd, BetLow, BetHigh, BetFirstDozen, BetSecondDozen, BetThirdDozen} {
		assert.Equal(t, int64(0), Payout(0, 10, Selection{Type: bt}), "bet %s", bt)
	}
	assert.Equal(t, int64(360), Payout(0, 10, Single(0)))
	assert.Equal(t, int64(0), Payout(0, 10, Single(1)))
}

func TestSelection_Validate(t *testing.T) {
	assert.NoError(t, DefaultSelection().Validate())
	assert.NoError(t, Single(0).Validate())
	assert.NoError(t, Single(36).Validate())

	tests := []struct {
		name string
		sel  Selection
	}{
		{"single without number", Selection{Type: BetSingle}},
		{"single too high", Single(37)},
		{"single negative", Single(-1)},
		{"unknown type", Selection{Type: "corner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sel.Validate()
			require.Error(t, err)
			assert.True(t, domain.IsCode(err, domain.CodeInvalidSelection))
		})
	}
}

func TestParseBetType(t *testing.T) {
	bt, err := ParseBetType("first-dozen")
	require.NoError(t, err)
	assert.Equal(t, BetFirstDozen, bt)

	_, err = ParseBetType("split")
	assert.Error(t, err)
}

func TestSpin(t *testing.T) {
	t.Run("fixed pocket", func(t *testing.T) {
		r, err := Spin(rng.NewSequence(19), 10, Selection{Type: BetRed})
		require.NoError(t, err)
		assert.Equal(t, 19, r.Number)
		assert.Equal(t, Red, r.Color)
		assert.Equal(t, int64(1), r.Multiplier)
		assert.Equal(t, int64(20), r.Payout)
	})

	t.Run("invalid selection draws nothing", func(t *testing.T) {
		seq := rng.NewSequence()
		_, err := Spin(seq, 10, Selection{Type: BetSingle})
		assert.Error(t, err)
	})

	t.Run("range", func(t *testing.T) {
		src := rng.Seeded(8)
		seen := make(map[int]bool)
		for i := 0; i < 3000; i++ {
			r, err := Spin(src, 1, DefaultSelection())
			require.NoError(t, err)
			require.GreaterOrEqual(t, r.Number, 0)
			require.Less(t, r.Number, Pockets)
			seen[r.Number] = true
		}
		assert.Len(t, seen, Pockets)
	})
}

func TestSelection_String(t *testing.T) {
	assert.Equal(t, "single (7)", Single(7).String())
	assert.Equal(t, "dz2", Selection{Type: BetSecondDozen}.String())
}
