// Package slots implements the three-reel slot machine.
package slots

import "github.com/guildcasino/casino/internal/rng"

// Symbol is one reel face.
type Symbol string

// Symbols is the reel alphabet. The last entry is the top symbol.
var Symbols = []Symbol{"🍒", "🍋", "🍇", "🍉", "🔔", "⭐", "7️⃣"}

// Top pays the jackpot on a triple.
const Top Symbol = "7️⃣"

// Fixed payouts, independent of the stake.
const (
	PayoutJackpot int64 = 100
	PayoutTriple  int64 = 30
	PayoutPair    int64 = 10
)

// Result is one spin.
type Result struct {
	Reels  [3]Symbol `json:"reels"`
	Payout int64     `json:"payout"`
}

// Spin draws three independent symbols and prices the frame.
func Spin(src rng.Source) Result {
	var reels [3]Symbol
	for i := range reels {
		reels[i] = Symbols[src.Intn(len(Symbols))]
	}
	return Result{Reels: reels, Payout: Payout(reels)}
}

// Payout prices a frame: triple top 100, other triple 30, any pair 10, else 0.
func Payout(r [3]Symbol) int64 {
	a, b, c := r[0], r[1], r[2]
	switch {
	case a == b && b == c:
		if a == Top {
			return PayoutJackpot
		}
		return PayoutTriple
	case a == b || a == c || b == c:
		return PayoutPair
	}
	return 0
}
