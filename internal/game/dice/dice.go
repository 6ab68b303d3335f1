// Package dice implements the single-die high roll.
package dice

import "github.com/guildcasino/casino/internal/rng"

// WinningFace is the lowest face that pays.
const WinningFace = 4

// Result is one roll.
type Result struct {
	Face   int   `json:"face"`
	Payout int64 `json:"payout"`
}

// Roll draws a face in 1..6 and prices it against stake.
func Roll(src rng.Source, stake int64) Result {
	face := src.Intn(6) + 1
	return Result{Face: face, Payout: Payout(face, stake)}
}

// Payout returns 2×stake on 4, 5 or 6 and nothing otherwise.
func Payout(face int, stake int64) int64 {
	if face >= WinningFace {
		return 2 * stake
	}
	return 0
}
