// Package roulette implements a European single-zero wheel.
package roulette

import (
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/rng"
)

// Pockets on the wheel, 0 through 36.
const Pockets = 37

var reds = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// BetType is a wager category.
type BetType string

const (
	BetRed         BetType = "red"
	BetBlack       BetType = "black"
	BetEven        BetType = "even"
	BetOdd         BetType = "odd"
	BetLow         BetType = "low"
	BetHigh        BetType = "high"
	BetFirstDozen  BetType = "dz1"
	BetSecondDozen BetType = "dz2"
	BetThirdDozen  BetType = "dz3"
	BetSingle      BetType = "single"
)

// ParseBetType accepts the short tags and a few long-form aliases.
func ParseBetType(s string) (BetType, error) {
	switch s {
	case "red", "black", "even", "odd", "low", "high", "single", "dz1", "dz2", "dz3":
		return BetType(s), nil
	case "first-dozen", "dozen1":
		return BetFirstDozen, nil
	case "second-dozen", "dozen2":
		return BetSecondDozen, nil
	case "third-dozen", "dozen3":
		return BetThirdDozen, nil
	}
	return "", domain.ErrInvalidSelection(fmt.Sprintf("unknown roulette bet %q", s))
}

// Selection is a player's standing wager category. Number is only
// meaningful for BetSingle.
type Selection struct {
	Type   BetType `json:"type"`
	Number *int    `json:"number,omitempty"`
}

// DefaultSelection is red.
func DefaultSelection() Selection {
	return Selection{Type: BetRed}
}

// Single builds a single-number selection.
func Single(n int) Selection {
	return Selection{Type: BetSingle, Number: &n}
}

// Validate rejects unknown types and a single without a number in 0–36.
func (s Selection) Validate() error {
	if _, err := ParseBetType(string(s.Type)); err != nil {
		return err
	}
	if s.Type != BetSingle {
		return nil
	}
	if s.Number == nil {
		return domain.ErrInvalidSelection("choose a number (0-36) first")
	}
	if *s.Number < 0 || *s.Number > 36 {
		return domain.ErrInvalidSelection(fmt.Sprintf("number must be 0-36, got %d", *s.Number))
	}
	return nil
}

func (s Selection) String() string {
	if s.Type == BetSingle && s.Number != nil {
		return fmt.Sprintf("single (%d)", *s.Number)
	}
	return string(s.Type)
}

// Color of a pocket.
type Color string

const (
	Green Color = "green"
	Red   Color = "red"
	Black Color = "black"
)

// IsRed reports membership in the European red set.
func IsRed(n int) bool {
	return reds[n]
}

// ColorOf returns green for zero, red or black otherwise.
func ColorOf(n int) Color {
	switch {
	case n == 0:
		return Green
	case IsRed(n):
		return Red
	default:
		return Black
	}
}

// Multiplier returns the winnings multiple (stake excluded) for number
// under sel, or 0 when the selection loses.
func Multiplier(n int, sel Selection) int64 {
	if sel.Type == BetSingle {
		if sel.Number != nil && *sel.Number == n {
			return 35
		}
		return 0
	}
	if n == 0 {
		return 0
	}

	hit := false
	mult := int64(1)
	switch sel.Type {
	case BetRed:
		hit = IsRed(n)
	case BetBlack:
		hit = !IsRed(n)
	case BetEven:
		hit = n%2 == 0
	case BetOdd:
		hit = n%2 == 1
	case BetLow:
		hit = n >= 1 && n <= 18
	case BetHigh:
		hit = n >= 19 && n <= 36
	case BetFirstDozen:
		hit, mult = n >= 1 && n <= 12, 2
	case BetSecondDozen:
		hit, mult = n >= 13 && n <= 24, 2
	case BetThirdDozen:
		hit, mult = n >= 25 && n <= 36, 2
	}
	if !hit {
		return 0
	}
	return mult
}

// Payout returns stake×(multiplier+1) on a win and 0 otherwise.
func Payout(n int, stake int64, sel Selection) int64 {
	m := Multiplier(n, sel)
	if m == 0 {
		return 0
	}
	return stake * (m + 1)
}

// Result is one spin.
type Result struct {
	Number     int       `json:"number"`
	Color      Color     `json:"color"`
	Selection  Selection `json:"selection"`
	Multiplier int64     `json:"multiplier"`
	Payout     int64     `json:"payout"`
}

// Spin validates sel, draws a pocket and prices it.
func Spin(src rng.Source, stake int64, sel Selection) (Result, error) {
	if err := sel.Validate(); err != nil {
		return Result{}, err
	}
	n := src.Intn(Pockets)
	return Result{
		Number:     n,
		Color:      ColorOf(n),
		Selection:  sel,
		Multiplier: Multiplier(n, sel),
		Payout:     Payout(n, stake, sel),
	}, nil
}
