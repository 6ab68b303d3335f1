package domain

import (
	"fmt"
	"time"
)

// GameKind enumerates the games offered by the casino.
type GameKind string

const (
	KindSlots     GameKind = "slots"
	KindDice      GameKind = "dice"
	KindRoulette  GameKind = "roulette"
	KindBlackjack GameKind = "blackjack"
	KindMines     GameKind = "mines"
)

// AllGameKinds returns every game kind in a fixed order.
func AllGameKinds() []GameKind {
	return []GameKind{KindSlots, KindDice, KindRoulette, KindBlackjack, KindMines}
}

// Valid reports whether k is one of the known game kinds.
func (k GameKind) Valid() bool {
	switch k {
	case KindSlots, KindDice, KindRoulette, KindBlackjack, KindMines:
		return true
	}
	return false
}

// Stateful reports whether rounds of k span several calls.
func (k GameKind) Stateful() bool {
	switch k {
	case KindBlackjack, KindMines:
		return true
	case KindSlots, KindDice, KindRoulette:
		return false
	}
	return false
}

// ParseGameKind converts a tag such as "mines" into a GameKind.
func ParseGameKind(s string) (GameKind, error) {
	k := GameKind(s)
	if !k.Valid() {
		return "", ErrInvalidSelection(fmt.Sprintf("unknown game %q", s))
	}
	return k, nil
}

// ResultKind is the settled outcome of a round.
type ResultKind string

const (
	ResultWin  ResultKind = "win"
	ResultLoss ResultKind = "loss"
	ResultPush ResultKind = "push"
)

// Valid reports whether r is win, loss or push.
func (r ResultKind) Valid() bool {
	return r == ResultWin || r == ResultLoss || r == ResultPush
}

// ResultFromNet derives the result from the sign of a round's net.
func ResultFromNet(net int64) ResultKind {
	switch {
	case net > 0:
		return ResultWin
	case net < 0:
		return ResultLoss
	default:
		return ResultPush
	}
}

// Player identifies who is acting and in which guild the round is recorded.
type Player struct {
	GuildID string
	UserID  string
}

// Validate checks that both identities are present.
func (p Player) Validate() error {
	if err := ValidateIdentity("user", p.UserID); err != nil {
		return err
	}
	return ValidateIdentity("guild", p.GuildID)
}

// Bet bounds.
const (
	MinBet int64 = 1
	MaxBet int64 = 100000
)

// HouseRules holds the economy constants of the casino.
type HouseRules struct {
	StartingBalance int64
	DefaultBets     map[GameKind]int64
	BonusAmount     int64
	BonusCooldown   time.Duration
}

// DefaultHouseRules returns the stock economy: 200 starting credits and a
// 50 credit bonus every 4 hours.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		StartingBalance: 200,
		DefaultBets: map[GameKind]int64{
			KindSlots:     5,
			KindDice:      5,
			KindRoulette:  10,
			KindBlackjack: 10,
			KindMines:     10,
		},
		BonusAmount:   50,
		BonusCooldown: 4 * time.Hour,
	}
}

// DefaultBet returns the remembered-bet default for kind.
func (r HouseRules) DefaultBet(kind GameKind) int64 {
	if amt, ok := r.DefaultBets[kind]; ok {
		return amt
	}
	return MinBet
}

// ValidateBet rejects stakes outside [MinBet, MaxBet].
func ValidateBet(amount int64) error {
	if amount < MinBet || amount > MaxBet {
		return ErrInvalidSelection(fmt.Sprintf("bet must be a whole number between %d and %d", MinBet, MaxBet))
	}
	return nil
}

// ClampBet forces amount into [MinBet, MaxBet].
func ClampBet(amount int64) int64 {
	return min(max(amount, MinBet), MaxBet)
}
