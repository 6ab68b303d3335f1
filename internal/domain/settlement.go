package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Settlement describes the terminal outcome of one round. The stake has
// already been debited when the round started; Payout is the amount
// returned to the player (stake included), so Net is Payout - Stake.
type Settlement struct {
	RoundID uuid.UUID
	GuildID string
	UserID  string
	Kind    GameKind
	Stake   int64
	Payout  int64
	Result  ResultKind
}

// Net is the signed credit change of the round.
func (s Settlement) Net() int64 {
	return s.Payout - s.Stake
}

// Validate checks the settlement is internally consistent.
func (s Settlement) Validate() error {
	if s.RoundID == uuid.Nil {
		return ErrInvalidSelection("round id is required")
	}
	if err := (Player{GuildID: s.GuildID, UserID: s.UserID}).Validate(); err != nil {
		return err
	}
	if !s.Kind.Valid() {
		return ErrInvalidSelection(fmt.Sprintf("unknown game %q", s.Kind))
	}
	if !s.Result.Valid() {
		return ErrInvalidSelection(fmt.Sprintf("unknown result %q", s.Result))
	}
	if s.Stake <= 0 {
		return ErrInvalidSelection(fmt.Sprintf("stake must be positive, got %d", s.Stake))
	}
	if s.Payout < 0 {
		return ErrInvalidSelection(fmt.Sprintf("payout must not be negative, got %d", s.Payout))
	}
	switch s.Result {
	case ResultWin:
		if s.Net() <= 0 {
			return ErrInvalidSelection("win requires positive net")
		}
	case ResultLoss:
		if s.Net() > 0 {
			return ErrInvalidSelection("loss cannot have positive net")
		}
	case ResultPush:
		if s.Net() != 0 {
			return ErrInvalidSelection("push requires zero net")
		}
	}
	return nil
}

// StatDelta returns the GuildStat increment for the settlement.
func (s Settlement) StatDelta() StatDelta {
	return StatDelta{
		GuildID: s.GuildID,
		UserID:  s.UserID,
		Kind:    s.Kind,
		Result:  s.Result,
		Net:     s.Net(),
	}
}

// SettlementResult is the ledger state after a settlement commits.
type SettlementResult struct {
	RoundID uuid.UUID `json:"round_id"`
	Balance int64     `json:"balance"`
	Stat    GuildStat `json:"stat"`
}
