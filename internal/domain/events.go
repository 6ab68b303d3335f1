package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RoundSettledPayload is the body of a casino.round.settled event.
type RoundSettledPayload struct {
	RoundID uuid.UUID  `json:"round_id"`
	GuildID string     `json:"guild_id"`
	UserID  string     `json:"user_id"`
	Game    GameKind   `json:"game"`
	Stake   int64      `json:"stake"`
	Payout  int64      `json:"payout"`
	Net     int64      `json:"net"`
	Result  ResultKind `json:"result"`
	Balance int64      `json:"balance"`
}

// NewRoundSettledEvent creates the event written alongside a settlement.
func NewRoundSettledEvent(s Settlement, balance int64) OutboxDraft {
	payload, _ := json.Marshal(RoundSettledPayload{
		RoundID: s.RoundID,
		GuildID: s.GuildID,
		UserID:  s.UserID,
		Game:    s.Kind,
		Stake:   s.Stake,
		Payout:  s.Payout,
		Net:     s.Net(),
		Result:  s.Result,
		Balance: balance,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateRound,
		AggregateID:   s.RoundID.String(),
		EventType:     EventRoundSettled,
		PartitionKey:  s.GuildID,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewTransferEvent records a give between two users.
func NewTransferEvent(t TransferResult) OutboxDraft {
	payload, _ := json.Marshal(t)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateWallet,
		AggregateID:   t.FromUserID,
		EventType:     EventWalletTransferred,
		PartitionKey:  t.FromUserID,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewGrantEvent records an operator balance change.
func NewGrantEvent(userID string, delta, balance int64) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id": userID,
		"delta":   delta,
		"balance": balance,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateWallet,
		AggregateID:   userID,
		EventType:     EventWalletGranted,
		PartitionKey:  userID,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewBonusClaimedEvent records a successful timed bonus.
func NewBonusClaimedEvent(userID string, claim BonusClaim) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":  userID,
		"credited": claim.Credited,
		"next_at":  claim.NextAt,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateBonus,
		AggregateID:   userID,
		EventType:     EventBonusClaimed,
		PartitionKey:  userID,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
