package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventRoundSettled      EventType = "casino.round.settled"
	EventWalletTransferred EventType = "casino.wallet.transferred"
	EventWalletGranted     EventType = "casino.wallet.granted"
	EventBonusClaimed      EventType = "casino.bonus.claimed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateRound  AggregateType = "round"
	AggregateWallet AggregateType = "wallet"
	AggregateBonus  AggregateType = "bonus"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	SeqID         int64           `json:"-"`
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Topic is the Kafka topic the event is relayed to.
func (d OutboxDraft) Topic() string {
	return string(d.EventType)
}

// GuardResult is the outcome of a guard check.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}
