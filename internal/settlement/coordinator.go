package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/ledger"
	"github.com/jackc/pgx/v5"
)

// Coordinator applies a round's terminal outcome to the ledger.
type Coordinator struct {
	engine *ledger.Engine
	now    func() time.Time
}

// NewCoordinator creates a settlement coordinator.
func NewCoordinator(engine *ledger.Engine) *Coordinator {
	return &Coordinator{engine: engine, now: time.Now}
}

// Settle records the round, credits the payout and increments the guild
// stat, all inside tx. The stake was debited when the round started.
//
// A round id that is already recorded fails with CONFLICT before anything
// is written, so a retried settlement can never be applied twice.
func (c *Coordinator) Settle(ctx context.Context, tx pgx.Tx, s domain.Settlement) (*domain.SettlementResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	repos := c.engine.Repos()

	inserted, err := repos.Rounds.Insert(ctx, tx, s, c.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	if !inserted {
		return nil, domain.ErrConflict(fmt.Sprintf("round %s already settled", s.RoundID))
	}

	var acct *domain.Account
	if s.Payout > 0 {
		acct, err = c.engine.ExecuteAddBalance(ctx, tx, s.UserID, s.Payout)
	} else {
		acct, err = c.engine.LockAccount(ctx, tx, s.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("settle credit: %w", err)
	}

	stat, err := c.engine.ExecuteRecordResult(ctx, tx, s.StatDelta())
	if err != nil {
		return nil, fmt.Errorf("settle stat: %w", err)
	}

	if err := repos.Outbox.Insert(ctx, tx, domain.NewRoundSettledEvent(s, acct.Balance)); err != nil {
		return nil, fmt.Errorf("settle outbox: %w", err)
	}

	return &domain.SettlementResult{
		RoundID: s.RoundID,
		Balance: acct.Balance,
		Stat:    *stat,
	}, nil
}
