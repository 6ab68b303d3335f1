package ledger

import (
	"context"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecuteClaimBonus grants the timed bonus when the cooldown has elapsed.
// The account lock serializes concurrent claims by the same user, so the
// read of the last claim and the write of the new one cannot interleave.
// A claim inside the cooldown is not an error: it returns OK=false with
// the next eligible time.
func (e *Engine) ExecuteClaimBonus(ctx context.Context, tx pgx.Tx, userID string) (domain.BonusClaim, error) {
	if _, err := e.LockAccount(ctx, tx, userID); err != nil {
		return domain.BonusClaim{}, fmt.Errorf("claim bonus: %w", err)
	}

	now := e.now().UTC()
	last, claimed, err := e.repos.Bonuses.LastClaim(ctx, tx, userID)
	if err != nil {
		return domain.BonusClaim{}, err
	}
	if claimed && now.Sub(last) < e.rules.BonusCooldown {
		return domain.BonusClaim{OK: false, NextAt: last.Add(e.rules.BonusCooldown)}, nil
	}

	if err := e.repos.Bonuses.Record(ctx, tx, userID, now); err != nil {
		return domain.BonusClaim{}, err
	}
	acct, err := e.repos.Accounts.AddBalance(ctx, tx, userID, e.rules.BonusAmount)
	if err != nil {
		return domain.BonusClaim{}, fmt.Errorf("claim bonus credit: %w", err)
	}

	claim := domain.BonusClaim{
		OK:       true,
		Credited: e.rules.BonusAmount,
		NextAt:   now.Add(e.rules.BonusCooldown),
		Balance:  acct.Balance,
	}
	if err := e.repos.Outbox.Insert(ctx, tx, domain.NewBonusClaimedEvent(userID, claim)); err != nil {
		return domain.BonusClaim{}, fmt.Errorf("claim bonus outbox: %w", err)
	}
	return claim, nil
}
