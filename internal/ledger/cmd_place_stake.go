package ledger

import (
	"context"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecutePlaceStake debits stake after checking it against the locked balance.
// Nothing is written when the balance is short.
func (e *Engine) ExecutePlaceStake(ctx context.Context, tx pgx.Tx, userID string, stake int64) (*domain.Account, error) {
	if err := domain.ValidateBet(stake); err != nil {
		return nil, err
	}

	acct, err := e.LockAccount(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("place stake: %w", err)
	}
	if acct.Balance < stake {
		return nil, domain.ErrInsufficientFunds(acct.Balance, stake)
	}

	updated, err := e.repos.Accounts.AddBalance(ctx, tx, userID, -stake)
	if err != nil {
		return nil, fmt.Errorf("place stake debit: %w", err)
	}
	return updated, nil
}
