package ledger

import (
	"context"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecuteAddBalance applies a signed delta with no floor check.
func (e *Engine) ExecuteAddBalance(ctx context.Context, tx pgx.Tx, userID string, delta int64) (*domain.Account, error) {
	if _, err := e.LockAccount(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("add balance: %w", err)
	}
	acct, err := e.repos.Accounts.AddBalance(ctx, tx, userID, delta)
	if err != nil {
		return nil, fmt.Errorf("add balance update: %w", err)
	}
	return acct, nil
}

// ExecuteGrant is an operator credit or debit. It records a wallet.granted event.
func (e *Engine) ExecuteGrant(ctx context.Context, tx pgx.Tx, userID string, delta int64) (*domain.Account, error) {
	if delta == 0 {
		return nil, domain.ErrInvalidSelection("grant amount must not be zero")
	}
	acct, err := e.ExecuteAddBalance(ctx, tx, userID, delta)
	if err != nil {
		return nil, err
	}
	if err := e.repos.Outbox.Insert(ctx, tx, domain.NewGrantEvent(userID, delta, acct.Balance)); err != nil {
		return nil, fmt.Errorf("grant outbox: %w", err)
	}
	return acct, nil
}

// ExecuteSetBalance overwrites the balance and records the difference as a grant.
func (e *Engine) ExecuteSetBalance(ctx context.Context, tx pgx.Tx, userID string, balance int64) (*domain.Account, error) {
	if balance < 0 {
		return nil, domain.ErrInvalidSelection("balance must not be negative")
	}
	before, err := e.LockAccount(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("set balance: %w", err)
	}
	acct, err := e.repos.Accounts.SetBalance(ctx, tx, userID, balance)
	if err != nil {
		return nil, fmt.Errorf("set balance update: %w", err)
	}
	if delta := balance - before.Balance; delta != 0 {
		if err := e.repos.Outbox.Insert(ctx, tx, domain.NewGrantEvent(userID, delta, acct.Balance)); err != nil {
			return nil, fmt.Errorf("set balance outbox: %w", err)
		}
	}
	return acct, nil
}
