package ledger

import (
	"context"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecuteTransfer moves amount between two accounts as a paired debit and
// credit. Both rows are locked in user id order so two opposite transfers
// cannot deadlock.
func (e *Engine) ExecuteTransfer(ctx context.Context, tx pgx.Tx, fromID, toID string, amount int64) (*domain.TransferResult, error) {
	if err := domain.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, domain.ErrInvalidSelection("cannot give credits to yourself")
	}

	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	locked := make(map[string]*domain.Account, 2)
	for _, id := range []string{first, second} {
		acct, err := e.LockAccount(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("transfer: %w", err)
		}
		locked[id] = acct
	}

	if bal := locked[fromID].Balance; bal < amount {
		return nil, domain.ErrInsufficientFunds(bal, amount)
	}

	from, err := e.repos.Accounts.AddBalance(ctx, tx, fromID, -amount)
	if err != nil {
		return nil, fmt.Errorf("transfer debit: %w", err)
	}
	to, err := e.repos.Accounts.AddBalance(ctx, tx, toID, amount)
	if err != nil {
		return nil, fmt.Errorf("transfer credit: %w", err)
	}

	result := &domain.TransferResult{
		FromUserID:  fromID,
		ToUserID:    toID,
		Amount:      amount,
		FromBalance: from.Balance,
		ToBalance:   to.Balance,
	}
	if err := e.repos.Outbox.Insert(ctx, tx, domain.NewTransferEvent(*result)); err != nil {
		return nil, fmt.Errorf("transfer outbox: %w", err)
	}
	return result, nil
}
