package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/repository"
	"github.com/jackc/pgx/v5"
)

// Repositories groups the stores the engine writes through.
type Repositories struct {
	Accounts repository.AccountRepository
	Bets     repository.BetRepository
	Stats    repository.StatRepository
	Bonuses  repository.BonusRepository
	Rounds   repository.RoundRepository
	Outbox   repository.OutboxRepository
}

// PostgresRepositories returns the pgx-backed repository set.
func PostgresRepositories() Repositories {
	return Repositories{
		Accounts: repository.NewAccountRepository(),
		Bets:     repository.NewBetRepository(),
		Stats:    repository.NewStatRepository(),
		Bonuses:  repository.NewBonusRepository(),
		Rounds:   repository.NewRoundRepository(),
		Outbox:   repository.NewOutboxRepository(),
	}
}

// Engine provides the foundational ledger operations. Every Execute*
// command runs inside the caller's transaction and never commits.
//
// Balance changes always follow the same order:
//  1. LockAccount — create on first reference, then row-level lock
//  2. check the precondition against the locked row
//  3. server-side arithmetic update (balance = balance + delta)
//  4. outbox event in the same transaction
type Engine struct {
	repos Repositories
	rules domain.HouseRules
	now   func() time.Time
}

// NewEngine creates a ledger engine with the given repositories and economy.
func NewEngine(repos Repositories, rules domain.HouseRules) *Engine {
	return &Engine{repos: repos, rules: rules, now: time.Now}
}

// Rules returns the economy the engine applies.
func (e *Engine) Rules() domain.HouseRules { return e.rules }

// Repos exposes the underlying repositories for read paths.
func (e *Engine) Repos() Repositories { return e.repos }

// LockAccount creates the account with the starting balance if needed and
// acquires a row-level lock on it. Must be called within a transaction.
func (e *Engine) LockAccount(ctx context.Context, tx pgx.Tx, userID string) (*domain.Account, error) {
	if err := e.repos.Accounts.Ensure(ctx, tx, userID, e.rules.StartingBalance); err != nil {
		return nil, err
	}
	acct, err := e.repos.Accounts.LockForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if acct == nil {
		return nil, domain.ErrNotFound("account", userID)
	}
	return acct, nil
}

// ReadBalance returns the balance, or the starting balance for unseen users
// without creating them.
func (e *Engine) ReadBalance(ctx context.Context, db repository.DBTX, userID string) (int64, error) {
	acct, err := e.repos.Accounts.Find(ctx, db, userID)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return e.rules.StartingBalance, nil
	}
	return acct.Balance, nil
}

// ReadBet returns the remembered bet, or the kind's default when none is stored.
func (e *Engine) ReadBet(ctx context.Context, db repository.DBTX, userID string, kind domain.GameKind) (int64, error) {
	amount, ok, err := e.repos.Bets.Get(ctx, db, userID, kind)
	if err != nil {
		return 0, err
	}
	if !ok {
		return e.rules.DefaultBet(kind), nil
	}
	return amount, nil
}

// WriteBet stores a clamped bet preference.
func (e *Engine) WriteBet(ctx context.Context, db repository.DBTX, userID string, kind domain.GameKind, amount int64) (int64, error) {
	return e.repos.Bets.Set(ctx, db, userID, kind, amount)
}
