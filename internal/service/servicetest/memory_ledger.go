// Package servicetest provides an in-memory Ledger for tests of the casino
// and HTTP layers.
package servicetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/ledger"
	"github.com/guildcasino/casino/internal/repository/memory"
	"github.com/guildcasino/casino/internal/settlement"
)

// MemoryLedger implements service.Ledger with the ledger commands over the
// in-memory repositories. Calls are serialized and nothing is durable.
type MemoryLedger struct {
	mu          sync.Mutex
	store       *memory.Store
	engine      *ledger.Engine
	coordinator *settlement.Coordinator
}

// NewMemoryLedger wires a ledger engine to store.
func NewMemoryLedger(store *memory.Store, rules domain.HouseRules) *MemoryLedger {
	engine := ledger.NewEngine(ledger.Repositories{
		Accounts: store.Accounts(),
		Bets:     store.Bets(),
		Stats:    store.Stats(),
		Bonuses:  store.Bonuses(),
		Rounds:   store.Rounds(),
		Outbox:   store.Outbox(),
	}, rules)
	return &MemoryLedger{
		store:       store,
		engine:      engine,
		coordinator: settlement.NewCoordinator(engine),
	}
}

// Store returns the backing repositories.
func (l *MemoryLedger) Store() *memory.Store { return l.store }

func (l *MemoryLedger) Balance(ctx context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, err := l.engine.ReadBalance(ctx, nil, userID)
	if err != nil {
		return 0, wrapErr("balance", err)
	}
	return bal, nil
}

func (l *MemoryLedger) SetBalance(ctx context.Context, userID string, balance int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, err := l.engine.ExecuteSetBalance(ctx, nil, userID, balance)
	if err != nil {
		return 0, wrapErr("set balance", err)
	}
	return acct.Balance, nil
}

func (l *MemoryLedger) AddBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, err := l.engine.ExecuteGrant(ctx, nil, userID, delta)
	if err != nil {
		return 0, wrapErr("add balance", err)
	}
	return acct.Balance, nil
}

func (l *MemoryLedger) PlaceStake(ctx context.Context, userID string, stake int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, err := l.engine.ExecutePlaceStake(ctx, nil, userID, stake)
	if err != nil {
		return 0, wrapErr("place stake", err)
	}
	return acct.Balance, nil
}

func (l *MemoryLedger) Bet(ctx context.Context, userID string, kind domain.GameKind) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	amt, err := l.engine.ReadBet(ctx, nil, userID, kind)
	if err != nil {
		return 0, wrapErr("get bet", err)
	}
	return amt, nil
}

func (l *MemoryLedger) SetBet(ctx context.Context, userID string, kind domain.GameKind, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored, err := l.engine.WriteBet(ctx, nil, userID, kind, amount)
	if err != nil {
		return 0, wrapErr("set bet", err)
	}
	return stored, nil
}

func (l *MemoryLedger) LastBonus(ctx context.Context, userID string) (time.Time, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Repos().Bonuses.LastClaim(ctx, nil, userID)
}

func (l *MemoryLedger) ClaimBonus(ctx context.Context, userID string) (domain.BonusClaim, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	claim, err := l.engine.ExecuteClaimBonus(ctx, nil, userID)
	if err != nil {
		return domain.BonusClaim{}, wrapErr("claim bonus", err)
	}
	return claim, nil
}

func (l *MemoryLedger) Settle(ctx context.Context, st domain.Settlement) (*domain.SettlementResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	res, err := l.coordinator.Settle(ctx, nil, st)
	if err != nil {
		return nil, wrapErr("settle round", err)
	}
	return res, nil
}

// StakeAndSettle debits then settles. A settlement failure refunds the
// stake, so like LedgerService the round is applied whole or not at all.
func (l *MemoryLedger) StakeAndSettle(ctx context.Context, st domain.Settlement) (*domain.SettlementResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if _, err := l.engine.ExecutePlaceStake(ctx, nil, st.UserID, st.Stake); err != nil {
		return nil, wrapErr("play round", err)
	}
	res, err := l.coordinator.Settle(ctx, nil, st)
	if err != nil {
		if _, rerr := l.engine.ExecuteAddBalance(ctx, nil, st.UserID, st.Stake); rerr != nil {
			return nil, wrapErr("play round refund", errors.Join(err, rerr))
		}
		return nil, wrapErr("play round", err)
	}
	return res, nil
}

func (l *MemoryLedger) Transfer(ctx context.Context, fromID, toID string, amount int64) (*domain.TransferResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	res, err := l.engine.ExecuteTransfer(ctx, nil, fromID, toID, amount)
	if err != nil {
		return nil, wrapErr("transfer", err)
	}
	return res, nil
}

func (l *MemoryLedger) TopBalances(ctx context.Context, guildID string, limit int) ([]domain.BalanceEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Repos().Accounts.TopByGuild(ctx, nil, guildID, limit)
}

func (l *MemoryLedger) StatLines(ctx context.Context, guildID string, scope domain.StatScope) ([]domain.StatLine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Repos().Stats.Lines(ctx, nil, guildID, scope)
}

// Reconcile checks a guild's stats against its settled rounds.
func (l *MemoryLedger) Reconcile(ctx context.Context, guildID string) (*ledger.ReconcileReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Reconcile(ctx, nil, guildID)
}

// wrapErr keeps domain errors and reports everything else as a persistence
// failure, matching LedgerService.
func wrapErr(op string, err error) error {
	if domain.CodeOf(err) != "" {
		return err
	}
	return domain.ErrPersistence(op, err)
}
