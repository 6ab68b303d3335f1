package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/ledger"
	"github.com/guildcasino/casino/internal/settlement"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger is the persistence contract the casino plays against. Every
// mutating method is a single all-or-nothing unit.
type Ledger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	SetBalance(ctx context.Context, userID string, balance int64) (int64, error)
	AddBalance(ctx context.Context, userID string, delta int64) (int64, error)

	// PlaceStake debits stake or fails with INSUFFICIENT_FUNDS.
	PlaceStake(ctx context.Context, userID string, stake int64) (int64, error)

	Bet(ctx context.Context, userID string, kind domain.GameKind) (int64, error)
	SetBet(ctx context.Context, userID string, kind domain.GameKind, amount int64) (int64, error)

	LastBonus(ctx context.Context, userID string) (time.Time, bool, error)
	ClaimBonus(ctx context.Context, userID string) (domain.BonusClaim, error)

	// Settle applies a round whose stake was already debited.
	Settle(ctx context.Context, s domain.Settlement) (*domain.SettlementResult, error)

	// StakeAndSettle debits the stake and applies the round together, for
	// games that resolve in one call.
	StakeAndSettle(ctx context.Context, s domain.Settlement) (*domain.SettlementResult, error)

	Transfer(ctx context.Context, fromID, toID string, amount int64) (*domain.TransferResult, error)

	TopBalances(ctx context.Context, guildID string, limit int) ([]domain.BalanceEntry, error)
	StatLines(ctx context.Context, guildID string, scope domain.StatScope) ([]domain.StatLine, error)
}

// LedgerService implements Ledger on Postgres. Each mutation runs in its own
// transaction; any failure rolls back and surfaces as PERSISTENCE_FAILURE
// unless it is already a domain error.
type LedgerService struct {
	pool        *pgxpool.Pool
	engine      *ledger.Engine
	coordinator *settlement.Coordinator
	logger      *slog.Logger
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(
	pool *pgxpool.Pool,
	engine *ledger.Engine,
	coordinator *settlement.Coordinator,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		pool:        pool,
		engine:      engine,
		coordinator: coordinator,
		logger:      logger,
	}
}

// inTx runs fn in a transaction and commits when it returns nil.
func (s *LedgerService) inTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrPersistence(op+": begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return persistenceErr(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrPersistence(op+": commit tx", err)
	}
	return nil
}

// persistenceErr keeps domain errors and wraps everything else.
func persistenceErr(op string, err error) error {
	if domain.CodeOf(err) != "" {
		return err
	}
	return domain.ErrPersistence(op, err)
}

func (s *LedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	bal, err := s.engine.ReadBalance(ctx, s.pool, userID)
	if err != nil {
		return 0, persistenceErr("balance", err)
	}
	return bal, nil
}

func (s *LedgerService) SetBalance(ctx context.Context, userID string, balance int64) (int64, error) {
	var out int64
	err := s.inTx(ctx, "set balance", func(tx pgx.Tx) error {
		acct, err := s.engine.ExecuteSetBalance(ctx, tx, userID, balance)
		if err != nil {
			return err
		}
		out = acct.Balance
		return nil
	})
	return out, err
}

func (s *LedgerService) AddBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	var out int64
	err := s.inTx(ctx, "add balance", func(tx pgx.Tx) error {
		acct, err := s.engine.ExecuteGrant(ctx, tx, userID, delta)
		if err != nil {
			return err
		}
		out = acct.Balance
		return nil
	})
	return out, err
}

func (s *LedgerService) PlaceStake(ctx context.Context, userID string, stake int64) (int64, error) {
	var out int64
	err := s.inTx(ctx, "place stake", func(tx pgx.Tx) error {
		acct, err := s.engine.ExecutePlaceStake(ctx, tx, userID, stake)
		if err != nil {
			return err
		}
		out = acct.Balance
		return nil
	})
	return out, err
}

func (s *LedgerService) Bet(ctx context.Context, userID string, kind domain.GameKind) (int64, error) {
	amt, err := s.engine.ReadBet(ctx, s.pool, userID, kind)
	if err != nil {
		return 0, persistenceErr("get bet", err)
	}
	return amt, nil
}

func (s *LedgerService) SetBet(ctx context.Context, userID string, kind domain.GameKind, amount int64) (int64, error) {
	stored, err := s.engine.WriteBet(ctx, s.pool, userID, kind, amount)
	if err != nil {
		return 0, persistenceErr("set bet", err)
	}
	return stored, nil
}

func (s *LedgerService) LastBonus(ctx context.Context, userID string) (time.Time, bool, error) {
	at, ok, err := s.engine.Repos().Bonuses.LastClaim(ctx, s.pool, userID)
	if err != nil {
		return time.Time{}, false, persistenceErr("last bonus", err)
	}
	return at, ok, nil
}

func (s *LedgerService) ClaimBonus(ctx context.Context, userID string) (domain.BonusClaim, error) {
	var claim domain.BonusClaim
	err := s.inTx(ctx, "claim bonus", func(tx pgx.Tx) error {
		var err error
		claim, err = s.engine.ExecuteClaimBonus(ctx, tx, userID)
		return err
	})
	return claim, err
}

func (s *LedgerService) Settle(ctx context.Context, st domain.Settlement) (*domain.SettlementResult, error) {
	var res *domain.SettlementResult
	err := s.inTx(ctx, "settle round", func(tx pgx.Tx) error {
		var err error
		res, err = s.coordinator.Settle(ctx, tx, st)
		return err
	})
	if err != nil {
		s.logger.Error("round settlement failed",
			"round_id", st.RoundID, "user_id", st.UserID, "game", st.Kind, "error", err)
		return nil, err
	}
	return res, nil
}

func (s *LedgerService) StakeAndSettle(ctx context.Context, st domain.Settlement) (*domain.SettlementResult, error) {
	var res *domain.SettlementResult
	err := s.inTx(ctx, "play round", func(tx pgx.Tx) error {
		if _, err := s.engine.ExecutePlaceStake(ctx, tx, st.UserID, st.Stake); err != nil {
			return err
		}
		var err error
		res, err = s.coordinator.Settle(ctx, tx, st)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *LedgerService) Transfer(ctx context.Context, fromID, toID string, amount int64) (*domain.TransferResult, error) {
	var res *domain.TransferResult
	err := s.inTx(ctx, "transfer", func(tx pgx.Tx) error {
		var err error
		res, err = s.engine.ExecuteTransfer(ctx, tx, fromID, toID, amount)
		return err
	})
	return res, err
}

func (s *LedgerService) TopBalances(ctx context.Context, guildID string, limit int) ([]domain.BalanceEntry, error) {
	entries, err := s.engine.Repos().Accounts.TopByGuild(ctx, s.pool, guildID, limit)
	if err != nil {
		return nil, persistenceErr("top balances", err)
	}
	return entries, nil
}

func (s *LedgerService) StatLines(ctx context.Context, guildID string, scope domain.StatScope) ([]domain.StatLine, error) {
	lines, err := s.engine.Repos().Stats.Lines(ctx, s.pool, guildID, scope)
	if err != nil {
		return nil, persistenceErr("stat lines", err)
	}
	return lines, nil
}

// Reconcile checks a guild's stats against its settled rounds.
func (s *LedgerService) Reconcile(ctx context.Context, guildID string) (*ledger.ReconcileReport, error) {
	report, err := s.engine.Reconcile(ctx, s.pool, guildID)
	if err != nil {
		return nil, persistenceErr("reconcile", err)
	}
	return report, nil
}
