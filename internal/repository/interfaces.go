package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// AccountRepository provides access to accounts.
type AccountRepository interface {
	// Find returns the account, or nil when the user has never been seen.
	Find(ctx context.Context, db DBTX, userID string) (*domain.Account, error)

	// Ensure creates the account with the starting balance if it does not exist.
	Ensure(ctx context.Context, db DBTX, userID string, starting int64) error

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the account.
	LockForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.Account, error)

	// AddBalance applies delta with server-side arithmetic and returns the new row.
	AddBalance(ctx context.Context, tx pgx.Tx, userID string, delta int64) (*domain.Account, error)

	// SetBalance overwrites the balance, creating the account if needed.
	SetBalance(ctx context.Context, db DBTX, userID string, balance int64) (*domain.Account, error)

	// TopByGuild ranks accounts with at least one stat row in the guild by balance.
	TopByGuild(ctx context.Context, db DBTX, guildID string, limit int) ([]domain.BalanceEntry, error)
}

// BetRepository provides access to bet_preferences.
type BetRepository interface {
	// Get returns the stored bet and whether one exists.
	Get(ctx context.Context, db DBTX, userID string, kind domain.GameKind) (int64, bool, error)

	// Set stores amount clamped to [MinBet, MaxBet] and returns the stored value.
	Set(ctx context.Context, db DBTX, userID string, kind domain.GameKind, amount int64) (int64, error)
}

// StatRepository provides access to guild_stats.
type StatRepository interface {
	// Increment creates the row if missing and applies delta in one statement.
	Increment(ctx context.Context, db DBTX, delta domain.StatDelta) (*domain.GuildStat, error)

	// Find returns one stat row, or nil.
	Find(ctx context.Context, db DBTX, guildID, userID string, kind domain.GameKind) (*domain.GuildStat, error)

	// ListGuild returns every stat row of the guild.
	ListGuild(ctx context.Context, db DBTX, guildID string) ([]domain.GuildStat, error)

	// Lines returns per-user totals for the scope, unordered.
	Lines(ctx context.Context, db DBTX, guildID string, scope domain.StatScope) ([]domain.StatLine, error)
}

// BonusRepository provides access to bonus_claims.
type BonusRepository interface {
	// LastClaim returns the last successful claim time and whether one exists.
	LastClaim(ctx context.Context, db DBTX, userID string) (time.Time, bool, error)

	// Record stores at as the last claim time.
	Record(ctx context.Context, db DBTX, userID string, at time.Time) error
}

// RoundRepository provides access to rounds.
type RoundRepository interface {
	// Insert records a settled round. It reports false, without error, when
	// the round id was already recorded.
	Insert(ctx context.Context, db DBTX, s domain.Settlement, at time.Time) (bool, error)

	// Totals derives per (user, game) stats for the guild from recorded rounds.
	Totals(ctx context.Context, db DBTX, guildID string) ([]domain.GuildStat, error)

	// Exists reports whether the round has been settled.
	Exists(ctx context.Context, db DBTX, roundID uuid.UUID) (bool, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the ledger change).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox poller.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished deletes relayed events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
