package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/infra"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type accountRepo struct{}

// NewAccountRepository returns a pgx-backed AccountRepository.
func NewAccountRepository() AccountRepository {
	return &accountRepo{}
}

func (r *accountRepo) Find(ctx context.Context, db DBTX, userID string) (*domain.Account, error) {
	row := db.QueryRow(ctx, `
		SELECT user_id, balance, created_at, updated_at
		FROM accounts WHERE user_id = $1`, userID)
	return scanAccount(row)
}

func (r *accountRepo) Ensure(ctx context.Context, db DBTX, userID string, starting int64) error {
	bal, err := balanceArg(starting)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
		INSERT INTO accounts (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, bal)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

func (r *accountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.Account, error) {
	row := tx.QueryRow(ctx, `
		SELECT user_id, balance, created_at, updated_at
		FROM accounts WHERE user_id = $1 FOR UPDATE`, userID)
	return scanAccount(row)
}

func (r *accountRepo) AddBalance(ctx context.Context, tx pgx.Tx, userID string, delta int64) (*domain.Account, error) {
	d, err := balanceArg(delta)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = now()
		WHERE user_id = $2
		RETURNING user_id, balance, created_at, updated_at`,
		d, userID)
	acct, err := scanAccount(row)
	if err != nil {
		return nil, rangeErr(err)
	}
	if acct == nil {
		return nil, fmt.Errorf("add balance: account %s missing", userID)
	}
	return acct, nil
}

func (r *accountRepo) SetBalance(ctx context.Context, db DBTX, userID string, balance int64) (*domain.Account, error) {
	bal, err := balanceArg(balance)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `
		INSERT INTO accounts (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()
		RETURNING user_id, balance, created_at, updated_at`,
		userID, bal)
	return scanAccount(row)
}

func (r *accountRepo) TopByGuild(ctx context.Context, db DBTX, guildID string, limit int) ([]domain.BalanceEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT a.user_id, a.balance
		FROM accounts a
		WHERE EXISTS (
			SELECT 1 FROM guild_stats s
			WHERE s.guild_id = $1 AND s.user_id = a.user_id
		)
		ORDER BY a.balance DESC, a.user_id ASC
		LIMIT $2`, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("top balances: %w", err)
	}
	defer rows.Close()

	var entries []domain.BalanceEntry
	for rows.Next() {
		var e domain.BalanceEntry
		var bal pgtype.Numeric
		if err := rows.Scan(&e.UserID, &bal); err != nil {
			return nil, fmt.Errorf("scan balance entry: %w", err)
		}
		if e.Balance, err = infra.ScanBalance(bal); err != nil {
			return nil, fmt.Errorf("convert balance: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var bal pgtype.Numeric
	err := row.Scan(&a.UserID, &bal, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Balance, err = infra.ScanBalance(bal)
	if err != nil {
		return nil, fmt.Errorf("convert balance: %w", err)
	}
	return &a, nil
}

func balanceArg(credits int64) (pgtype.Numeric, error) {
	n, err := infra.BalanceParam(credits)
	if err != nil {
		return n, domain.ErrInvalidSelection(err.Error())
	}
	return n, nil
}

// rangeErr maps numeric_value_out_of_range from a balance update to
// INVALID_SELECTION.
func rangeErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22003" {
		return domain.ErrInvalidSelection(fmt.Sprintf("balance would exceed the maximum of %d", infra.MaxBalance))
	}
	return err
}
