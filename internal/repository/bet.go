package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/jackc/pgx/v5"
)

type betRepo struct{}

// NewBetRepository returns a pgx-backed BetRepository.
func NewBetRepository() BetRepository {
	return &betRepo{}
}

func (r *betRepo) Get(ctx context.Context, db DBTX, userID string, kind domain.GameKind) (int64, bool, error) {
	var amount int64
	err := db.QueryRow(ctx, `
		SELECT amount FROM bet_preferences WHERE user_id = $1 AND game = $2`,
		userID, string(kind)).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get bet: %w", err)
	}
	return amount, true, nil
}

func (r *betRepo) Set(ctx context.Context, db DBTX, userID string, kind domain.GameKind, amount int64) (int64, error) {
	amount = domain.ClampBet(amount)
	_, err := db.Exec(ctx, `
		INSERT INTO bet_preferences (user_id, game, amount) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, game) DO UPDATE SET amount = EXCLUDED.amount`,
		userID, string(kind), amount)
	if err != nil {
		return 0, fmt.Errorf("set bet: %w", err)
	}
	return amount, nil
}
