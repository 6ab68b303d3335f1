package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type bonusRepo struct{}

// NewBonusRepository returns a pgx-backed BonusRepository.
func NewBonusRepository() BonusRepository {
	return &bonusRepo{}
}

func (r *bonusRepo) LastClaim(ctx context.Context, db DBTX, userID string) (time.Time, bool, error) {
	var at time.Time
	err := db.QueryRow(ctx, `SELECT last_claim_at FROM bonus_claims WHERE user_id = $1`, userID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("last bonus claim: %w", err)
	}
	return at, true, nil
}

func (r *bonusRepo) Record(ctx context.Context, db DBTX, userID string, at time.Time) error {
	_, err := db.Exec(ctx, `
		INSERT INTO bonus_claims (user_id, last_claim_at) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET last_claim_at = EXCLUDED.last_claim_at`,
		userID, at)
	if err != nil {
		return fmt.Errorf("record bonus claim: %w", err)
	}
	return nil
}
