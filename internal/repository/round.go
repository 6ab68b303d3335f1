package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guildcasino/casino/internal/domain"
)

type roundRepo struct{}

// NewRoundRepository returns a pgx-backed RoundRepository.
func NewRoundRepository() RoundRepository {
	return &roundRepo{}
}

func (r *roundRepo) Insert(ctx context.Context, db DBTX, s domain.Settlement, at time.Time) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO rounds (round_id, guild_id, user_id, game, stake, payout, net, result, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (round_id) DO NOTHING`,
		s.RoundID, s.GuildID, s.UserID, string(s.Kind), s.Stake, s.Payout, s.Net(), string(s.Result), at)
	if err != nil {
		return false, fmt.Errorf("insert round: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *roundRepo) Totals(ctx context.Context, db DBTX, guildID string) ([]domain.GuildStat, error) {
	rows, err := db.Query(ctx, `
		SELECT guild_id, user_id, game,
		       COUNT(*) FILTER (WHERE result = 'win'),
		       COUNT(*) FILTER (WHERE result = 'loss'),
		       COUNT(*) FILTER (WHERE result = 'push'),
		       COALESCE(SUM(net), 0)
		FROM rounds WHERE guild_id = $1
		GROUP BY guild_id, user_id, game
		ORDER BY user_id, game`, guildID)
	if err != nil {
		return nil, fmt.Errorf("round totals: %w", err)
	}
	defer rows.Close()
	return collectStats(rows)
}

func (r *roundRepo) Exists(ctx context.Context, db DBTX, roundID uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rounds WHERE round_id = $1)`, roundID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("round exists: %w", err)
	}
	return exists, nil
}
