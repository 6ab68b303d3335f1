package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/jackc/pgx/v5"
)

type statRepo struct{}

// NewStatRepository returns a pgx-backed StatRepository.
func NewStatRepository() StatRepository {
	return &statRepo{}
}

// Increment is a single upsert so row creation and the increment commit together.
func (r *statRepo) Increment(ctx context.Context, db DBTX, delta domain.StatDelta) (*domain.GuildStat, error) {
	wins, losses, pushes := delta.Counters()
	row := db.QueryRow(ctx, `
		INSERT INTO guild_stats (guild_id, user_id, game, wins, losses, pushes, net)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (guild_id, user_id, game) DO UPDATE SET
		  wins   = guild_stats.wins   + EXCLUDED.wins,
		  losses = guild_stats.losses + EXCLUDED.losses,
		  pushes = guild_stats.pushes + EXCLUDED.pushes,
		  net    = guild_stats.net    + EXCLUDED.net
		RETURNING guild_id, user_id, game, wins, losses, pushes, net`,
		delta.GuildID, delta.UserID, string(delta.Kind), wins, losses, pushes, delta.Net)
	stat, err := scanStat(row)
	if err != nil {
		return nil, fmt.Errorf("increment stat: %w", err)
	}
	return stat, nil
}

func (r *statRepo) Find(ctx context.Context, db DBTX, guildID, userID string, kind domain.GameKind) (*domain.GuildStat, error) {
	row := db.QueryRow(ctx, `
		SELECT guild_id, user_id, game, wins, losses, pushes, net
		FROM guild_stats WHERE guild_id = $1 AND user_id = $2 AND game = $3`,
		guildID, userID, string(kind))
	stat, err := scanStat(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return stat, err
}

func (r *statRepo) ListGuild(ctx context.Context, db DBTX, guildID string) ([]domain.GuildStat, error) {
	rows, err := db.Query(ctx, `
		SELECT guild_id, user_id, game, wins, losses, pushes, net
		FROM guild_stats WHERE guild_id = $1
		ORDER BY user_id, game`, guildID)
	if err != nil {
		return nil, fmt.Errorf("list guild stats: %w", err)
	}
	defer rows.Close()
	return collectStats(rows)
}

func (r *statRepo) Lines(ctx context.Context, db DBTX, guildID string, scope domain.StatScope) ([]domain.StatLine, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if scope.All {
		rows, err = db.Query(ctx, `
			SELECT user_id, SUM(wins), SUM(losses), SUM(pushes), SUM(net)
			FROM guild_stats WHERE guild_id = $1
			GROUP BY user_id`, guildID)
	} else {
		rows, err = db.Query(ctx, `
			SELECT user_id, wins, losses, pushes, net
			FROM guild_stats WHERE guild_id = $1 AND game = $2`,
			guildID, string(scope.Kind))
	}
	if err != nil {
		return nil, fmt.Errorf("stat lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.StatLine
	for rows.Next() {
		var l domain.StatLine
		if err := rows.Scan(&l.UserID, &l.Wins, &l.Losses, &l.Pushes, &l.Net); err != nil {
			return nil, fmt.Errorf("scan stat line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanStat(row pgx.Row) (*domain.GuildStat, error) {
	var s domain.GuildStat
	var kind string
	if err := row.Scan(&s.GuildID, &s.UserID, &kind, &s.Wins, &s.Losses, &s.Pushes, &s.Net); err != nil {
		return nil, err
	}
	s.Kind = domain.GameKind(kind)
	return &s, nil
}

func collectStats(rows pgx.Rows) ([]domain.GuildStat, error) {
	var stats []domain.GuildStat
	for rows.Next() {
		s, err := scanStat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stats = append(stats, *s)
	}
	return stats, rows.Err()
}
