package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/guildcasino/casino/internal/domain"
)

// LeaderboardTTL bounds how stale a cached ranking may get when no
// invalidation arrives.
const LeaderboardTTL = 30 * time.Second

// BalanceBoard is a cached balance ranking.
type BalanceBoard struct {
	GuildID   string                `json:"guild_id"`
	Limit     int                   `json:"limit"`
	Entries   []domain.BalanceEntry `json:"entries"`
	UpdatedAt string                `json:"updated_at"`
}

// StatBoard is a cached stat ranking.
type StatBoard struct {
	GuildID   string            `json:"guild_id"`
	Scope     string            `json:"scope"`
	Metric    domain.Metric     `json:"metric"`
	Limit     int               `json:"limit"`
	Lines     []domain.StatLine `json:"lines"`
	UpdatedAt string            `json:"updated_at"`
}

func guildPrefix(guildID string) string {
	return fmt.Sprintf("projection:leaderboard:%s:", guildID)
}

func balanceKey(guildID string, limit int) string {
	return fmt.Sprintf("%sbalance:%d", guildPrefix(guildID), limit)
}

func statKey(guildID string, scope domain.StatScope, metric domain.Metric, limit int) string {
	return fmt.Sprintf("%sstats:%s:%s:%d", guildPrefix(guildID), scope, metric, limit)
}

// PutBalanceBoard caches a balance ranking.
func PutBalanceBoard(ctx context.Context, store Store, b BalanceBoard, ttl time.Duration) error {
	b.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return SetJSON(ctx, store, balanceKey(b.GuildID, b.Limit), b, ttl)
}

// GetBalanceBoard reads a cached balance ranking. A miss wraps ErrMiss.
func GetBalanceBoard(ctx context.Context, store Store, guildID string, limit int) (*BalanceBoard, error) {
	var b BalanceBoard
	if err := GetJSON(ctx, store, balanceKey(guildID, limit), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// PutStatBoard caches a stat ranking.
func PutStatBoard(ctx context.Context, store Store, scope domain.StatScope, b StatBoard, ttl time.Duration) error {
	b.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	b.Scope = scope.String()
	return SetJSON(ctx, store, statKey(b.GuildID, scope, b.Metric, b.Limit), b, ttl)
}

// GetStatBoard reads a cached stat ranking. A miss wraps ErrMiss.
func GetStatBoard(ctx context.Context, store Store, guildID string, scope domain.StatScope, metric domain.Metric, limit int) (*StatBoard, error) {
	var b StatBoard
	if err := GetJSON(ctx, store, statKey(guildID, scope, metric, limit), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// InvalidateGuild drops every cached ranking for a guild.
func InvalidateGuild(ctx context.Context, store Store, guildID string) (int, error) {
	return store.DeletePrefix(ctx, guildPrefix(guildID))
}
