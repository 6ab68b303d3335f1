package ledger

import (
	"context"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecuteRecordResult upserts and increments the guild stat row for delta.
func (e *Engine) ExecuteRecordResult(ctx context.Context, tx pgx.Tx, delta domain.StatDelta) (*domain.GuildStat, error) {
	if !delta.Result.Valid() {
		return nil, domain.ErrInvalidSelection(fmt.Sprintf("unknown result %q", delta.Result))
	}
	stat, err := e.repos.Stats.Increment(ctx, tx, delta)
	if err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}
	return stat, nil
}
