//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll empties every casino table.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		TRUNCATE TABLE event_outbox, rounds, bonus_claims, guild_stats, bet_preferences, accounts
		RESTART IDENTITY`)
	if err != nil {
		env.t.Fatalf("CleanAll: %v", err)
	}
}
