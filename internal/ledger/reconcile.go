package ledger

import (
	"context"
	"fmt"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/repository"
)

// StatMismatch is a stat row that disagrees with the rounds it aggregates.
type StatMismatch struct {
	UserID   string           `json:"user_id"`
	Kind     domain.GameKind  `json:"game"`
	Recorded domain.GuildStat `json:"recorded"`
	Derived  domain.GuildStat `json:"derived"`
}

// ReconcileReport holds the outcome of checking a guild's stats against
// its settled rounds.
//
// Invariants per (user, game):
//  1. wins, losses and pushes equal the count of rounds with that result
//  2. net equals the sum of round nets
type ReconcileReport struct {
	GuildID    string         `json:"guild_id"`
	Checked    int            `json:"checked"`
	Mismatches []StatMismatch `json:"mismatches,omitempty"`
	AllPassed  bool           `json:"all_passed"`
}

// Reconcile recomputes a guild's stats from the rounds table and reports
// every row that differs.
func (e *Engine) Reconcile(ctx context.Context, db repository.DBTX, guildID string) (*ReconcileReport, error) {
	recorded, err := e.repos.Stats.ListGuild(ctx, db, guildID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	derived, err := e.repos.Rounds.Totals(ctx, db, guildID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	mismatches, checked := compareStats(recorded, derived)
	return &ReconcileReport{
		GuildID:    guildID,
		Checked:    checked,
		Mismatches: mismatches,
		AllPassed:  len(mismatches) == 0,
	}, nil
}

type statKey struct {
	user string
	kind domain.GameKind
}

func compareStats(recorded, derived []domain.GuildStat) ([]StatMismatch, int) {
	byKey := make(map[statKey]domain.GuildStat, len(recorded))
	for _, s := range recorded {
		byKey[statKey{s.UserID, s.Kind}] = s
	}

	var out []StatMismatch
	seen := make(map[statKey]bool, len(derived))
	for _, d := range derived {
		k := statKey{d.UserID, d.Kind}
		seen[k] = true
		r := byKey[k]
		if r.Wins != d.Wins || r.Losses != d.Losses || r.Pushes != d.Pushes || r.Net != d.Net {
			out = append(out, StatMismatch{UserID: d.UserID, Kind: d.Kind, Recorded: r, Derived: d})
		}
	}
	for _, r := range recorded {
		k := statKey{r.UserID, r.Kind}
		if !seen[k] && (r.Wins != 0 || r.Losses != 0 || r.Pushes != 0 || r.Net != 0) {
			out = append(out, StatMismatch{UserID: r.UserID, Kind: r.Kind, Recorded: r})
		}
	}
	return out, len(byKey) + countMissing(seen, byKey)
}

func countMissing(seen map[statKey]bool, byKey map[statKey]domain.GuildStat) int {
	n := 0
	for k := range seen {
		if _, ok := byKey[k]; !ok {
			n++
		}
	}
	return n
}
