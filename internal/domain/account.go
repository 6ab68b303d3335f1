package domain

import (
	"fmt"
	"sort"
	"time"
)

// Account is a user's credit balance.
type Account struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BetPreference is the remembered stake for one game kind.
type BetPreference struct {
	UserID string   `json:"user_id"`
	Kind   GameKind `json:"game"`
	Amount int64    `json:"amount"`
}

// BonusClaim is the outcome of a timed bonus claim. Credited and Balance
// are zero when OK is false.
type BonusClaim struct {
	OK       bool      `json:"ok"`
	Credited int64     `json:"credited"`
	NextAt   time.Time `json:"next_at"`
	Balance  int64     `json:"balance,omitempty"`
}

// GuildStat is the per-guild, per-user, per-game outcome aggregate.
type GuildStat struct {
	GuildID string   `json:"guild_id"`
	UserID  string   `json:"user_id"`
	Kind    GameKind `json:"game"`
	Wins    int64    `json:"wins"`
	Losses  int64    `json:"losses"`
	Pushes  int64    `json:"pushes"`
	Net     int64    `json:"net"`
}

// StatDelta is a single settled round's contribution to a GuildStat.
type StatDelta struct {
	GuildID string
	UserID  string
	Kind    GameKind
	Result  ResultKind
	Net     int64
}

// Counters returns the wins/losses/pushes increments for the delta.
func (d StatDelta) Counters() (wins, losses, pushes int64) {
	switch d.Result {
	case ResultWin:
		return 1, 0, 0
	case ResultLoss:
		return 0, 1, 0
	case ResultPush:
		return 0, 0, 1
	}
	return 0, 0, 0
}

// StatLine is a leaderboard row, either one game's stats or the sum over all games.
type StatLine struct {
	UserID string `json:"user_id"`
	Wins   int64  `json:"wins"`
	Losses int64  `json:"losses"`
	Pushes int64  `json:"pushes"`
	Net    int64  `json:"net"`
}

// Winrate is wins/(wins+losses), or 0 with no decided rounds.
func (l StatLine) Winrate() float64 {
	plays := l.Wins + l.Losses
	if plays == 0 {
		return 0
	}
	return float64(l.Wins) / float64(plays)
}

// BalanceEntry is a balance leaderboard row.
type BalanceEntry struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// Metric selects the ranking column of a stat leaderboard.
type Metric string

const (
	MetricWins    Metric = "wins"
	MetricLosses  Metric = "losses"
	MetricWinrate Metric = "winrate"
	MetricNet     Metric = "net"
)

// ParseMetric converts a metric tag into a Metric.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricWins, MetricLosses, MetricWinrate, MetricNet:
		return m, nil
	}
	return "", ErrInvalidSelection(fmt.Sprintf("unknown metric %q", s))
}

// StatScope is a single game kind, or every kind when All is set.
type StatScope struct {
	Kind GameKind
	All  bool
}

// ScopeAll aggregates over every game kind.
var ScopeAll = StatScope{All: true}

// ParseStatScope accepts "all" or a game kind.
func ParseStatScope(s string) (StatScope, error) {
	if s == "" || s == "all" {
		return ScopeAll, nil
	}
	k, err := ParseGameKind(s)
	if err != nil {
		return StatScope{}, err
	}
	return StatScope{Kind: k}, nil
}

func (s StatScope) String() string {
	if s.All {
		return "all"
	}
	return string(s.Kind)
}

// RankStats orders lines descending on metric and keeps the first limit rows.
// Ties keep their input order.
func RankStats(lines []StatLine, metric Metric, limit int) []StatLine {
	ranked := make([]StatLine, len(lines))
	copy(ranked, lines)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch metric {
		case MetricWins:
			return a.Wins > b.Wins
		case MetricLosses:
			return a.Losses > b.Losses
		case MetricWinrate:
			return a.Winrate() > b.Winrate()
		case MetricNet:
			return a.Net > b.Net
		}
		return false
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// TransferResult reports both balances after a give.
type TransferResult struct {
	FromUserID  string `json:"from_user_id"`
	ToUserID    string `json:"to_user_id"`
	Amount      int64  `json:"amount"`
	FromBalance int64  `json:"from_balance"`
	ToBalance   int64  `json:"to_balance"`
}
