package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/guard"
	"github.com/guildcasino/casino/internal/projection"
)

const cacheCircuit = "leaderboard_cache"

// Ranker computes leaderboards from the ledger. CasinoService satisfies it.
type Ranker interface {
	TopBalances(ctx context.Context, guildID string, limit int) ([]domain.BalanceEntry, error)
	TopStats(ctx context.Context, guildID string, scope domain.StatScope, metric domain.Metric, limit int) ([]domain.StatLine, error)
}

// LeaderboardService serves rankings from a projection cache and falls
// back to the ranker on a miss. Cache errors never fail a request; after
// repeated errors the breaker skips the cache until it resets.
type LeaderboardService struct {
	ranker  Ranker
	store   projection.Store
	ttl     time.Duration
	breaker *guard.CircuitBreaker
	logger  *slog.Logger
}

// NewLeaderboardService wires a ranker to a cache. A ttl of zero disables caching.
func NewLeaderboardService(ranker Ranker, store projection.Store, ttl time.Duration, breaker *guard.CircuitBreaker, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		ranker:  ranker,
		store:   store,
		ttl:     ttl,
		breaker: breaker,
		logger:  logger,
	}
}

func (s *LeaderboardService) cacheUsable(ctx context.Context) bool {
	if s.store == nil || s.ttl <= 0 {
		return false
	}
	return s.breaker.Check(ctx, cacheCircuit).Allowed
}

// cacheResult feeds the breaker. A miss is a healthy answer.
func (s *LeaderboardService) cacheResult(op string, err error) {
	if err == nil || errors.Is(err, projection.ErrMiss) {
		s.breaker.RecordSuccess(cacheCircuit)
		return
	}
	s.breaker.RecordFailure(cacheCircuit)
	s.logger.Warn("leaderboard cache error", "op", op, "error", err)
}

// TopBalances returns the balance board for a guild.
func (s *LeaderboardService) TopBalances(ctx context.Context, guildID string, limit int) ([]domain.BalanceEntry, error) {
	limit = clampLimit(limit)
	useCache := s.cacheUsable(ctx)
	if useCache {
		b, err := projection.GetBalanceBoard(ctx, s.store, guildID, limit)
		s.cacheResult("get balance board", err)
		if err == nil {
			return b.Entries, nil
		}
	}

	entries, err := s.ranker.TopBalances(ctx, guildID, limit)
	if err != nil {
		return nil, err
	}
	if useCache {
		err := projection.PutBalanceBoard(ctx, s.store, projection.BalanceBoard{GuildID: guildID, Limit: limit, Entries: entries}, s.ttl)
		s.cacheResult("put balance board", err)
	}
	return entries, nil
}

// TopStats returns a stat board for a guild.
func (s *LeaderboardService) TopStats(ctx context.Context, guildID string, scope domain.StatScope, metric domain.Metric, limit int) ([]domain.StatLine, error) {
	limit = clampLimit(limit)
	useCache := s.cacheUsable(ctx)
	if useCache {
		b, err := projection.GetStatBoard(ctx, s.store, guildID, scope, metric, limit)
		s.cacheResult("get stat board", err)
		if err == nil {
			return b.Lines, nil
		}
	}

	lines, err := s.ranker.TopStats(ctx, guildID, scope, metric, limit)
	if err != nil {
		return nil, err
	}
	if useCache {
		board := projection.StatBoard{GuildID: guildID, Metric: metric, Limit: limit, Lines: lines}
		err := projection.PutStatBoard(ctx, s.store, scope, board, s.ttl)
		s.cacheResult("put stat board", err)
	}
	return lines, nil
}

// InvalidateGuild drops a guild's cached boards. It returns how many were removed.
func (s *LeaderboardService) InvalidateGuild(ctx context.Context, guildID string) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	n, err := projection.InvalidateGuild(ctx, s.store, guildID)
	if err != nil {
		s.breaker.RecordFailure(cacheCircuit)
		return 0, domain.ErrPersistence("invalidate leaderboard cache", err)
	}
	return n, nil
}
