package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/service"
)

// LeaderboardHandler serves guild rankings.
type LeaderboardHandler struct {
	boards *service.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(boards *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{boards: boards}
}

type balanceBoardResponse struct {
	GuildID string                `json:"guild_id"`
	Entries []domain.BalanceEntry `json:"entries"`
}

type statBoardResponse struct {
	GuildID string            `json:"guild_id"`
	Game    string            `json:"game"`
	Metric  domain.Metric     `json:"metric"`
	Lines   []domain.StatLine `json:"lines"`
}

// limitParam reads ?limit=; the service applies the default and cap.
func limitParam(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.ErrInvalidSelection("limit must be a whole number")
	}
	return n, nil
}

// Balances handles GET /leaderboard/balance.
func (h *LeaderboardHandler) Balances(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	entries, err := h.boards.TopBalances(r.Context(), GuildParam(r), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.BalanceEntry{}
	}
	RespondJSON(w, http.StatusOK, balanceBoardResponse{GuildID: GuildParam(r), Entries: entries})
}

// Stats handles GET /leaderboard/{metric}?game=.
func (h *LeaderboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	metric, err := domain.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		RespondError(w, err)
		return
	}
	scope, err := domain.ParseStatScope(r.URL.Query().Get("game"))
	if err != nil {
		RespondError(w, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	lines, err := h.boards.TopStats(r.Context(), GuildParam(r), scope, metric, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	if lines == nil {
		lines = []domain.StatLine{}
	}
	RespondJSON(w, http.StatusOK, statBoardResponse{
		GuildID: GuildParam(r),
		Game:    scope.String(),
		Metric:  metric,
		Lines:   lines,
	})
}
