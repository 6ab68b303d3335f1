package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/guildcasino/casino/internal/auth"
	"github.com/guildcasino/casino/internal/ledger"
	"github.com/guildcasino/casino/internal/service"
)

// Reconciler checks a guild's stats against its settled rounds.
type Reconciler interface {
	Reconcile(ctx context.Context, guildID string) (*ledger.ReconcileReport, error)
}

// AdminHandler serves operator balance changes and audits.
type AdminHandler struct {
	casino     *service.CasinoService
	reconciler Reconciler
	logger     *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(casino *service.CasinoService, reconciler Reconciler, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{casino: casino, reconciler: reconciler, logger: logger}
}

type grantRequest struct {
	Delta int64 `json:"delta"`
}

// Grant handles POST /admin/users/{userID}/grant.
func (h *AdminHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	bal, err := h.casino.Grant(r.Context(), UserParam(r), req.Delta)
	if err != nil {
		RespondError(w, err)
		return
	}
	h.logger.Info("balance granted",
		"operator", auth.SubjectFromContext(r.Context()),
		"user_id", UserParam(r),
		"delta", req.Delta,
		"balance", bal,
	)
	RespondJSON(w, http.StatusOK, balanceResponse{UserID: UserParam(r), Balance: bal})
}

type setBalanceRequest struct {
	Balance int64 `json:"balance"`
}

// SetBalance handles PUT /admin/users/{userID}/balance.
func (h *AdminHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	bal, err := h.casino.SetBalance(r.Context(), UserParam(r), req.Balance)
	if err != nil {
		RespondError(w, err)
		return
	}
	h.logger.Info("balance set",
		"operator", auth.SubjectFromContext(r.Context()),
		"user_id", UserParam(r),
		"balance", bal,
	)
	RespondJSON(w, http.StatusOK, balanceResponse{UserID: UserParam(r), Balance: bal})
}

// Reconcile handles GET /admin/guilds/{guildID}/reconcile.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context(), GuildParam(r))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, report)
}
