package handler

import (
	"net/http"

	"github.com/guildcasino/casino/internal/domain"
)

// respondView writes a round view. When settlement failed after the move
// the error wins; the round stays live and the next action retries it.
func respondView[V any](w http.ResponseWriter, status int, view *V, err error) {
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, status, view)
}

// GetBlackjack handles GET /blackjack.
func (h *CasinoHandler) GetBlackjack(w http.ResponseWriter, r *http.Request) {
	view, err := h.casino.Blackjack(UserParam(r))
	respondView(w, http.StatusOK, view, err)
}

// StartBlackjack handles POST /blackjack/start.
func (h *CasinoHandler) StartBlackjack(w http.ResponseWriter, r *http.Request) {
	stake, err := stakeFrom(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	view, err := h.casino.StartBlackjack(r.Context(), playerFrom(r), stake)
	respondView(w, http.StatusCreated, view, err)
}

// HitBlackjack handles POST /blackjack/hit.
func (h *CasinoHandler) HitBlackjack(w http.ResponseWriter, r *http.Request) {
	view, err := h.casino.HitBlackjack(r.Context(), UserParam(r))
	respondView(w, http.StatusOK, view, err)
}

// StandBlackjack handles POST /blackjack/stand.
func (h *CasinoHandler) StandBlackjack(w http.ResponseWriter, r *http.Request) {
	view, err := h.casino.StandBlackjack(r.Context(), UserParam(r))
	respondView(w, http.StatusOK, view, err)
}

// GetMines handles GET /mines.
func (h *CasinoHandler) GetMines(w http.ResponseWriter, r *http.Request) {
	view, err := h.casino.Mines(UserParam(r))
	respondView(w, http.StatusOK, view, err)
}

// StartMines handles POST /mines/start.
func (h *CasinoHandler) StartMines(w http.ResponseWriter, r *http.Request) {
	stake, err := stakeFrom(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	view, err := h.casino.StartMines(r.Context(), playerFrom(r), stake)
	respondView(w, http.StatusCreated, view, err)
}

type revealRequest struct {
	Cell *int `json:"cell"`
}

// RevealMine handles POST /mines/reveal.
func (h *CasinoHandler) RevealMine(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	if req.Cell == nil {
		RespondError(w, domain.ErrInvalidSelection("cell is required"))
		return
	}
	view, err := h.casino.RevealMine(r.Context(), UserParam(r), *req.Cell)
	respondView(w, http.StatusOK, view, err)
}

// CashOutMines handles POST /mines/cashout.
func (h *CasinoHandler) CashOutMines(w http.ResponseWriter, r *http.Request) {
	view, err := h.casino.CashOutMines(r.Context(), UserParam(r))
	respondView(w, http.StatusOK, view, err)
}

// ForfeitMines handles POST /mines/forfeit.
func (h *CasinoHandler) ForfeitMines(w http.ResponseWriter, r *http.Request) {
	view, err := h.casino.ForfeitMines(r.Context(), UserParam(r))
	respondView(w, http.StatusOK, view, err)
}
