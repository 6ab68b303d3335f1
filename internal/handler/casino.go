package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/game/roulette"
	"github.com/guildcasino/casino/internal/service"
)

// CasinoHandler exposes the casino operations for one guild member. The
// calling service authenticates; the member is named in the URL.
type CasinoHandler struct {
	casino *service.CasinoService
}

// NewCasinoHandler creates a new CasinoHandler.
func NewCasinoHandler(casino *service.CasinoService) *CasinoHandler {
	return &CasinoHandler{casino: casino}
}

// GuildParam returns the {guildID} URL parameter.
func GuildParam(r *http.Request) string {
	return chi.URLParam(r, "guildID")
}

// UserParam returns the {userID} URL parameter.
func UserParam(r *http.Request) string {
	return chi.URLParam(r, "userID")
}

func playerFrom(r *http.Request) domain.Player {
	return domain.Player{GuildID: GuildParam(r), UserID: UserParam(r)}
}

type stakeRequest struct {
	Stake int64 `json:"stake"`
}

func stakeFrom(r *http.Request) (int64, error) {
	var req stakeRequest
	if err := decodeOptional(r, &req); err != nil {
		return 0, err
	}
	return req.Stake, nil
}

type balanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// GetBalance handles GET /balance.
func (h *CasinoHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.casino.Balance(r.Context(), UserParam(r))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, balanceResponse{UserID: UserParam(r), Balance: bal})
}

type betResponse struct {
	Game   domain.GameKind `json:"game"`
	Amount int64           `json:"amount"`
}

// GetBet handles GET /bets/{game}.
func (h *CasinoHandler) GetBet(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseGameKind(chi.URLParam(r, "game"))
	if err != nil {
		RespondError(w, err)
		return
	}
	amt, err := h.casino.Bet(r.Context(), UserParam(r), kind)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, betResponse{Game: kind, Amount: amt})
}

type setBetRequest struct {
	Amount int64 `json:"amount"`
}

// SetBet handles PUT /bets/{game}.
func (h *CasinoHandler) SetBet(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseGameKind(chi.URLParam(r, "game"))
	if err != nil {
		RespondError(w, err)
		return
	}
	var req setBetRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	amt, err := h.casino.SetBet(r.Context(), UserParam(r), kind, req.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, betResponse{Game: kind, Amount: amt})
}

// ClaimBonus handles POST /bonus. A claim inside the cooldown is a 200 with ok=false.
func (h *CasinoHandler) ClaimBonus(w http.ResponseWriter, r *http.Request) {
	claim, err := h.casino.ClaimBonus(r.Context(), UserParam(r))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, claim)
}

type giveRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// Give handles POST /give.
func (h *CasinoHandler) Give(w http.ResponseWriter, r *http.Request) {
	var req giveRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	res, err := h.casino.Give(r.Context(), UserParam(r), req.To, req.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// GetRouletteSelection handles GET /roulette/selection.
func (h *CasinoHandler) GetRouletteSelection(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.casino.RouletteSelection(UserParam(r)))
}

type selectionRequest struct {
	Type   string `json:"type"`
	Number *int   `json:"number,omitempty"`
}

// SetRouletteSelection handles PUT /roulette/selection.
func (h *CasinoHandler) SetRouletteSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	bt, err := roulette.ParseBetType(req.Type)
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := domain.ValidateIdentity("user", UserParam(r)); err != nil {
		RespondError(w, err)
		return
	}
	sel, err := h.casino.SetRouletteSelection(UserParam(r), roulette.Selection{Type: bt, Number: req.Number})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, sel)
}

// SpinSlots handles POST /slots/spin.
func (h *CasinoHandler) SpinSlots(w http.ResponseWriter, r *http.Request) {
	stake, err := stakeFrom(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	round, err := h.casino.PlaySlots(r.Context(), playerFrom(r), stake)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, round)
}

// RollDice handles POST /dice/roll.
func (h *CasinoHandler) RollDice(w http.ResponseWriter, r *http.Request) {
	stake, err := stakeFrom(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	round, err := h.casino.PlayDice(r.Context(), playerFrom(r), stake)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, round)
}

// SpinRoulette handles POST /roulette/spin with the stored selection.
func (h *CasinoHandler) SpinRoulette(w http.ResponseWriter, r *http.Request) {
	stake, err := stakeFrom(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	round, err := h.casino.PlayRoulette(r.Context(), playerFrom(r), stake)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, round)
}
