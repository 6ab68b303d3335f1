package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/game/dice"
	"github.com/guildcasino/casino/internal/game/mines"
	"github.com/guildcasino/casino/internal/game/roulette"
	"github.com/guildcasino/casino/internal/game/slots"
	"github.com/guildcasino/casino/internal/rng"
	"github.com/guildcasino/casino/internal/session"
)

// Leaderboard limits.
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
)

// CasinoConfig tunes a CasinoService.
type CasinoConfig struct {
	Mines       mines.Config
	IdleTimeout time.Duration
	// SelectionTTL drops a roulette selection nobody has read or set for
	// this long; the user is back on red.
	SelectionTTL time.Duration
}

// DefaultCasinoConfig is the stock 4×5 board with a 15 minute idle timeout
// and week-long roulette selections.
func DefaultCasinoConfig() CasinoConfig {
	return CasinoConfig{
		Mines:        mines.DefaultConfig,
		IdleTimeout:  15 * time.Minute,
		SelectionTTL: 7 * 24 * time.Hour,
	}
}

// CasinoService runs the games against a Ledger. It is the API consumed by
// any presentation layer; every result it returns is a copy the caller may
// keep.
type CasinoService struct {
	ledger    Ledger
	rng       rng.Source
	cfg       CasinoConfig
	blackjack *session.Registry[*blackjackSession]
	mines     *session.Registry[*minesSession]
	logger    *slog.Logger

	selMu      sync.Mutex
	selections map[string]selectionEntry
	now        func() time.Time
}

type selectionEntry struct {
	sel     roulette.Selection
	touched time.Time
}

// NewCasinoService creates a CasinoService.
func NewCasinoService(ledger Ledger, src rng.Source, cfg CasinoConfig, logger *slog.Logger) *CasinoService {
	return &CasinoService{
		ledger:     ledger,
		rng:        src,
		cfg:        cfg,
		blackjack:  session.NewRegistry[*blackjackSession]("blackjack"),
		mines:      session.NewRegistry[*minesSession]("mines"),
		logger:     logger,
		selections: make(map[string]selectionEntry),
		now:        time.Now,
	}
}

// stakeFor returns stake when given, else the remembered bet for kind.
func (s *CasinoService) stakeFor(ctx context.Context, userID string, kind domain.GameKind, stake int64) (int64, error) {
	if stake == 0 {
		return s.ledger.Bet(ctx, userID, kind)
	}
	if err := domain.ValidateBet(stake); err != nil {
		return 0, err
	}
	return stake, nil
}

// --- Account ---

// Balance returns the user's balance.
func (s *CasinoService) Balance(ctx context.Context, userID string) (int64, error) {
	if err := domain.ValidateIdentity("user", userID); err != nil {
		return 0, err
	}
	return s.ledger.Balance(ctx, userID)
}

// Bet returns the remembered stake for kind.
func (s *CasinoService) Bet(ctx context.Context, userID string, kind domain.GameKind) (int64, error) {
	if !kind.Valid() {
		return 0, domain.ErrInvalidSelection("unknown game " + string(kind))
	}
	return s.ledger.Bet(ctx, userID, kind)
}

// SetBet remembers amount for kind. Out-of-range amounts are rejected.
func (s *CasinoService) SetBet(ctx context.Context, userID string, kind domain.GameKind, amount int64) (int64, error) {
	if !kind.Valid() {
		return 0, domain.ErrInvalidSelection("unknown game " + string(kind))
	}
	if err := domain.ValidateBet(amount); err != nil {
		return 0, err
	}
	return s.ledger.SetBet(ctx, userID, kind, amount)
}

// ClaimBonus grants the timed bonus when the cooldown has passed.
func (s *CasinoService) ClaimBonus(ctx context.Context, userID string) (domain.BonusClaim, error) {
	if err := domain.ValidateIdentity("user", userID); err != nil {
		return domain.BonusClaim{}, err
	}
	return s.ledger.ClaimBonus(ctx, userID)
}

// Give moves credits from one user to another.
func (s *CasinoService) Give(ctx context.Context, fromID, toID string, amount int64) (*domain.TransferResult, error) {
	if err := domain.ValidateIdentity("user", fromID); err != nil {
		return nil, err
	}
	if err := domain.ValidateIdentity("user", toID); err != nil {
		return nil, err
	}
	return s.ledger.Transfer(ctx, fromID, toID, amount)
}

// Grant applies an operator delta to a balance.
func (s *CasinoService) Grant(ctx context.Context, userID string, delta int64) (int64, error) {
	if err := domain.ValidateIdentity("user", userID); err != nil {
		return 0, err
	}
	return s.ledger.AddBalance(ctx, userID, delta)
}

// SetBalance overwrites a balance.
func (s *CasinoService) SetBalance(ctx context.Context, userID string, balance int64) (int64, error) {
	if err := domain.ValidateIdentity("user", userID); err != nil {
		return 0, err
	}
	return s.ledger.SetBalance(ctx, userID, balance)
}

// --- Roulette selection ---

// RouletteSelection returns the user's standing wager, red by default.
func (s *CasinoService) RouletteSelection(userID string) roulette.Selection {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	e, ok := s.selections[userID]
	if !ok {
		return roulette.DefaultSelection()
	}
	e.touched = s.now()
	s.selections[userID] = e
	return copySelection(e.sel)
}

// SetRouletteSelection stores a validated wager for later spins. Choosing
// the default keeps nothing.
func (s *CasinoService) SetRouletteSelection(userID string, sel roulette.Selection) (roulette.Selection, error) {
	if err := sel.Validate(); err != nil {
		return roulette.Selection{}, err
	}
	sel = copySelection(sel)
	s.selMu.Lock()
	if sel.Type == roulette.DefaultSelection().Type && sel.Number == nil {
		delete(s.selections, userID)
	} else {
		s.selections[userID] = selectionEntry{sel: sel, touched: s.now()}
	}
	s.selMu.Unlock()
	return copySelection(sel), nil
}

// StoredSelections returns how many non-default roulette selections are held.
func (s *CasinoService) StoredSelections() int {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	return len(s.selections)
}

func (s *CasinoService) evictSelections(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)
	s.selMu.Lock()
	defer s.selMu.Unlock()
	n := 0
	for userID, e := range s.selections {
		if e.touched.Before(cutoff) {
			delete(s.selections, userID)
			n++
		}
	}
	return n
}

func copySelection(sel roulette.Selection) roulette.Selection {
	if sel.Number != nil {
		n := *sel.Number
		sel.Number = &n
	}
	return sel
}

// --- Single-call games ---

// SlotsRound is one settled spin.
type SlotsRound struct {
	RoundID uuid.UUID         `json:"round_id"`
	Reels   [3]slots.Symbol   `json:"reels"`
	Stake   int64             `json:"stake"`
	Payout  int64             `json:"payout"`
	Net     int64             `json:"net"`
	Result  domain.ResultKind `json:"result"`
	Balance int64             `json:"balance"`
}

// DiceRound is one settled roll.
type DiceRound struct {
	RoundID uuid.UUID         `json:"round_id"`
	Face    int               `json:"face"`
	Stake   int64             `json:"stake"`
	Payout  int64             `json:"payout"`
	Net     int64             `json:"net"`
	Result  domain.ResultKind `json:"result"`
	Balance int64             `json:"balance"`
}

// RouletteRound is one settled spin.
type RouletteRound struct {
	RoundID uuid.UUID         `json:"round_id"`
	Spin    roulette.Result   `json:"spin"`
	Stake   int64             `json:"stake"`
	Net     int64             `json:"net"`
	Result  domain.ResultKind `json:"result"`
	Balance int64             `json:"balance"`
}

// playInstant stakes and settles a single-call round in one unit.
func (s *CasinoService) playInstant(ctx context.Context, p domain.Player, kind domain.GameKind, stake, payout int64) (domain.Settlement, *domain.SettlementResult, error) {
	st := domain.Settlement{
		RoundID: uuid.New(),
		GuildID: p.GuildID,
		UserID:  p.UserID,
		Kind:    kind,
		Stake:   stake,
		Payout:  payout,
		Result:  domain.ResultFromNet(payout - stake),
	}
	res, err := s.ledger.StakeAndSettle(ctx, st)
	if err != nil {
		return st, nil, err
	}
	return st, res, nil
}

// PlaySlots spins the reels. A zero stake uses the remembered bet.
func (s *CasinoService) PlaySlots(ctx context.Context, p domain.Player, stake int64) (*SlotsRound, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	stake, err := s.stakeFor(ctx, p.UserID, domain.KindSlots, stake)
	if err != nil {
		return nil, err
	}

	spin := slots.Spin(s.rng)
	st, res, err := s.playInstant(ctx, p, domain.KindSlots, stake, spin.Payout)
	if err != nil {
		return nil, err
	}
	return &SlotsRound{
		RoundID: st.RoundID,
		Reels:   spin.Reels,
		Stake:   stake,
		Payout:  spin.Payout,
		Net:     st.Net(),
		Result:  st.Result,
		Balance: res.Balance,
	}, nil
}

// PlayDice rolls one die. A zero stake uses the remembered bet.
func (s *CasinoService) PlayDice(ctx context.Context, p domain.Player, stake int64) (*DiceRound, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	stake, err := s.stakeFor(ctx, p.UserID, domain.KindDice, stake)
	if err != nil {
		return nil, err
	}

	roll := dice.Roll(s.rng, stake)
	st, res, err := s.playInstant(ctx, p, domain.KindDice, stake, roll.Payout)
	if err != nil {
		return nil, err
	}
	return &DiceRound{
		RoundID: st.RoundID,
		Face:    roll.Face,
		Stake:   stake,
		Payout:  roll.Payout,
		Net:     st.Net(),
		Result:  st.Result,
		Balance: res.Balance,
	}, nil
}

// PlayRoulette spins against the user's standing selection.
func (s *CasinoService) PlayRoulette(ctx context.Context, p domain.Player, stake int64) (*RouletteRound, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	stake, err := s.stakeFor(ctx, p.UserID, domain.KindRoulette, stake)
	if err != nil {
		return nil, err
	}

	spin, err := roulette.Spin(s.rng, stake, s.RouletteSelection(p.UserID))
	if err != nil {
		return nil, err
	}
	st, res, err := s.playInstant(ctx, p, domain.KindRoulette, stake, spin.Payout)
	if err != nil {
		return nil, err
	}
	return &RouletteRound{
		RoundID: st.RoundID,
		Spin:    spin,
		Stake:   stake,
		Net:     st.Net(),
		Result:  st.Result,
		Balance: res.Balance,
	}, nil
}

// --- Leaderboards ---

// TopBalances ranks guild members by balance.
func (s *CasinoService) TopBalances(ctx context.Context, guildID string, limit int) ([]domain.BalanceEntry, error) {
	if err := domain.ValidateIdentity("guild", guildID); err != nil {
		return nil, err
	}
	return s.ledger.TopBalances(ctx, guildID, clampLimit(limit))
}

// TopStats ranks guild members on metric within scope.
func (s *CasinoService) TopStats(ctx context.Context, guildID string, scope domain.StatScope, metric domain.Metric, limit int) ([]domain.StatLine, error) {
	if err := domain.ValidateIdentity("guild", guildID); err != nil {
		return nil, err
	}
	if _, err := domain.ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	lines, err := s.ledger.StatLines(ctx, guildID, scope)
	if err != nil {
		return nil, err
	}
	return domain.RankStats(lines, metric, clampLimit(limit)), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	return min(limit, MaxLeaderboardLimit)
}

// --- Idle sessions ---

// SweepIdle forfeits blackjack and mines sessions idle for longer than the
// configured timeout, recording each as a loss. It returns how many were
// closed. Roulette selections past SelectionTTL are dropped on the same pass.
func (s *CasinoService) SweepIdle(ctx context.Context) (int, error) {
	if n := s.evictSelections(s.cfg.SelectionTTL); n > 0 {
		s.logger.Debug("stale roulette selections dropped", "count", n)
	}
	return s.sweep(ctx, s.cfg.IdleTimeout)
}

// SweepAll forfeits every open session. Used at shutdown.
func (s *CasinoService) SweepAll(ctx context.Context) (int, error) {
	return s.sweep(ctx, 0)
}

func (s *CasinoService) sweep(ctx context.Context, idle time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := s.blackjack.Sweep(idle, func(userID string, bs *blackjackSession) error {
		if !bs.game.Settled() {
			if err := bs.game.Forfeit(); err != nil {
				return err
			}
		}
		return s.settleBlackjack(ctx, bs)
	})
	n += s.mines.Sweep(idle, func(userID string, ms *minesSession) error {
		if ms.game.Active() {
			if _, err := ms.game.Forfeit(); err != nil {
				return err
			}
		}
		return s.settleMines(ctx, ms)
	})
	return n, nil
}

// ActiveSessions returns the number of live blackjack and mines sessions.
func (s *CasinoService) ActiveSessions() int {
	return s.blackjack.Len() + s.mines.Len()
}
