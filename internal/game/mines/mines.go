// Package mines implements the reveal-and-cash-out grid game.
package mines

import (
	"fmt"
	"math"
	"sort"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/rng"
)

// Config sizes the board.
type Config struct {
	Rows      int
	Cols      int
	Mines     int
	HouseEdge float64
}

// DefaultConfig is a 4×5 board with 5 mines and a 4% edge.
var DefaultConfig = Config{Rows: 4, Cols: 5, Mines: 5, HouseEdge: 0.04}

// Cells is the board size.
func (c Config) Cells() int { return c.Rows * c.Cols }

// SafeCells is the number of non-mine cells.
func (c Config) SafeCells() int { return c.Cells() - c.Mines }

// Validate rejects boards with no safe cell or no mine.
func (c Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("mines: board must have positive dimensions, got %dx%d", c.Rows, c.Cols)
	}
	if c.Mines <= 0 || c.Mines >= c.Cells() {
		return fmt.Errorf("mines: mine count %d must be in [1, %d)", c.Mines, c.Cells())
	}
	if c.HouseEdge < 0 || c.HouseEdge >= 1 {
		return fmt.Errorf("mines: house edge %v must be in [0, 1)", c.HouseEdge)
	}
	return nil
}

// State of a board.
type State string

const (
	StateActive    State = "active"
	StateCashedOut State = "cashed_out"
	StateBusted    State = "busted"
	StateForfeited State = "forfeited"
)

// Outcome is the priced result of a finished board.
type Outcome struct {
	Result domain.ResultKind `json:"result"`
	Payout int64             `json:"payout"`
	Net    int64             `json:"net"`
}

// Game is one board. Not safe for concurrent use.
type Game struct {
	cfg          Config
	stake        int64
	mines        map[int]bool
	revealed     map[int]bool
	safeRevealed int
	multiplier   float64
	state        State
	outcome      Outcome
}

// New places cfg.Mines mines uniformly at random.
func New(stake int64, cfg Config, src rng.Source) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWithMines(stake, cfg, rng.Sample(src, cfg.Cells(), cfg.Mines))
}

// NewWithMines builds a board with a fixed mine layout.
func NewWithMines(stake int64, cfg Config, mines []int) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		cfg:        cfg,
		stake:      stake,
		mines:      make(map[int]bool, len(mines)),
		revealed:   make(map[int]bool),
		multiplier: 1.0,
		state:      StateActive,
	}
	for _, idx := range mines {
		if idx < 0 || idx >= cfg.Cells() {
			return nil, fmt.Errorf("mines: mine index %d outside board", idx)
		}
		g.mines[idx] = true
	}
	if len(g.mines) != cfg.Mines {
		return nil, fmt.Errorf("mines: want %d distinct mines, got %d", cfg.Mines, len(g.mines))
	}
	return g, nil
}

// Reveal uncovers idx. It reports true when idx was a mine, which ends the
// board as a loss.
func (g *Game) Reveal(idx int) (bool, error) {
	if g.state != StateActive {
		return false, domain.ErrIllegalState("no active mines game")
	}
	if idx < 0 || idx >= g.cfg.Cells() {
		return false, domain.ErrInvalidSelection(fmt.Sprintf("cell %d outside board of %d", idx, g.cfg.Cells()))
	}
	if g.revealed[idx] {
		return false, domain.ErrIllegalState(fmt.Sprintf("cell %d already revealed", idx))
	}

	if g.mines[idx] {
		g.finish(StateBusted, domain.ResultLoss, 0)
		return true, nil
	}

	cellsLeftBefore := g.cfg.Cells() - len(g.revealed)
	safeLeftBefore := g.cfg.SafeCells() - g.safeRevealed

	g.revealed[idx] = true
	g.safeRevealed++
	if cellsLeftBefore > 0 && safeLeftBefore > 0 {
		g.multiplier *= float64(cellsLeftBefore) / float64(safeLeftBefore) * (1 - g.cfg.HouseEdge)
	}
	return false, nil
}

// CashOut pays floor(stake × multiplier).
func (g *Game) CashOut() (Outcome, error) {
	if g.state != StateActive {
		return Outcome{}, domain.ErrIllegalState("no active mines game to cash out")
	}
	payout := g.Potential()
	g.finish(StateCashedOut, domain.ResultFromNet(payout-g.stake), payout)
	return g.outcome, nil
}

// Forfeit abandons the board as a loss.
func (g *Game) Forfeit() (Outcome, error) {
	if g.state != StateActive {
		return Outcome{}, domain.ErrIllegalState("no active mines game to forfeit")
	}
	g.finish(StateForfeited, domain.ResultLoss, 0)
	return g.outcome, nil
}

func (g *Game) finish(state State, result domain.ResultKind, payout int64) {
	g.state = state
	g.outcome = Outcome{Result: result, Payout: payout, Net: payout - g.stake}
}

// Potential is the amount a cash-out would pay now.
func (g *Game) Potential() int64 {
	return int64(math.Floor(float64(g.stake) * g.multiplier))
}

// Multiplier returns the running multiplier.
func (g *Game) Multiplier() float64 { return g.multiplier }

// State returns the board state.
func (g *Game) State() State { return g.state }

// Active reports whether the board still accepts reveals.
func (g *Game) Active() bool { return g.state == StateActive }

// Stake returns the wager.
func (g *Game) Stake() int64 { return g.stake }

// Outcome returns the result; zero while Active.
func (g *Game) Outcome() Outcome { return g.outcome }

// Snapshot is an immutable view of the board. Mines are listed only once
// the board is finished.
type Snapshot struct {
	State      State    `json:"state"`
	Rows       int      `json:"rows"`
	Cols       int      `json:"cols"`
	MineCount  int      `json:"mine_count"`
	Stake      int64    `json:"stake"`
	Multiplier float64  `json:"multiplier"`
	Potential  int64    `json:"potential"`
	Revealed   []int    `json:"revealed"`
	Mines      []int    `json:"mines,omitempty"`
	Outcome    *Outcome `json:"outcome,omitempty"`
}

// Snapshot copies the board.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		State:      g.state,
		Rows:       g.cfg.Rows,
		Cols:       g.cfg.Cols,
		MineCount:  g.cfg.Mines,
		Stake:      g.stake,
		Multiplier: g.multiplier,
		Potential:  g.Potential(),
		Revealed:   sortedKeys(g.revealed),
	}
	if g.state != StateActive {
		s.Mines = sortedKeys(g.mines)
		out := g.outcome
		s.Outcome = &out
	}
	return s
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
