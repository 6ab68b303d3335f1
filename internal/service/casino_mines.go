package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/game/mines"
)

type minesSession struct {
	player  domain.Player
	roundID uuid.UUID
	game    *mines.Game
	balance int64
	result  *domain.SettlementResult
}

// MinesView is a snapshot of a mines board.
type MinesView struct {
	RoundID uuid.UUID      `json:"round_id"`
	GuildID string         `json:"guild_id"`
	Board   mines.Snapshot `json:"board"`
	HitMine bool           `json:"hit_mine"`
	Balance int64          `json:"balance"`
	Settled bool           `json:"settled"`
}

func (ms *minesSession) view() *MinesView {
	return &MinesView{
		RoundID: ms.roundID,
		GuildID: ms.player.GuildID,
		Board:   ms.game.Snapshot(),
		HitMine: ms.game.State() == mines.StateBusted,
		Balance: ms.balance,
		Settled: ms.result != nil,
	}
}

// StartMines debits the stake and lays a fresh board.
func (s *CasinoService) StartMines(ctx context.Context, p domain.Player, stake int64) (*MinesView, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	stake, err := s.stakeFor(ctx, p.UserID, domain.KindMines, stake)
	if err != nil {
		return nil, err
	}

	ms, err := s.mines.Start(p.UserID, func() (*minesSession, bool, error) {
		game, err := mines.New(stake, s.cfg.Mines, s.rng)
		if err != nil {
			return nil, false, domain.ErrInternal("new mines board", err)
		}
		bal, err := s.ledger.PlaceStake(ctx, p.UserID, stake)
		if err != nil {
			return nil, false, err
		}
		return &minesSession{
			player:  p,
			roundID: uuid.New(),
			game:    game,
			balance: bal,
		}, true, nil
	})
	if err != nil {
		return nil, err
	}
	return ms.view(), nil
}

// RevealMine uncovers cell idx. Hitting a mine settles the round as a loss.
func (s *CasinoService) RevealMine(ctx context.Context, userID string, idx int) (*MinesView, error) {
	return s.actMines(ctx, userID, func(g *mines.Game) error {
		_, err := g.Reveal(idx)
		return err
	})
}

// CashOutMines pays floor(stake × multiplier) and ends the round.
func (s *CasinoService) CashOutMines(ctx context.Context, userID string) (*MinesView, error) {
	return s.actMines(ctx, userID, func(g *mines.Game) error {
		_, err := g.CashOut()
		return err
	})
}

// ForfeitMines abandons the board as a loss.
func (s *CasinoService) ForfeitMines(ctx context.Context, userID string) (*MinesView, error) {
	return s.actMines(ctx, userID, func(g *mines.Game) error {
		_, err := g.Forfeit()
		return err
	})
}

func (s *CasinoService) actMines(ctx context.Context, userID string, move func(*mines.Game) error) (*MinesView, error) {
	var view *MinesView
	err := s.mines.Do(userID, func(ms *minesSession) (bool, error) {
		if ms.game.Active() {
			if err := move(ms.game); err != nil {
				return false, err
			}
		}
		if ms.game.Active() {
			view = ms.view()
			return false, nil
		}
		err := s.settleMines(ctx, ms)
		view = ms.view()
		return err == nil, err
	})
	return view, err
}

// Mines returns the user's live board.
func (s *CasinoService) Mines(userID string) (*MinesView, error) {
	var view *MinesView
	if !s.mines.Peek(userID, func(ms *minesSession) { view = ms.view() }) {
		return nil, domain.ErrIllegalState("no active mines game")
	}
	return view, nil
}

func (s *CasinoService) settleMines(ctx context.Context, ms *minesSession) error {
	if ms.result != nil {
		return nil
	}
	out := ms.game.Outcome()
	res, err := s.settle(ctx, domain.Settlement{
		RoundID: ms.roundID,
		GuildID: ms.player.GuildID,
		UserID:  ms.player.UserID,
		Kind:    domain.KindMines,
		Stake:   ms.game.Stake(),
		Payout:  out.Payout,
		Result:  out.Result,
	})
	if err != nil {
		return err
	}
	ms.result = res
	ms.balance = res.Balance
	return nil
}
