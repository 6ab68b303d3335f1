package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/game/blackjack"
)

type blackjackSession struct {
	player  domain.Player
	roundID uuid.UUID
	game    *blackjack.Game
	balance int64
	result  *domain.SettlementResult
}

// BlackjackView is a snapshot of a blackjack round.
type BlackjackView struct {
	RoundID uuid.UUID          `json:"round_id"`
	GuildID string             `json:"guild_id"`
	Table   blackjack.Snapshot `json:"table"`
	Balance int64              `json:"balance"`
	Settled bool               `json:"settled"`
}

func (bs *blackjackSession) view() *BlackjackView {
	return &BlackjackView{
		RoundID: bs.roundID,
		GuildID: bs.player.GuildID,
		Table:   bs.game.Snapshot(),
		Balance: bs.balance,
		Settled: bs.result != nil,
	}
}

// StartBlackjack debits the stake and deals. A natural on either side
// settles immediately and leaves no session behind.
func (s *CasinoService) StartBlackjack(ctx context.Context, p domain.Player, stake int64) (*BlackjackView, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	stake, err := s.stakeFor(ctx, p.UserID, domain.KindBlackjack, stake)
	if err != nil {
		return nil, err
	}

	var settleErr error
	bs, err := s.blackjack.Start(p.UserID, func() (*blackjackSession, bool, error) {
		bal, err := s.ledger.PlaceStake(ctx, p.UserID, stake)
		if err != nil {
			return nil, false, err
		}
		bs := &blackjackSession{
			player:  p,
			roundID: uuid.New(),
			game:    blackjack.Deal(stake, s.rng),
			balance: bal,
		}
		if !bs.game.Settled() {
			return bs, true, nil
		}
		// keep the round around for a retry if settling fails
		settleErr = s.settleBlackjack(ctx, bs)
		return bs, settleErr != nil, nil
	})
	if err != nil {
		return nil, err
	}
	return bs.view(), settleErr
}

// HitBlackjack draws a card for the player.
func (s *CasinoService) HitBlackjack(ctx context.Context, userID string) (*BlackjackView, error) {
	return s.actBlackjack(ctx, userID, (*blackjack.Game).Hit)
}

// StandBlackjack ends the player's turn and plays out the dealer.
func (s *CasinoService) StandBlackjack(ctx context.Context, userID string) (*BlackjackView, error) {
	return s.actBlackjack(ctx, userID, (*blackjack.Game).Stand)
}

// actBlackjack applies move and settles once the round is over. A round
// whose settlement failed earlier is retried instead of moving.
func (s *CasinoService) actBlackjack(ctx context.Context, userID string, move func(*blackjack.Game) error) (*BlackjackView, error) {
	var view *BlackjackView
	err := s.blackjack.Do(userID, func(bs *blackjackSession) (bool, error) {
		if !bs.game.Settled() {
			if err := move(bs.game); err != nil {
				return false, err
			}
		}
		if !bs.game.Settled() {
			view = bs.view()
			return false, nil
		}
		err := s.settleBlackjack(ctx, bs)
		view = bs.view()
		return err == nil, err
	})
	return view, err
}

// Blackjack returns the user's live round.
func (s *CasinoService) Blackjack(userID string) (*BlackjackView, error) {
	var view *BlackjackView
	if !s.blackjack.Peek(userID, func(bs *blackjackSession) { view = bs.view() }) {
		return nil, domain.ErrIllegalState("no active blackjack game")
	}
	return view, nil
}

func (s *CasinoService) settleBlackjack(ctx context.Context, bs *blackjackSession) error {
	if bs.result != nil {
		return nil
	}
	out := bs.game.Outcome()
	res, err := s.settle(ctx, domain.Settlement{
		RoundID: bs.roundID,
		GuildID: bs.player.GuildID,
		UserID:  bs.player.UserID,
		Kind:    domain.KindBlackjack,
		Stake:   bs.game.Stake(),
		Payout:  out.Payout,
		Result:  out.Result,
	})
	if err != nil {
		return err
	}
	bs.result = res
	bs.balance = res.Balance
	return nil
}

// settle applies st once. A CONFLICT means an earlier attempt committed
// after reporting failure, so the round counts as settled.
func (s *CasinoService) settle(ctx context.Context, st domain.Settlement) (*domain.SettlementResult, error) {
	res, err := s.ledger.Settle(ctx, st)
	if err == nil {
		return res, nil
	}
	if !domain.IsCode(err, domain.CodeConflict) {
		return nil, err
	}
	bal, balErr := s.ledger.Balance(ctx, st.UserID)
	if balErr != nil {
		return nil, balErr
	}
	s.logger.Warn("round already settled", "round_id", st.RoundID, "user_id", st.UserID)
	return &domain.SettlementResult{RoundID: st.RoundID, Balance: bal}, nil
}
