// Package blackjack implements a single-hand blackjack round against a
// dealer who stands on 17.
package blackjack

import (
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/game/cards"
	"github.com/guildcasino/casino/internal/rng"
)

// DealerStandsOn is the total at which the dealer stops drawing.
const DealerStandsOn = 17

// State of a round. Dealing and the dealer's turn run to completion inside
// Deal and Stand, so callers only observe PlayerTurn and Settled.
type State string

const (
	StatePlayerTurn State = "player_turn"
	StateSettled    State = "settled"
)

// Reason explains how a settled round ended.
type Reason string

const (
	ReasonNatural     Reason = "natural"
	ReasonNaturalPush Reason = "natural_push"
	ReasonPlayerBust  Reason = "player_bust"
	ReasonDealerBust  Reason = "dealer_bust"
	ReasonHigherTotal Reason = "higher_total"
	ReasonLowerTotal  Reason = "lower_total"
	ReasonEqualTotal  Reason = "equal_total"
	ReasonForfeit     Reason = "forfeit"
)

// Outcome is the priced result of a settled round.
type Outcome struct {
	Result domain.ResultKind `json:"result"`
	Reason Reason            `json:"reason"`
	Payout int64             `json:"payout"`
	Net    int64             `json:"net"`
}

// Game is one round. It is not safe for concurrent use; the session
// registry serializes access per player.
type Game struct {
	stake   int64
	shoe    []cards.Card
	player  cards.Hand
	dealer  cards.Hand
	state   State
	outcome Outcome
}

// Deal shuffles a fresh shoe and deals the opening hands.
func Deal(stake int64, src rng.Source) *Game {
	return NewGame(stake, cards.NewShoe(src))
}

// NewGame deals from shoe, taking cards from the end: player, dealer,
// player, dealer. A player natural settles the round immediately.
func NewGame(stake int64, shoe []cards.Card) *Game {
	g := &Game{
		stake: stake,
		shoe:  append([]cards.Card(nil), shoe...),
		state: StatePlayerTurn,
	}

	g.player = append(g.player, g.draw())
	g.dealer = append(g.dealer, g.draw())
	g.player = append(g.player, g.draw())
	g.dealer = append(g.dealer, g.draw())

	if g.player.IsBlackjack() {
		if g.dealer.IsBlackjack() {
			g.settle(domain.ResultPush, ReasonNaturalPush, g.stake)
		} else {
			g.settle(domain.ResultWin, ReasonNatural, g.stake+NaturalBonus(g.stake))
		}
	}
	return g
}

// NaturalBonus is the 3:2 win on a natural, rounded down.
func NaturalBonus(stake int64) int64 {
	return stake * 3 / 2
}

func (g *Game) draw() cards.Card {
	n := len(g.shoe)
	c := g.shoe[n-1]
	g.shoe = g.shoe[:n-1]
	return c
}

func (g *Game) settle(result domain.ResultKind, reason Reason, payout int64) {
	g.state = StateSettled
	g.outcome = Outcome{
		Result: result,
		Reason: reason,
		Payout: payout,
		Net:    payout - g.stake,
	}
}

// Hit draws one card for the player. Going over 21 loses the stake.
func (g *Game) Hit() error {
	if g.state != StatePlayerTurn {
		return domain.ErrIllegalState("no active hand")
	}
	g.player = append(g.player, g.draw())
	if g.player.IsBust() {
		g.settle(domain.ResultLoss, ReasonPlayerBust, 0)
	}
	return nil
}

// Stand plays out the dealer's hand and settles the round.
func (g *Game) Stand() error {
	if g.state != StatePlayerTurn {
		return domain.ErrIllegalState("no active hand")
	}
	for g.dealer.Value() < DealerStandsOn {
		g.dealer = append(g.dealer, g.draw())
	}

	pv, dv := g.player.Value(), g.dealer.Value()
	switch {
	case dv > 21:
		g.settle(domain.ResultWin, ReasonDealerBust, 2*g.stake)
	case pv > dv:
		g.settle(domain.ResultWin, ReasonHigherTotal, 2*g.stake)
	case pv == dv:
		g.settle(domain.ResultPush, ReasonEqualTotal, g.stake)
	default:
		g.settle(domain.ResultLoss, ReasonLowerTotal, 0)
	}
	return nil
}

// Forfeit abandons an unfinished hand as a loss.
func (g *Game) Forfeit() error {
	if g.state != StatePlayerTurn {
		return domain.ErrIllegalState("no active hand")
	}
	g.settle(domain.ResultLoss, ReasonForfeit, 0)
	return nil
}

// State returns the round state.
func (g *Game) State() State { return g.state }

// Settled reports whether the round is over.
func (g *Game) Settled() bool { return g.state == StateSettled }

// Stake returns the wager.
func (g *Game) Stake() int64 { return g.stake }

// Outcome returns the settled result; zero until Settled.
func (g *Game) Outcome() Outcome { return g.outcome }

// Snapshot is an immutable view of the table for renderers.
type Snapshot struct {
	State       State      `json:"state"`
	Stake       int64      `json:"stake"`
	Player      cards.Hand `json:"player"`
	PlayerTotal int        `json:"player_total"`
	Dealer      cards.Hand `json:"dealer"`
	DealerTotal int        `json:"dealer_total,omitempty"`
	HoleHidden  bool       `json:"hole_hidden"`
	Outcome     *Outcome   `json:"outcome,omitempty"`
}

// Snapshot copies the table. While the player is acting only the dealer's
// up card is shown.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		State:       g.state,
		Stake:       g.stake,
		Player:      append(cards.Hand(nil), g.player...),
		PlayerTotal: g.player.Value(),
	}
	if g.state == StatePlayerTurn {
		s.Dealer = cards.Hand{g.dealer[0]}
		s.HoleHidden = true
		return s
	}
	s.Dealer = append(cards.Hand(nil), g.dealer...)
	s.DealerTotal = g.dealer.Value()
	out := g.outcome
	s.Outcome = &out
	return s
}
