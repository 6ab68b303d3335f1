// Package cards models a standard 52-card deck and blackjack hand values.
package cards

import (
	"strings"

	"github.com/guildcasino/casino/internal/rng"
)

// Suit of a card.
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Suits in deck-building order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Ranks in deck-building order.
var Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

var rankValues = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 10, "Q": 10, "K": 10, "A": 11,
}

// Card is a single playing card.
type Card struct {
	Rank string `json:"rank"`
	Suit Suit   `json:"suit"`
}

// NewCard creates a card.
func NewCard(rank string, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

func (c Card) String() string {
	return c.Rank + string(c.Suit)
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.Rank == "A"
}

// Value is the card's blackjack value with aces counted as 11.
func (c Card) Value() int {
	return rankValues[c.Rank]
}

// NewDeck returns the 52 cards as the suit×rank cross product, unshuffled.
func NewDeck() []Card {
	deck := make([]Card, 0, len(Suits)*len(Ranks))
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, NewCard(r, s))
		}
	}
	return deck
}

// NewShoe returns a freshly shuffled deck.
func NewShoe(src rng.Source) []Card {
	deck := NewDeck()
	rng.Shuffle(src, deck)
	return deck
}

// Hand is an ordered sequence of cards.
type Hand []Card

// Value totals the hand counting aces as 11, then demotes aces to 1 one at
// a time while the total exceeds 21.
func (h Hand) Value() int {
	total, aces := 0, 0
	for _, c := range h {
		total += c.Value()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsBlackjack reports a two-card 21.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && h.Value() == 21
}

// IsBust reports a total over 21.
func (h Hand) IsBust() bool {
	return h.Value() > 21
}

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " | ")
}
