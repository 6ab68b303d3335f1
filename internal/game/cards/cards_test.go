package cards

import (
	"testing"

	"github.com/guildcasino/casino/internal/rng"
	"github.com/stretchr/testify/assert"
)

func hand(ranks ...string) Hand {
	h := make(Hand, len(ranks))
	for i, r := range ranks {
		h[i] = NewCard(r, Spades)
	}
	return h
}

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	assert.Len(t, deck, 52)

	seen := make(map[Card]bool)
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
	assert.Equal(t, "A♠", deck[0].String())
	assert.Equal(t, "K♣", deck[51].String())
}

func TestNewShoe_SameCards(t *testing.T) {
	shoe := NewShoe(rng.Seeded(11))
	assert.Len(t, shoe, 52)
	assert.ElementsMatch(t, NewDeck(), shoe)
}

func TestHand_Value(t *testing.T) {
	tests := []struct {
		name  string
		hand  Hand
		value int
	}{
		{"empty", hand(), 0},
		{"face cards", hand("K", "Q"), 20},
		{"soft 17", hand("A", "6"), 17},
		{"ace demoted", hand("A", "6", "9"), 16},
		{"two aces", hand("A", "A"), 12},
		{"three aces and nine", hand("A", "A", "A", "9"), 12},
		{"ace and ten", hand("A", "10"), 21},
		{"hard bust", hand("K", "Q", "5"), 25},
		{"aces cannot save", hand("A", "K", "Q", "5"), 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, tt.hand.Value())
		})
	}
}

func TestHand_IsBlackjack(t *testing.T) {
	assert.True(t, hand("A", "K").IsBlackjack())
	assert.True(t, hand("10", "A").IsBlackjack())
	assert.False(t, hand("7", "7", "7").IsBlackjack(), "three-card 21 is not blackjack")
	assert.False(t, hand("A", "9").IsBlackjack())
}

func TestHand_IsBust(t *testing.T) {
	assert.True(t, hand("K", "Q", "2").IsBust())
	assert.False(t, hand("A", "K", "Q").IsBust())
}

func TestHand_String(t *testing.T) {
	assert.Equal(t, "A♠ | 10♠", hand("A", "10").String())
}
