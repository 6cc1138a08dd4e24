package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardLayout(t *testing.T) {
	c := NewCard(Ace, Spades)
	assert.Equal(t, Card(4*12+3), c)
	assert.Equal(t, Ace, c.Rank())
	assert.Equal(t, Spades, c.Suit())
	assert.Equal(t, "As", c.String())

	c = NewCard(Two, Clubs)
	assert.Equal(t, Card(0), c)
	assert.Equal(t, "2c", c.String())
}

func TestParseCard(t *testing.T) {
	tests := []struct {
		in   string
		rank uint8
		suit uint8
	}{
		{"As", Ace, Spades},
		{"Kh", King, Hearts},
		{"Td", Ten, Diamonds},
		{"2c", Two, Clubs},
		{"9s", Nine, Spades},
	}
	for _, tt := range tests {
		c, err := ParseCard(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.rank, c.Rank(), tt.in)
		assert.Equal(t, tt.suit, c.Suit(), tt.in)
		assert.Equal(t, tt.in, c.String())
	}

	_, err := ParseCard("Xx")
	assert.Error(t, err)
	_, err = ParseCard("A")
	assert.Error(t, err)
}

func TestHandMasks(t *testing.T) {
	h := MustHand("As Ah Kd 2c")
	assert.Equal(t, 4, h.Size())

	// Rank mask collapses suits.
	assert.Equal(t, uint16(1<<Ace|1<<King|1<<Two), h.RankMask())

	// Suit planes are disjoint views.
	assert.Equal(t, uint16(1<<Ace), h.SuitMask(Spades))
	assert.Equal(t, uint16(1<<Ace), h.SuitMask(Hearts))
	assert.Equal(t, uint16(1<<King), h.SuitMask(Diamonds))
	assert.Equal(t, uint16(1<<Two), h.SuitMask(Clubs))
}

func TestHandAddRemove(t *testing.T) {
	a := MustHand("As Kh")
	b := MustHand("Qd")
	sum := a.Add(b)
	assert.Equal(t, 3, sum.Size())
	assert.True(t, sum.Contains(a))
	assert.True(t, sum.Contains(b))
	assert.Equal(t, a, sum.Remove(b))
}

func TestHandCardsRoundTrip(t *testing.T) {
	h := MustHand("2c 7d Jh As")
	var back Hand
	for _, c := range h.Cards() {
		back = back.Add(c.Hand())
	}
	assert.Equal(t, h, back)
	assert.Equal(t, "2c 7d Jh As", h.String())
}

func TestDeckModes(t *testing.T) {
	assert.Equal(t, 52, FullDeck.DeckSize())
	assert.Equal(t, 36, ShortDeck.DeckSize())
	assert.Equal(t, 52, FullDeck.FullHand().Size())
	assert.Equal(t, 36, ShortDeck.FullHand().Size())
	assert.False(t, ShortDeck.FullHand().Contains(MustHand("5c")))
	assert.True(t, ShortDeck.FullHand().Contains(MustHand("6c")))
	assert.Equal(t, Five, FullDeck.LowestStraightRank())
	assert.Equal(t, Nine, ShortDeck.LowestStraightRank())
}
