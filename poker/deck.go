package poker

import "math/rand/v2"

// Deck deals cards from a Fisher-Yates shuffled copy of the configured deck.
type Deck struct {
	cards []Card
	next  int
	rng   *rand.Rand
}

// NewDeck creates a shuffled deck using the provided RNG.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: deckMode.FullHand().Cards(), rng: rng}
	d.Shuffle()
	return d
}

// Shuffle reshuffles the full deck and rewinds dealing.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw deals a single card. Panics when the deck is exhausted.
func (d *Deck) Draw() Card {
	if d.next >= len(d.cards) {
		panic("deck exhausted")
	}
	c := d.cards[d.next]
	d.next++
	return c
}

// Deal deals n cards as a hand.
func (d *Deck) Deal(n int) Hand {
	var h Hand
	for i := 0; i < n; i++ {
		h = h.Add(d.Draw().Hand())
	}
	return h
}

// Remaining reports how many cards are left.
func (d *Deck) Remaining() int { return len(d.cards) - d.next }
