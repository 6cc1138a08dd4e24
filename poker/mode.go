package poker

// DeckMode selects between the 52-card and 36-card game. The mode is fixed
// once at startup and changes only the deck composition and the wheel
// straight; rank indices stay the same in both modes.
type DeckMode uint8

const (
	FullDeck DeckMode = iota
	ShortDeck
)

var deckMode = FullDeck

// SetDeckMode configures the process-wide deck mode. Call before any deck or
// evaluator use; switching mid-run mixes incompatible abstractions.
func SetDeckMode(m DeckMode) { deckMode = m }

// Mode returns the configured deck mode.
func Mode() DeckMode { return deckMode }

// ParseDeckMode maps the config strings "full" and "short".
func ParseDeckMode(s string) (DeckMode, bool) {
	switch s {
	case "", "full":
		return FullDeck, true
	case "short":
		return ShortDeck, true
	}
	return FullDeck, false
}

func (m DeckMode) String() string {
	if m == ShortDeck {
		return "short"
	}
	return "full"
}

// Wheel is the rank mask of the low straight: A-2-3-4-5 in the full deck,
// A-6-7-8-9 in short deck.
func (m DeckMode) Wheel() uint16 {
	if m == ShortDeck {
		return 0b1000011110000
	}
	return 0b1000000001111
}

// LowestStraightRank is the high card reported for the wheel.
func (m DeckMode) LowestStraightRank() uint8 {
	if m == ShortDeck {
		return Nine
	}
	return Five
}

// LowestRank is the lowest rank present in the deck.
func (m DeckMode) LowestRank() uint8 {
	if m == ShortDeck {
		return Six
	}
	return Two
}

// DeckSize returns the number of cards dealt from a fresh deck.
func (m DeckMode) DeckSize() int {
	return int(NumRanks-m.LowestRank()) * NumSuits
}

// FullHand is the hand containing every card of the deck.
func (m DeckMode) FullHand() Hand {
	var h Hand
	for r := m.LowestRank(); r < NumRanks; r++ {
		for s := uint8(0); s < NumSuits; s++ {
			h = h.Add(NewCard(r, s).Hand())
		}
	}
	return h
}
