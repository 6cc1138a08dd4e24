package poker

import "fmt"

// Observation is the memoryless chance state seen by one player: a two card
// pocket plus the public board. Card order within each hand is not preserved.
type Observation struct {
	pocket Hand
	public Hand
}

// NewObservation validates and assembles an observation.
func NewObservation(pocket, public Hand) (Observation, error) {
	if pocket.Size() != 2 {
		return Observation{}, fmt.Errorf("pocket must hold 2 cards, got %d", pocket.Size())
	}
	if _, ok := StreetOf(public.Size()); !ok {
		return Observation{}, fmt.Errorf("illegal board size %d", public.Size())
	}
	if pocket&public != 0 {
		return Observation{}, fmt.Errorf("pocket and board overlap: %s / %s", pocket, public)
	}
	return Observation{pocket: pocket, public: public}, nil
}

// MustObservation is a test helper that panics on invalid input.
func MustObservation(pocket, public Hand) Observation {
	o, err := NewObservation(pocket, public)
	if err != nil {
		panic(err)
	}
	return o
}

// Pocket returns the private cards.
func (o Observation) Pocket() Hand { return o.pocket }

// Public returns the board cards.
func (o Observation) Public() Hand { return o.public }

// All returns the union of pocket and board.
func (o Observation) All() Hand { return o.pocket.Add(o.public) }

// Street derives the betting round from the board size.
func (o Observation) Street() Street {
	s, _ := StreetOf(o.public.Size())
	return s
}

// Encode packs the observation into an int64: each card as 1+id, one byte
// per card, pocket cards in the low bytes then board cards above them. The
// +1 distinguishes an absent byte from the two of clubs. The mapping is a
// bijection over legal observations.
func (o Observation) Encode() int64 {
	var acc uint64
	for _, c := range o.public.Cards() {
		acc = acc<<8 | uint64(1+uint8(c))
	}
	for _, c := range o.pocket.Cards() {
		acc = acc<<8 | uint64(1+uint8(c))
	}
	return int64(acc)
}

// DecodeObservation unpacks an Encode result.
func DecodeObservation(bits int64) (Observation, error) {
	var pocket, public Hand
	acc := uint64(bits)
	for i := 0; acc > 0; i++ {
		card := Card(uint8(acc&0xFF) - 1)
		if uint8(card) >= NumRanks*NumSuits {
			return Observation{}, fmt.Errorf("invalid card byte %#x", acc&0xFF)
		}
		if i < 2 {
			pocket = pocket.Add(card.Hand())
		} else {
			public = public.Add(card.Hand())
		}
		acc >>= 8
	}
	return NewObservation(pocket, public)
}

func (o Observation) String() string {
	return fmt.Sprintf("%s + %s", o.pocket, o.public)
}

// Children enumerates the observations reachable by dealing the next
// street's new cards.
func (o Observation) Children() []Observation {
	n := o.Street().Reveals()
	if n == 0 {
		return nil
	}
	it := NewHandIterator(n, o.All())
	out := make([]Observation, 0, it.Count())
	for {
		reveal, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, Observation{pocket: o.pocket, public: o.public.Add(reveal)})
	}
}

// Equity computes the exact river win probability against a uniform random
// opponent pocket drawn from the remaining deck. Ties are excluded from both
// sides of the fraction; 0.5 when every matchup ties.
func (o Observation) Equity() float32 {
	if o.Street() != River {
		panic("equity is defined on the river")
	}
	hero := NewStrength(o.All())
	it := NewHandIterator(2, o.All())
	var won, sum uint32
	for {
		pocket, ok := it.Next()
		if !ok {
			break
		}
		villain := NewStrength(o.public.Add(pocket))
		switch hero.Compare(villain) {
		case 1:
			won++
			sum++
		case -1:
			sum++
		}
	}
	if sum == 0 {
		return 0.5
	}
	return float32(won) / float32(sum)
}

// HandIterator lazily yields every k-card hand drawn from the deck minus a
// removed set, in ascending combinatorial order.
type HandIterator struct {
	deck []Card
	idx  []int
	done bool
}

// NewHandIterator builds an iterator over k-card subsets of the configured
// deck excluding the removed cards.
func NewHandIterator(k int, removed Hand) *HandIterator {
	deck := deckMode.FullHand().Remove(removed).Cards()
	it := &HandIterator{deck: deck, idx: make([]int, k)}
	if k > len(deck) {
		it.done = true
		return it
	}
	for i := range it.idx {
		it.idx[i] = i
	}
	return it
}

// Count returns the total number of hands the iterator will yield.
func (it *HandIterator) Count() int {
	n, k := len(it.deck), len(it.idx)
	if k > n {
		return 0
	}
	c := 1
	for i := 0; i < k; i++ {
		c = c * (n - i) / (i + 1)
	}
	return c
}

// Next yields the next hand; ok is false when exhausted.
func (it *HandIterator) Next() (Hand, bool) {
	if it.done {
		return 0, false
	}
	var h Hand
	for _, i := range it.idx {
		h = h.Add(it.deck[i].Hand())
	}
	it.advance()
	return h, true
}

func (it *HandIterator) advance() {
	n, k := len(it.deck), len(it.idx)
	if k == 0 {
		it.done = true
		return
	}
	i := k - 1
	for i >= 0 && it.idx[i] == n-k+i {
		i--
	}
	if i < 0 {
		it.done = true
		return
	}
	it.idx[i]++
	for j := i + 1; j < k; j++ {
		it.idx[j] = it.idx[j-1] + 1
	}
}

// ObservationIterator lazily yields every combinatorial (pocket, board)
// observation at a street. Suit-isomorphic reduction is not applied; the
// abstraction layers consume the raw combinatorial space.
type ObservationIterator struct {
	street  Street
	pockets *HandIterator
	boards  *HandIterator
	pocket  Hand
	done    bool
}

// Exhaust iterates every observation at the given street.
func Exhaust(street Street) *ObservationIterator {
	it := &ObservationIterator{street: street, pockets: NewHandIterator(2, 0)}
	pocket, ok := it.pockets.Next()
	if !ok {
		it.done = true
		return it
	}
	it.pocket = pocket
	it.boards = NewHandIterator(street.BoardSize(), pocket)
	return it
}

// Count returns the total number of observations at the street.
func (it *ObservationIterator) Count() int {
	pockets := NewHandIterator(2, 0)
	boards := NewHandIterator(it.street.BoardSize(), Hand(3))
	return pockets.Count() * boards.Count()
}

// Next yields the next observation; ok is false when exhausted.
func (it *ObservationIterator) Next() (Observation, bool) {
	for {
		if it.done {
			return Observation{}, false
		}
		if board, ok := it.boards.Next(); ok {
			return Observation{pocket: it.pocket, public: board}, true
		}
		pocket, ok := it.pockets.Next()
		if !ok {
			it.done = true
			return Observation{}, false
		}
		it.pocket = pocket
		it.boards = NewHandIterator(it.street.BoardSize(), pocket)
	}
}

// Pockets enumerates every two card pocket of the configured deck, in
// ascending order. Used to shard observation work across workers.
func Pockets() []Hand {
	it := NewHandIterator(2, 0)
	out := make([]Hand, 0, it.Count())
	for {
		h, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, h)
	}
}

// BoardsFor enumerates every board of the street for a fixed pocket.
func BoardsFor(street Street, pocket Hand) *HandIterator {
	return NewHandIterator(street.BoardSize(), pocket)
}
