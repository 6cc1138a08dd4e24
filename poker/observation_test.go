package poker

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationValidation(t *testing.T) {
	_, err := NewObservation(MustHand("As"), 0)
	assert.Error(t, err, "one card pocket")

	_, err = NewObservation(MustHand("As Kh"), MustHand("Qd Jc"))
	assert.Error(t, err, "two card board")

	_, err = NewObservation(MustHand("As Kh"), MustHand("As Qd Jc"))
	assert.Error(t, err, "pocket card on the board")

	o, err := NewObservation(MustHand("As Kh"), MustHand("Qd Jc Ts"))
	require.NoError(t, err)
	assert.Equal(t, Flop, o.Street())
}

func TestObservationStreets(t *testing.T) {
	pocket := MustHand("As Kh")
	tests := []struct {
		board string
		want  Street
	}{
		{"", Preflop},
		{"Qd Jc Ts", Flop},
		{"Qd Jc Ts 2h", Turn},
		{"Qd Jc Ts 2h 3d", River},
	}
	for _, tt := range tests {
		var board Hand
		if tt.board != "" {
			board = MustHand(tt.board)
		}
		o := MustObservation(pocket, board)
		assert.Equal(t, tt.want, o.Street())
	}
}

func TestObservationEncodeBijection(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		deck := NewDeck(rng)
		pocket := deck.Deal(2)
		public := deck.Deal(5)
		o := MustObservation(pocket, public)
		back, err := DecodeObservation(o.Encode())
		require.NoError(t, err)
		assert.Equal(t, o, back)
	}

	// Preflop observations round-trip with an empty board.
	o := MustObservation(MustHand("As Kh"), 0)
	back, err := DecodeObservation(o.Encode())
	require.NoError(t, err)
	assert.Equal(t, o, back)
}

func TestObservationEncodeRejectsGarbage(t *testing.T) {
	_, err := DecodeObservation(int64(0xFF))
	assert.Error(t, err)
}

func TestObservationChildren(t *testing.T) {
	turn := MustObservation(MustHand("As Kh"), MustHand("Qd Jc Ts 2h"))
	children := turn.Children()
	assert.Len(t, children, 46)
	for _, c := range children {
		assert.Equal(t, River, c.Street())
		assert.True(t, c.Public().Contains(turn.Public()))
		assert.Equal(t, turn.Pocket(), c.Pocket())
	}

	flop := MustObservation(MustHand("As Kh"), MustHand("Qd Jc Ts"))
	assert.Len(t, flop.Children(), 47)

	pre := MustObservation(MustHand("As Kh"), 0)
	assert.Len(t, pre.Children(), 19600) // C(50,3)
}

func TestEquityExtremes(t *testing.T) {
	// Hero holds the unbeatable royal flush.
	nuts := MustObservation(MustHand("As Ks"), MustHand("Qs Js Ts 2h 3d"))
	assert.InDelta(t, 1.0, nuts.Equity(), 1e-6)

	// The board plays: every matchup ties.
	tie := MustObservation(MustHand("2h 3d"), MustHand("As Ks Qs Js Ts"))
	assert.InDelta(t, 0.5, tie.Equity(), 1e-6)
}

func TestEquityNeverWinning(t *testing.T) {
	// The board plays for hero: every opponent ties or wins, so hero never
	// wins a matchup.
	o := MustObservation(MustHand("2h 3d"), MustHand("As Ah Ks Kh 7c"))
	eq := o.Equity()
	assert.GreaterOrEqual(t, eq, float32(0))
	assert.Less(t, eq, float32(0.05))
}

func TestHandIterator(t *testing.T) {
	it := NewHandIterator(2, 0)
	assert.Equal(t, 1326, it.Count())
	seen := make(map[Hand]bool)
	for {
		h, ok := it.Next()
		if !ok {
			break
		}
		assert.Equal(t, 2, h.Size())
		assert.False(t, seen[h], "duplicate hand")
		seen[h] = true
	}
	assert.Len(t, seen, 1326)

	// Removal shrinks the space: C(50,2).
	it = NewHandIterator(2, MustHand("As Kh"))
	assert.Equal(t, 1225, it.Count())
}

func TestExhaustPreflop(t *testing.T) {
	it := Exhaust(Preflop)
	n := 0
	for {
		o, ok := it.Next()
		if !ok {
			break
		}
		assert.Equal(t, Preflop, o.Street())
		n++
	}
	assert.Equal(t, 1326, n)
}

func TestPocketsSharding(t *testing.T) {
	pockets := Pockets()
	assert.Len(t, pockets, 1326)
	boards := BoardsFor(Flop, pockets[0])
	assert.Equal(t, 19600, boards.Count())
}
