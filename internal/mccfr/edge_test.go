package mccfr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmy12k3/robopoker/internal/game"
	"github.com/jmy12k3/robopoker/poker"
)

func TestEdgeByteBijection(t *testing.T) {
	seen := map[Edge]bool{}
	for _, e := range Edges() {
		assert.True(t, e.Valid())
		assert.False(t, seen[e], "duplicate byte for %s", e)
		seen[e] = true
		// The compact form is the byte encoding itself.
		assert.Equal(t, e, Edge(uint8(e)))
	}
	assert.Len(t, seen, 5+len(OddsGrid))
	assert.False(t, Edge(0).Valid())
	assert.False(t, Edge(16).Valid())
}

func TestEdgeU64Bijection(t *testing.T) {
	for _, e := range Edges() {
		back, err := EdgeFromU64(e.U64())
		require.NoError(t, err, e)
		assert.Equal(t, e, back)
	}

	_, err := EdgeFromU64(6)
	assert.Error(t, err, "tag 6 is unused")
	_, err = EdgeFromU64(4 | 99<<3 | 97<<11)
	assert.Error(t, err, "odds off the grid")
}

func TestEdgePredicates(t *testing.T) {
	assert.True(t, EdgeDraw.IsChance())
	assert.False(t, EdgeDraw.IsChoice())
	assert.True(t, EdgeFold.IsChoice())
	assert.True(t, EdgeShove.IsAggro())
	assert.False(t, EdgeCall.IsAggro())

	raise := RaiseEdge(5)
	assert.True(t, raise.IsRaise())
	assert.True(t, raise.IsAggro())
	assert.Equal(t, Odds{1, 1}, raise.Odds())
}

func TestOddsChips(t *testing.T) {
	assert.Equal(t, 50, Odds{1, 2}.Chips(100))
	assert.Equal(t, 300, Odds{3, 1}.Chips(100))
	assert.Equal(t, 66, Odds{2, 3}.Chips(100))
}

func TestEdgeActionMapping(t *testing.T) {
	g := game.New(game.Config{SmallBlind: 1, BigBlind: 2, Stack: 200}, 0)
	g = g.DealPockets(poker.MustHand("As Ah"), poker.MustHand("Kd Kc"))

	a, err := EdgeCall.Action(g)
	require.NoError(t, err)
	assert.Equal(t, game.Action{Type: game.Call, Chips: 1}, a)

	a, err = RaiseEdge(5).Action(g) // pot-size raise of the 3 chip pot
	require.NoError(t, err)
	assert.Equal(t, game.Action{Type: game.Raise, Chips: 3}, a)

	_, err = EdgeDraw.Action(g)
	assert.Error(t, err)
}

func TestPathSummaries(t *testing.T) {
	a := NewPath([]Edge{EdgeCall, EdgeCheck})
	b := NewPath([]Edge{EdgeCheck, EdgeCall})
	assert.NotEqual(t, a, b, "order matters for betting history")

	assert.Equal(t, a.Extend(EdgeShove), NewPath([]Edge{EdgeCall, EdgeCheck, EdgeShove}))

	// Future summaries are order independent: the edge set is what matters.
	f1 := FuturePath([]Edge{EdgeFold, EdgeCall, EdgeShove})
	f2 := FuturePath([]Edge{EdgeShove, EdgeFold, EdgeCall})
	assert.Equal(t, f1, f2)
	assert.NotEqual(t, f1, FuturePath([]Edge{EdgeFold, EdgeCall}))
}
