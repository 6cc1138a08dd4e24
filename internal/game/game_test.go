package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmy12k3/robopoker/poker"
)

func testConfig() Config {
	return Config{SmallBlind: 1, BigBlind: 2, Stack: 200}
}

func newHand(t *testing.T) Game {
	t.Helper()
	g := New(testConfig(), 0)
	return g.DealPockets(poker.MustHand("As Ah"), poker.MustHand("Kd Kc"))
}

func apply(t *testing.T, g Game, a Action) Game {
	t.Helper()
	next, err := g.Apply(a)
	require.NoError(t, err, "%v", a)
	return next
}

func deal(t *testing.T, g Game, cards string) Game {
	t.Helper()
	next, err := g.Deal(poker.MustHand(cards))
	require.NoError(t, err)
	return next
}

func TestBlindsPosted(t *testing.T) {
	g := newHand(t)
	assert.Equal(t, 1, g.Seat(0).Staked, "dealer posts the small blind")
	assert.Equal(t, 2, g.Seat(1).Staked)
	assert.Equal(t, 3, g.Pot())
	assert.Equal(t, 0, g.Actor(), "dealer acts first preflop")
	assert.Equal(t, 1, g.ToCall())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())
	assert.Error(t, Config{SmallBlind: 0, BigBlind: 2, Stack: 100}.Validate())
	assert.Error(t, Config{SmallBlind: 2, BigBlind: 2, Stack: 100}.Validate())
	assert.Error(t, Config{SmallBlind: 1, BigBlind: 2, Stack: 2}.Validate())
}

func TestFoldEndsHand(t *testing.T) {
	g := newHand(t)
	g = apply(t, g, Action{Type: Fold})
	assert.True(t, g.IsTerminal())

	p0, err := g.Payoff(0)
	require.NoError(t, err)
	p1, err := g.Payoff(1)
	require.NoError(t, err)
	assert.Equal(t, -1.0, p0, "folded small blind is lost")
	assert.Equal(t, 1.0, p1)
	assert.Zero(t, p0+p1, "heads-up payoffs are antisymmetric")
}

func TestLimpCheckAdvancesToFlop(t *testing.T) {
	g := newHand(t)
	g = apply(t, g, Action{Type: Call, Chips: 1})
	assert.Equal(t, 1, g.Actor(), "big blind has the option")
	g = apply(t, g, Action{Type: Check})

	assert.True(t, g.IsChance())
	g = deal(t, g, "Qd Jc Ts")
	assert.Equal(t, poker.Flop, g.Street())
	assert.Equal(t, 1, g.Actor(), "non-dealer acts first postflop")
}

func TestBetAndCallReopenStreets(t *testing.T) {
	g := newHand(t)
	g = apply(t, g, Action{Type: Call, Chips: 1})
	g = apply(t, g, Action{Type: Check})
	g = deal(t, g, "Qd Jc Ts")

	g = apply(t, g, Action{Type: Raise, Chips: 4}) // seat 1 bets
	assert.Equal(t, 0, g.Actor())
	assert.Equal(t, 4, g.ToCall())
	g = apply(t, g, Action{Type: Call, Chips: 4})

	assert.True(t, g.IsChance())
	g = deal(t, g, "2h")
	assert.Equal(t, poker.Turn, g.Street())
	g = apply(t, g, Action{Type: Check})
	g = apply(t, g, Action{Type: Check})
	g = deal(t, g, "7c")
	assert.Equal(t, poker.River, g.Street())
	g = apply(t, g, Action{Type: Check})
	g = apply(t, g, Action{Type: Check})
	assert.True(t, g.IsTerminal())

	// Aces beat kings on this board.
	p0, err := g.Payoff(0)
	require.NoError(t, err)
	assert.Equal(t, 6.0, p0)
	p1, err := g.Payoff(1)
	require.NoError(t, err)
	assert.Equal(t, -6.0, p1)
}

func TestShoveCallRunsOutBoard(t *testing.T) {
	g := newHand(t)
	g = apply(t, g, Action{Type: Shove, Chips: g.Seat(0).Stack})
	assert.Equal(t, 1, g.Actor())

	// Calling all-in leaves no further betting: board runs out on chance
	// edges alone.
	g = apply(t, g, Action{Type: Shove, Chips: g.Seat(1).Stack})
	require.True(t, g.IsChance())
	g = deal(t, g, "Qd Jc Ts")
	require.True(t, g.IsChance())
	g = deal(t, g, "2h")
	require.True(t, g.IsChance())
	g = deal(t, g, "7c")
	assert.True(t, g.IsTerminal())

	p0, err := g.Payoff(0)
	require.NoError(t, err)
	assert.Equal(t, 200.0, p0)
}

func TestLegalActions(t *testing.T) {
	g := newHand(t)
	// Dealer faces the blind gap: fold, call, shove (raises via RaiseBounds).
	types := map[ActionType]bool{}
	for _, a := range g.LegalActions() {
		types[a.Type] = true
	}
	assert.True(t, types[Fold])
	assert.True(t, types[Call])
	assert.True(t, types[Shove])
	assert.False(t, types[Check])

	min, max, ok := g.RaiseBounds()
	require.True(t, ok)
	assert.Equal(t, 2, min)
	assert.Equal(t, 197, max) // stack 199 minus call 1 minus the shove boundary
}

func TestIllegalActionsRejected(t *testing.T) {
	g := newHand(t)
	_, err := g.Apply(Action{Type: Check})
	assert.Error(t, err, "check facing the blind")

	_, err = g.Apply(Action{Type: Raise, Chips: 1000})
	assert.Error(t, err, "raise beyond stack")

	g2 := apply(t, g, Action{Type: Call, Chips: 1})
	g2 = apply(t, g2, Action{Type: Check})
	_, err = g2.Apply(Action{Type: Check})
	assert.Error(t, err, "betting action on chance state")

	_, err = g2.Deal(poker.MustHand("As Kh Qd"))
	assert.Error(t, err, "dealing a card already in play")

	_, err = g2.Deal(poker.MustHand("Qd Jc"))
	assert.Error(t, err, "wrong reveal size")
}

func TestObservationView(t *testing.T) {
	g := newHand(t)
	g = apply(t, g, Action{Type: Call, Chips: 1})
	g = apply(t, g, Action{Type: Check})
	g = deal(t, g, "Qd Jc Ts")

	obs, err := g.Observation(0)
	require.NoError(t, err)
	assert.Equal(t, poker.Flop, obs.Street())
	assert.Equal(t, poker.MustHand("As Ah"), obs.Pocket())
}

func TestRemainingExcludesDealtCards(t *testing.T) {
	g := newHand(t)
	rem := g.Remaining()
	assert.Equal(t, 48, rem.Size())
	assert.False(t, rem.Contains(poker.MustHand("As")))
}
