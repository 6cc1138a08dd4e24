// Package mccfr implements the regret/policy learner: the abstract game
// tree, the strategy profile with discounted counterfactual regret updates,
// and the external-sampling trainer that drives them.
package mccfr

import (
	"fmt"

	"github.com/jmy12k3/robopoker/internal/game"
)

// Odds is a raise size as a fraction of the pot.
type Odds struct {
	Num uint8
	Den uint8
}

// OddsGrid is the closed set of raise sizes the abstraction exposes.
var OddsGrid = [10]Odds{
	{1, 4}, {1, 3}, {1, 2}, {2, 3}, {3, 4},
	{1, 1}, {3, 2}, {2, 1}, {3, 1}, {4, 1},
}

// Chips scales a pot into this fraction's raise amount.
func (o Odds) Chips(pot int) int {
	return pot * int(o.Num) / int(o.Den)
}

func (o Odds) String() string {
	return fmt.Sprintf("%d:%d", o.Num, o.Den)
}

// Edge is one action on a game tree edge. The set is closed: the chance
// deal, the four plain betting actions, and a raise per grid entry. The
// compact form doubles as the small-integer bijection: Draw is 1, raises
// occupy 6 through 6+len(grid)-1.
type Edge uint8

const (
	EdgeDraw Edge = iota + 1
	EdgeFold
	EdgeCheck
	EdgeCall
	EdgeShove
	edgeRaiseBase
)

// RaiseEdge builds the raise edge for a grid index.
func RaiseEdge(grid int) Edge {
	if grid < 0 || grid >= len(OddsGrid) {
		panic("raise grid index out of range")
	}
	return edgeRaiseBase + Edge(grid)
}

// Edges lists every edge in the closed set.
func Edges() []Edge {
	out := []Edge{EdgeDraw, EdgeFold, EdgeCheck, EdgeCall, EdgeShove}
	for i := range OddsGrid {
		out = append(out, RaiseEdge(i))
	}
	return out
}

// IsChance reports whether the edge is the deal.
func (e Edge) IsChance() bool { return e == EdgeDraw }

// IsChoice reports whether the edge is a player decision.
func (e Edge) IsChoice() bool { return !e.IsChance() }

// IsRaise reports whether the edge is a sized raise.
func (e Edge) IsRaise() bool {
	return e >= edgeRaiseBase && e < edgeRaiseBase+Edge(len(OddsGrid))
}

// IsAggro reports whether the edge puts chips in beyond a call.
func (e Edge) IsAggro() bool { return e.IsRaise() || e == EdgeShove }

// Odds returns the raise fraction of a raise edge.
func (e Edge) Odds() Odds {
	if !e.IsRaise() {
		panic("odds of a non-raise edge")
	}
	return OddsGrid[e-edgeRaiseBase]
}

// Valid reports whether the byte encodes a member of the closed set.
func (e Edge) Valid() bool {
	return e >= EdgeDraw && e < edgeRaiseBase+Edge(len(OddsGrid))
}

// U64 packs the edge into the 64-bit tagged form: a 3-bit variant tag, with
// raise numerator and denominator in bits 3..18.
func (e Edge) U64() uint64 {
	switch {
	case e == EdgeDraw:
		return 0
	case e == EdgeFold:
		return 1
	case e == EdgeCheck:
		return 2
	case e == EdgeCall:
		return 3
	case e == EdgeShove:
		return 5
	case e.IsRaise():
		o := e.Odds()
		return 4 | uint64(o.Num)<<3 | uint64(o.Den)<<11
	}
	panic(fmt.Sprintf("encode invalid edge %d", e))
}

// EdgeFromU64 decodes the 64-bit tagged form.
func EdgeFromU64(v uint64) (Edge, error) {
	switch v & 0b111 {
	case 0:
		return EdgeDraw, nil
	case 1:
		return EdgeFold, nil
	case 2:
		return EdgeCheck, nil
	case 3:
		return EdgeCall, nil
	case 5:
		return EdgeShove, nil
	case 4:
		odds := Odds{Num: uint8(v >> 3), Den: uint8(v >> 11)}
		for i, o := range OddsGrid {
			if o == odds {
				return RaiseEdge(i), nil
			}
		}
		return 0, fmt.Errorf("raise odds %s not on the grid", odds)
	}
	return 0, fmt.Errorf("invalid edge encoding %#x", v)
}

// Action maps the edge onto a concrete betting action for a game state.
func (e Edge) Action(g game.Game) (game.Action, error) {
	switch {
	case e == EdgeFold:
		return game.Action{Type: game.Fold}, nil
	case e == EdgeCheck:
		return game.Action{Type: game.Check}, nil
	case e == EdgeCall:
		return game.Action{Type: game.Call, Chips: g.ToCall()}, nil
	case e == EdgeShove:
		return game.Action{Type: game.Shove, Chips: g.Seat(g.Actor()).Stack}, nil
	case e.IsRaise():
		return game.Action{Type: game.Raise, Chips: e.Odds().Chips(g.Pot())}, nil
	}
	return game.Action{}, fmt.Errorf("edge %s has no betting action", e)
}

func (e Edge) String() string {
	switch {
	case e == EdgeDraw:
		return "DRAW"
	case e == EdgeFold:
		return "FOLD"
	case e == EdgeCheck:
		return "CHECK"
	case e == EdgeCall:
		return "CALL"
	case e == EdgeShove:
		return "SHOVE"
	case e.IsRaise():
		return "RAISE " + e.Odds().String()
	}
	return fmt.Sprintf("EDGE(%d)", uint8(e))
}
