// Package game implements the heads-up no-limit hold'em state machine the
// trainer traverses, and the showdown settlement that prices its terminal
// nodes.
package game

import (
	"fmt"

	"github.com/jmy12k3/robopoker/poker"
)

// ActionType tags a betting action.
type ActionType uint8

const (
	Fold ActionType = iota
	Check
	Call
	Raise
	Shove
	Draw
)

func (t ActionType) String() string {
	switch t {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	case Shove:
		return "shove"
	case Draw:
		return "draw"
	}
	return "unknown"
}

// Action is a betting action. Chips carries the call amount for Call, the
// raise increment beyond the call for Raise, and the full commitment for
// Shove.
type Action struct {
	Type  ActionType
	Chips int
}

// Status is a seat's standing within the hand.
type Status uint8

const (
	Playing Status = iota
	Shoved
	Folded
)

// Seat tracks one player's chips and standing.
type Seat struct {
	Stack  int
	Staked int // cumulative chips committed this hand
	Status Status
	Pocket poker.Hand
}

// Config sets the table stakes.
type Config struct {
	SmallBlind int
	BigBlind   int
	Stack      int
}

// Validate rejects degenerate stakes.
func (c Config) Validate() error {
	if c.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be > 0")
	}
	if c.BigBlind <= c.SmallBlind {
		return fmt.Errorf("big blind must exceed small blind")
	}
	if c.Stack <= c.BigBlind {
		return fmt.Errorf("stack must exceed big blind")
	}
	return nil
}

// Game is an immutable heads-up hand state. Apply and Deal return
// successors; the zero-cost copies let the game tree share prefixes.
type Game struct {
	cfg     Config
	seats   [2]Seat
	board   poker.Hand
	street  poker.Street
	dealer  int
	actor   int // seat to act; -1 when the betting round is closed
	pending int // seats still owed action this street
}

// New posts blinds for a fresh hand. The dealer posts the small blind and
// acts first preflop. Pockets are dealt separately by the chance layer.
func New(cfg Config, dealer int) Game {
	g := Game{cfg: cfg, street: poker.Preflop, dealer: dealer, actor: dealer, pending: 2}
	for i := range g.seats {
		g.seats[i] = Seat{Stack: cfg.Stack}
	}
	g.post(dealer, cfg.SmallBlind)
	g.post(1-dealer, cfg.BigBlind)
	return g
}

// DealPockets sets both seats' hole cards.
func (g Game) DealPockets(p0, p1 poker.Hand) Game {
	g.seats[0].Pocket = p0
	g.seats[1].Pocket = p1
	return g
}

func (g *Game) post(seat, amount int) {
	s := &g.seats[seat]
	if amount >= s.Stack {
		amount = s.Stack
		s.Status = Shoved
	}
	s.Stack -= amount
	s.Staked += amount
}

// Actor returns the seat to act, or -1 at chance and terminal states.
func (g Game) Actor() int {
	if g.IsTerminal() || g.IsChance() {
		return -1
	}
	return g.actor
}

// Dealer returns the button seat.
func (g Game) Dealer() int { return g.dealer }

// Street returns the current betting round.
func (g Game) Street() poker.Street { return g.street }

// Board returns the public cards.
func (g Game) Board() poker.Hand { return g.board }

// Seat returns a copy of the indexed seat.
func (g Game) Seat(i int) Seat { return g.seats[i] }

// Pot is the total of all stakes.
func (g Game) Pot() int { return g.seats[0].Staked + g.seats[1].Staked }

// ToCall is the amount the actor owes to match the table stake.
func (g Game) ToCall() int {
	high := g.seats[0].Staked
	if g.seats[1].Staked > high {
		high = g.seats[1].Staked
	}
	return high - g.seats[g.actor].Staked
}

func (g Game) folded() bool {
	return g.seats[0].Status == Folded || g.seats[1].Status == Folded
}

// IsTerminal reports whether the hand is over: a fold, or a closed river.
func (g Game) IsTerminal() bool {
	if g.folded() {
		return true
	}
	return g.pending == 0 && g.street == poker.River
}

// IsChance reports whether the next move is a deal.
func (g Game) IsChance() bool {
	return !g.folded() && g.pending == 0 && g.street != poker.River
}

// Observation is the actor-relative view of the game used for bucket
// assignment.
func (g Game) Observation(seat int) (poker.Observation, error) {
	return poker.NewObservation(g.seats[seat].Pocket, g.board)
}

// LegalActions enumerates the actor's choices. Raise amounts are not
// enumerated here; callers size raises from the odds grid within
// RaiseBounds.
func (g Game) LegalActions() []Action {
	if g.IsTerminal() || g.IsChance() {
		return nil
	}
	s := g.seats[g.actor]
	opp := g.seats[1-g.actor]
	call := g.ToCall()
	actions := make([]Action, 0, 4)
	if call == 0 {
		actions = append(actions, Action{Type: Check})
	} else {
		actions = append(actions, Action{Type: Fold})
	}
	if call > 0 && call < s.Stack {
		actions = append(actions, Action{Type: Call, Chips: call})
	}
	// Shoving stays legal as the way to call an all-in that covers the
	// stack; betting into a shoved opponent with nothing to call is dead
	// money and excluded.
	if s.Stack > 0 && (opp.Status == Playing || call > 0) {
		actions = append(actions, Action{Type: Shove, Chips: s.Stack})
	}
	return actions
}

// RaiseBounds returns the smallest and largest legal raise increments beyond
// the call. A raise equal to max would be a shove, so max excludes it; ok is
// false when no raise fits.
func (g Game) RaiseBounds() (min, max int, ok bool) {
	if g.IsTerminal() || g.IsChance() {
		return 0, 0, false
	}
	if g.seats[1-g.actor].Status != Playing {
		return 0, 0, false
	}
	call := g.ToCall()
	min = g.cfg.BigBlind
	max = g.seats[g.actor].Stack - call - 1
	return min, max, min <= max
}

// Apply advances the hand by one betting action, returning the successor.
func (g Game) Apply(a Action) (Game, error) {
	if g.IsTerminal() {
		return g, fmt.Errorf("action on terminal state")
	}
	if g.IsChance() {
		return g, fmt.Errorf("betting action on chance state; deal instead")
	}
	call := g.ToCall()
	actor := g.actor
	switch a.Type {
	case Fold:
		if call == 0 {
			return g, fmt.Errorf("fold with nothing to call")
		}
		g.seats[actor].Status = Folded
		g.pending = 0
	case Check:
		if call != 0 {
			return g, fmt.Errorf("check facing a bet of %d", call)
		}
		g.pending--
	case Call:
		if call == 0 || call >= g.seats[actor].Stack {
			return g, fmt.Errorf("illegal call of %d", call)
		}
		g.post(actor, call)
		g.pending--
	case Raise:
		min, max, ok := g.RaiseBounds()
		if !ok || a.Chips < min || a.Chips > max {
			return g, fmt.Errorf("illegal raise of %d", a.Chips)
		}
		g.post(actor, call+a.Chips)
		g.pending = g.playingOpponents(actor)
	case Shove:
		if g.seats[actor].Stack == 0 {
			return g, fmt.Errorf("shove with empty stack")
		}
		stack := g.seats[actor].Stack
		g.post(actor, stack)
		if stack > call {
			g.pending = g.playingOpponents(actor)
		} else {
			g.pending--
		}
	case Draw:
		return g, fmt.Errorf("deal through Deal, not Apply")
	default:
		return g, fmt.Errorf("unknown action %v", a.Type)
	}
	if g.pending > 0 && g.seats[1-actor].Status == Playing {
		g.actor = 1 - actor
	} else {
		g.pending = 0
		g.actor = -1
	}
	return g, nil
}

func (g Game) playingOpponents(actor int) int {
	if g.seats[1-actor].Status == Playing {
		return 1
	}
	return 0
}

// Deal reveals the next street's cards and reopens betting, first action on
// the seat after the dealer.
func (g Game) Deal(reveal poker.Hand) (Game, error) {
	if !g.IsChance() {
		return g, fmt.Errorf("deal on a non-chance state")
	}
	if reveal.Size() != g.street.Reveals() {
		return g, fmt.Errorf("dealt %d cards, want %d", reveal.Size(), g.street.Reveals())
	}
	used := g.board.Add(g.seats[0].Pocket).Add(g.seats[1].Pocket)
	if used&reveal != 0 {
		return g, fmt.Errorf("dealt card already in play")
	}
	g.board = g.board.Add(reveal)
	g.street = g.street.Next()
	g.pending = 0
	g.actor = -1
	for off := 1; off <= 2; off++ {
		seat := (g.dealer + off) % 2
		if g.seats[seat].Status == Playing {
			if g.actor == -1 {
				g.actor = seat
			}
			g.pending++
		}
	}
	return g, nil
}

// Remaining is the set of undealt cards.
func (g Game) Remaining() poker.Hand {
	return poker.Mode().FullHand().
		Remove(g.board).
		Remove(g.seats[0].Pocket).
		Remove(g.seats[1].Pocket)
}

// Payoff is the seat's net chips at a terminal state.
func (g Game) Payoff(seat int) (float64, error) {
	if !g.IsTerminal() {
		return 0, fmt.Errorf("payoff on non-terminal state")
	}
	payouts := make([]Payout, 2)
	for i := range payouts {
		payouts[i] = Payout{Seat: i, Status: g.seats[i].Status, Staked: g.seats[i].Staked}
		if g.seats[i].Status != Folded {
			if g.folded() {
				payouts[i].Score = 1 // uncontested, no showdown needed
			} else {
				payouts[i].Score = showdownScore(g.seats[i].Pocket.Add(g.board))
			}
		}
	}
	payouts = Settle(payouts)
	return float64(payouts[seat].Reward - payouts[seat].Staked), nil
}

// showdownScore collapses a strength into a single comparable integer.
func showdownScore(h poker.Hand) uint32 {
	s := poker.NewStrength(h)
	return s.Ranking.Score()<<13 | uint32(s.Kickers)
}
