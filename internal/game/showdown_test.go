package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rewards(payouts []Payout) []int {
	out := make([]int, len(payouts))
	for i, p := range payouts {
		out[i] = p.Reward
	}
	return out
}

func TestSettleEvenSplit(t *testing.T) {
	payouts := Settle([]Payout{
		{Seat: 0, Status: Playing, Staked: 10, Score: 5},
		{Seat: 1, Status: Playing, Staked: 10, Score: 5},
	})
	assert.Equal(t, []int{10, 10}, rewards(payouts))
}

func TestSettleWinnerTakesAll(t *testing.T) {
	payouts := Settle([]Payout{
		{Seat: 0, Status: Playing, Staked: 20, Score: 9},
		{Seat: 1, Status: Playing, Staked: 20, Score: 3},
	})
	assert.Equal(t, []int{40, 0}, rewards(payouts))
}

func TestSettleFoldedLosesStake(t *testing.T) {
	payouts := Settle([]Payout{
		{Seat: 0, Status: Playing, Staked: 2, Score: 1},
		{Seat: 1, Status: Folded, Staked: 1},
	})
	assert.Equal(t, []int{3, 0}, rewards(payouts))
}

func TestSettleSidePot(t *testing.T) {
	// Short stack splits the main pot; the covering bettor reclaims the side
	// pot its beaten opponent contributed to.
	payouts := Settle([]Payout{
		{Seat: 0, Status: Shoved, Staked: 10, Score: 9},
		{Seat: 1, Status: Playing, Staked: 20, Score: 9},
		{Seat: 2, Status: Playing, Staked: 20, Score: 8},
	})
	// Main pot of 30 splits between the two score-9 hands; the 20-chip side
	// pot goes to the deeper score-9 stake.
	assert.Equal(t, []int{15, 35, 0}, rewards(payouts))
	assert.Equal(t, 50, payouts[0].Reward+payouts[1].Reward+payouts[2].Reward)
}

func TestSettleUncalledBetReturns(t *testing.T) {
	payouts := Settle([]Payout{
		{Seat: 0, Status: Playing, Staked: 50, Score: 1},
		{Seat: 1, Status: Folded, Staked: 10},
	})
	assert.Equal(t, []int{60, 0}, rewards(payouts))
}

func TestSettleRemainderBySeatOrder(t *testing.T) {
	payouts := Settle([]Payout{
		{Seat: 0, Status: Playing, Staked: 3, Score: 5},
		{Seat: 1, Status: Playing, Staked: 3, Score: 5},
		{Seat: 2, Status: Folded, Staked: 1},
	})
	// 7 chips across two winners: the odd chip lands on the earlier seat.
	assert.Equal(t, []int{4, 3, 0}, rewards(payouts))
}

func TestSettleLayeredScores(t *testing.T) {
	// Three-way all-in with strictly ordered stacks and scores.
	payouts := Settle([]Payout{
		{Seat: 0, Status: Shoved, Staked: 5, Score: 9},
		{Seat: 1, Status: Shoved, Staked: 15, Score: 7},
		{Seat: 2, Status: Shoved, Staked: 30, Score: 3},
	})
	// Best hand wins the 15-chip main pot; second best the 20-chip middle
	// pot; the deep stack reclaims its uncovered 15.
	assert.Equal(t, []int{15, 20, 15}, rewards(payouts))
}

func TestSettleConservesChips(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.IntN(4)
		payouts := make([]Payout, n)
		staked := 0
		for i := range payouts {
			payouts[i] = Payout{
				Seat:   i,
				Status: Status(rng.IntN(3)),
				Staked: 1 + rng.IntN(50),
				Score:  uint32(rng.IntN(4)),
			}
			staked += payouts[i].Staked
		}
		// Keep the deepest stake on a live hand: an engine never leaves the
		// largest commitment on a folded seat.
		max := 0
		for _, p := range payouts {
			if p.Staked > max {
				max = p.Staked
			}
		}
		payouts[0].Status = Playing
		staked += max - payouts[0].Staked
		payouts[0].Staked = max
		payouts = Settle(payouts)
		reward := 0
		for _, p := range payouts {
			reward += p.Reward
		}
		assert.Equal(t, staked, reward, "trial %d: %+v", trial, payouts)
	}
}
