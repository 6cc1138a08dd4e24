package mccfr

import (
	"fmt"
	"math"
)

// Discount carries the DCFR weighting parameters.
type Discount struct {
	Period uint64
	Alpha  float64
	Omega  float64
	Gamma  float64
}

// DefaultDiscount returns the standard DCFR schedule.
func DefaultDiscount() Discount {
	return Discount{Period: 1, Alpha: 1.5, Omega: 0.5, Gamma: 2.0}
}

// PolicyFactor is the multiplier applied to accumulated policy at epoch t.
func (d Discount) PolicyFactor(t uint64) float32 {
	return float32(math.Pow(float64(t)/float64(t+1), d.Gamma))
}

// RegretFactor is the multiplier applied to accumulated regret at epoch t.
// Positive regret decays under alpha, negative under omega, zero untouched;
// off-period epochs leave regret alone.
func (d Discount) RegretFactor(t uint64, regret float32) float32 {
	if d.Period == 0 || t%d.Period != 0 {
		return 1
	}
	switch {
	case regret > 0:
		x := math.Pow(float64(t)/float64(d.Period), d.Alpha)
		return float32(x / (x + 1))
	case regret < 0:
		x := math.Pow(float64(t)/float64(d.Period), d.Omega)
		return float32(x / (x + 1))
	}
	return 1
}

// Phase is the learning schedule stage derived from the epoch counter.
type Phase uint8

const (
	PhaseDiscount Phase = iota
	PhaseExplore
	PhasePrune
)

func (p Phase) String() string {
	switch p {
	case PhaseDiscount:
		return "discount"
	case PhaseExplore:
		return "explore"
	case PhasePrune:
		return "prune"
	}
	return "unknown"
}

// Config parameterizes the learner. It is threaded through construction so
// sweeps can vary it per run; nothing here is process global.
type Config struct {
	Iterations      uint64
	DiscountPhase   uint64 // epochs trained under DCFR discounting
	PruningPhase    uint64 // epoch at which pruning would begin
	RegretMin       float32
	RegretMax       float32
	PolicyMin       float32
	Discount        Discount
	CheckpointEvery uint64 // epochs between checkpoints; 0 disables
	Seed            uint64
}

// DefaultConfig returns a conservative training setup.
func DefaultConfig() Config {
	return Config{
		Iterations:      100_000,
		DiscountPhase:   100_000,
		PruningPhase:    200_000,
		RegretMin:       -3e5,
		RegretMax:       3e5,
		PolicyMin:       1e-3,
		Discount:        DefaultDiscount(),
		CheckpointEvery: 1_000,
		Seed:            1,
	}
}

// Validate rejects configurations the learner cannot run safely.
func (c Config) Validate() error {
	if c.Iterations == 0 {
		return fmt.Errorf("iterations must be > 0")
	}
	if c.RegretMin >= c.RegretMax {
		return fmt.Errorf("regret clamp window is empty")
	}
	if c.PolicyMin <= 0 {
		return fmt.Errorf("policy floor must be > 0")
	}
	if c.DiscountPhase > c.PruningPhase {
		return fmt.Errorf("discount phase must end before pruning begins")
	}
	if c.Discount.Period == 0 {
		return fmt.Errorf("discount period must be > 0")
	}
	return nil
}

// PhaseAt maps an epoch onto the learning schedule.
func (c Config) PhaseAt(epoch uint64) Phase {
	switch {
	case epoch < c.DiscountPhase:
		return PhaseDiscount
	case epoch < c.PruningPhase:
		return PhaseExplore
	}
	return PhasePrune
}
