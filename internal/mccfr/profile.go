package mccfr

import (
	"fmt"
	"math"
	"sort"
)

// Decision is the pair of accumulators kept per (bucket, edge): cumulative
// counterfactual regret and the running average policy weight.
type Decision struct {
	Regret float32
	Policy float32
}

// Profile stores the learner's state: a Decision per (bucket, edge) plus the
// monotonic epoch counter. Witnessing inserts, updates mutate in place, and
// sampling reads a consistent snapshot within an epoch.
type Profile struct {
	cfg        Config
	iterations uint64
	strategies map[Bucket]map[Edge]*Decision
}

// NewProfile starts an empty profile.
func NewProfile(cfg Config) *Profile {
	return &Profile{cfg: cfg, strategies: make(map[Bucket]map[Edge]*Decision)}
}

// Epochs returns how many epochs have been completed.
func (p *Profile) Epochs() uint64 { return p.iterations }

// Advance increments the epoch counter and returns the new count.
func (p *Profile) Advance() uint64 {
	p.iterations++
	return p.iterations
}

// Walker is the player whose regret is updated this epoch; the two players
// alternate.
func (p *Profile) Walker() int { return int(p.iterations % 2) }

// Phase is the current learning schedule stage.
func (p *Profile) Phase() Phase { return p.cfg.PhaseAt(p.iterations) }

// Size is the number of distinct buckets witnessed.
func (p *Profile) Size() int { return len(p.strategies) }

// Witness idempotently initializes a bucket: unseen buckets get a uniform
// policy over the offered edges; seen buckets must offer the exact same
// edge set, anything else being a corrupt abstraction.
func (p *Profile) Witness(b Bucket, edges []Edge) error {
	if existing, ok := p.strategies[b]; ok {
		if len(existing) != len(edges) {
			return fmt.Errorf("bucket %s witnessed with %d edges, had %d", b, len(edges), len(existing))
		}
		for _, e := range edges {
			if _, ok := existing[e]; !ok {
				return fmt.Errorf("bucket %s witnessed with unknown edge %s", b, e)
			}
		}
		return nil
	}
	if len(edges) == 0 {
		return fmt.Errorf("bucket %s witnessed with no edges", b)
	}
	strategy := make(map[Edge]*Decision, len(edges))
	uniform := float32(1) / float32(len(edges))
	for _, e := range edges {
		strategy[e] = &Decision{Policy: uniform}
	}
	p.strategies[b] = strategy
	return nil
}

// Policy returns the stored policy weight normalized on read by the sum over
// the bucket's edges.
func (p *Profile) Policy(b Bucket, e Edge) (float32, error) {
	strategy, ok := p.strategies[b]
	if !ok {
		return 0, fmt.Errorf("policy of unwitnessed bucket %s", b)
	}
	decision, ok := strategy[e]
	if !ok {
		return 0, fmt.Errorf("policy of unwitnessed edge %s at %s", e, b)
	}
	var sum float32
	for _, d := range strategy {
		sum += d.Policy
	}
	if sum <= 0 {
		return 1 / float32(len(strategy)), nil
	}
	return decision.Policy / sum, nil
}

// Edges lists a bucket's edge set in ascending order.
func (p *Profile) Edges(b Bucket) []Edge {
	strategy := p.strategies[b]
	out := make([]Edge, 0, len(strategy))
	for e := range strategy {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RegretUpdate folds an epoch's regret deltas into a bucket: the DCFR
// discount first during the discount phase, then the addition, then the
// clamp that keeps every stored regret finite.
func (p *Profile) RegretUpdate(b Bucket, deltas map[Edge]float32) error {
	strategy, ok := p.strategies[b]
	if !ok {
		return fmt.Errorf("regret update on unwitnessed bucket %s", b)
	}
	t := p.iterations
	phase := p.Phase()
	for e, delta := range deltas {
		decision, ok := strategy[e]
		if !ok {
			return fmt.Errorf("regret update on unwitnessed edge %s at %s", e, b)
		}
		if phase == PhaseDiscount {
			decision.Regret *= p.cfg.Discount.RegretFactor(t, decision.Regret)
		}
		decision.Regret = clamp(decision.Regret+delta, p.cfg.RegretMin, p.cfg.RegretMax)
	}
	return nil
}

// PolicyUpdate folds an epoch's policy vector into a bucket under the DCFR
// policy discount.
func (p *Profile) PolicyUpdate(b Bucket, deltas map[Edge]float32) error {
	strategy, ok := p.strategies[b]
	if !ok {
		return fmt.Errorf("policy update on unwitnessed bucket %s", b)
	}
	factor := p.cfg.Discount.PolicyFactor(p.iterations)
	for e, delta := range deltas {
		decision, ok := strategy[e]
		if !ok {
			return fmt.Errorf("policy update on unwitnessed edge %s at %s", e, b)
		}
		decision.Policy = decision.Policy*factor + delta
	}
	return nil
}

// RegretVector computes the clamped immediate counterfactual regret of every
// edge at the walker's infoset.
func (p *Profile) RegretVector(t *Tree, b Bucket, roots []int) (map[Edge]float32, error) {
	out := make(map[Edge]float32)
	for _, e := range p.Edges(b) {
		var regret float64
		for _, head := range roots {
			gain, err := p.gain(t, head, e)
			if err != nil {
				return nil, err
			}
			regret += gain
		}
		r := clamp(float32(regret), p.cfg.RegretMin, p.cfg.RegretMax)
		if math.IsNaN(float64(r)) || math.IsInf(float64(r), 0) {
			return nil, fmt.Errorf("non-finite regret at %s %s", b, e)
		}
		out[e] = r
	}
	return out, nil
}

// PolicyVector computes the regret-matching strategy at a bucket: each edge
// weighted by its floored cumulative regret, normalized.
func (p *Profile) PolicyVector(b Bucket) map[Edge]float32 {
	edges := p.Edges(b)
	weights := make(map[Edge]float32, len(edges))
	var sum float32
	for _, e := range edges {
		r := p.cumulativeRegret(b, e)
		if r < p.cfg.PolicyMin {
			r = p.cfg.PolicyMin
		}
		weights[e] = r
		sum += r
	}
	for e := range weights {
		weights[e] /= sum
	}
	return weights
}

// cumulativeRegret is the stored regret averaged over epochs.
func (p *Profile) cumulativeRegret(b Bucket, e Edge) float32 {
	epochs := p.iterations
	if epochs == 0 {
		epochs = 1
	}
	return p.strategies[b][e].Regret / float32(epochs)
}

// RNG builds the deterministic per-node sampler: identical (epoch, bucket)
// pairs replay identical choices, so a profile state replays its traversal.
func (p *Profile) RNG(b Bucket) *PCG32 {
	h := fnvOffset64
	for _, v := range [...]uint64{p.iterations, uint64(b.Past), uint64(b.Abs), uint64(b.Future)} {
		for i := 0; i < 8; i++ {
			h ^= (v >> (8 * i)) & 0xFF
			h *= fnvPrime64
		}
	}
	return NewPCG32(h)
}

// SampleAll keeps every choice edge: the walker explores its full decision
// space.
func (p *Profile) SampleAll(edges []Edge) []Edge {
	for _, e := range edges {
		if !e.IsChoice() {
			panic("chance edge in a decision node's edge set")
		}
	}
	return edges
}

// SampleOne keeps one opponent edge drawn from the current policy: external
// sampling of the non-walker's decisions.
func (p *Profile) SampleOne(b Bucket, edges []Edge) (Edge, error) {
	weights := make([]float32, len(edges))
	var sum float32
	for i, e := range edges {
		w, err := p.Policy(b, e)
		if err != nil {
			return 0, err
		}
		weights[i] = w
		sum += w
	}
	if sum <= 0 {
		return 0, fmt.Errorf("no positive policy mass at %s", b)
	}
	r := p.RNG(b).Float32() * sum
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return edges[i], nil
		}
	}
	return edges[len(edges)-1], nil
}

// reach is the probability the profile assigns to an edge out of a node;
// chance edges flow with probability one.
func (p *Profile) reach(t *Tree, node int, e Edge) (float32, error) {
	n := t.At(node)
	if n.Player() == Chance {
		return 1, nil
	}
	return p.Policy(n.Data.Bucket, e)
}

// profiledReach is the product of reaches from the root to a node.
func (p *Profile) profiledReach(t *Tree, node int) (float64, error) {
	n := t.At(node)
	if n.Parent < 0 {
		return 1, nil
	}
	parent, err := p.profiledReach(t, n.Parent)
	if err != nil {
		return 0, err
	}
	r, err := p.reach(t, n.Parent, n.Incoming)
	if err != nil {
		return 0, err
	}
	return parent * float64(r), nil
}

// externalReach is the profiled reach with the walker's own edges excluded:
// the importance weight of counterfactual regret.
func (p *Profile) externalReach(t *Tree, node int) (float64, error) {
	n := t.At(node)
	if n.Parent < 0 {
		return 1, nil
	}
	parent, err := p.externalReach(t, n.Parent)
	if err != nil {
		return 0, err
	}
	if t.At(n.Parent).Player() == p.Walker() {
		return parent, nil
	}
	r, err := p.reach(t, n.Parent, n.Incoming)
	if err != nil {
		return 0, err
	}
	return parent * float64(r), nil
}

// relativeReach is the product of reaches from a root down to a leaf; one
// when they coincide.
func (p *Profile) relativeReach(t *Tree, root, leaf int) (float64, error) {
	if root == leaf {
		return 1, nil
	}
	n := t.At(leaf)
	if n.Parent < 0 {
		return 0, fmt.Errorf("leaf is not beneath root")
	}
	parent, err := p.relativeReach(t, root, n.Parent)
	if err != nil {
		return 0, err
	}
	r, err := p.reach(t, n.Parent, n.Incoming)
	if err != nil {
		return 0, err
	}
	return parent * float64(r), nil
}

// terminalValue is a leaf's payoff to the walker, weighted by the path
// probability into it and importance-corrected by its external reach.
// Unreachable leaves contribute nothing.
func (p *Profile) terminalValue(t *Tree, head, leaf int) (float64, error) {
	payoff, err := t.At(leaf).Data.Game.Payoff(p.Walker())
	if err != nil {
		return 0, err
	}
	probability, err := p.relativeReach(t, head, leaf)
	if err != nil {
		return 0, err
	}
	conditional, err := p.externalReach(t, leaf)
	if err != nil {
		return 0, err
	}
	if conditional == 0 {
		return 0, nil
	}
	return payoff * probability / conditional, nil
}

// expectedValue is the walker's expectation at a node under the profile.
func (p *Profile) expectedValue(t *Tree, head int) (float64, error) {
	reach, err := p.profiledReach(t, head)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, leaf := range t.Leaves(head) {
		v, err := p.terminalValue(t, head, leaf)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return reach * sum, nil
}

// cfactualValue is the walker's expectation had it steered into this node
// and then followed the edge outright.
func (p *Profile) cfactualValue(t *Tree, head int, e Edge) (float64, error) {
	reach, err := p.externalReach(t, head)
	if err != nil {
		return 0, err
	}
	child, ok := t.Follow(head, e)
	if !ok {
		return 0, fmt.Errorf("edge %s not expanded at node %d", e, head)
	}
	var sum float64
	for _, leaf := range t.Leaves(child) {
		v, err := p.terminalValue(t, head, leaf)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return reach * sum, nil
}

// gain is the marginal utility of committing to an edge at a node.
func (p *Profile) gain(t *Tree, head int, e Edge) (float64, error) {
	expected, err := p.expectedValue(t, head)
	if err != nil {
		return 0, err
	}
	cfactual, err := p.cfactualValue(t, head, e)
	if err != nil {
		return 0, err
	}
	return cfactual - expected, nil
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
