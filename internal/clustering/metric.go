package clustering

import "math"

// Metric measures distance between abstractions of one layer, and by
// extension between histograms over those abstractions. Equity buckets carry
// their own 1-D metric; cluster abstractions are measured through the stored
// pair table.
type Metric struct {
	distances map[Pair]float32
}

// NewMetric wraps a pair distance table. A nil table is valid for the river
// layer, where every distance is derived from equity bucket indices.
func NewMetric(distances map[Pair]float32) *Metric {
	if distances == nil {
		distances = make(map[Pair]float32)
	}
	return &Metric{distances: distances}
}

// Table exposes the underlying pair table.
func (m *Metric) Table() map[Pair]float32 { return m.distances }

// Distance returns the ground distance between two abstractions.
func (m *Metric) Distance(a, b Abstraction) float32 {
	if a == b {
		return 0
	}
	if a.IsEquity() && b.IsEquity() {
		return float32(abs(a.EquityIndex() - b.EquityIndex()))
	}
	return m.distances[PairOf(a, b)]
}

// EMD computes the Earth Mover's Distance between two histograms under this
// metric. Both histograms are normalized before matching, so total mass does
// not skew the distance. The result is non-negative, symmetric, and zero for
// identical distributions.
func (m *Metric) EMD(p, q *Histogram) float32 {
	if p.Empty() || q.Empty() {
		return 0
	}
	if allEquity(p) && allEquity(q) {
		return cdfDistance(p, q)
	}
	// A greedy nearest-bin flow is cheap but direction dependent; averaging
	// the two directions restores symmetry.
	return (m.flow(p, q) + m.flow(q, p)) / 2
}

func allEquity(h *Histogram) bool {
	for _, a := range h.Support() {
		if !a.IsEquity() {
			return false
		}
	}
	return true
}

// cdfDistance is the exact 1-D EMD: the L1 distance between cumulative
// distributions over unit-spaced equity bins.
func cdfDistance(p, q *Histogram) float32 {
	max := 0
	for _, a := range p.Support() {
		if i := a.EquityIndex(); i > max {
			max = i
		}
	}
	for _, a := range q.Support() {
		if i := a.EquityIndex(); i > max {
			max = i
		}
	}
	var cum, total float64
	for i := 0; i <= max; i++ {
		cum += p.Density(EquityBucket(i)) - q.Density(EquityBucket(i))
		total += math.Abs(cum)
	}
	return float32(total)
}

// flow moves p's mass onto q's bins greedily, always into the nearest bin
// with remaining demand, and accumulates mass-weighted distance.
func (m *Metric) flow(p, q *Histogram) float32 {
	const eps = 1e-9
	sources := p.Support()
	targets := q.Support()
	demand := make(map[Abstraction]float64, len(targets))
	for _, t := range targets {
		demand[t] = q.Density(t)
	}
	var cost float64
	for _, s := range sources {
		mass := p.Density(s)
		for mass > eps {
			var best Abstraction
			bestDist := float32(math.MaxFloat32)
			found := false
			for _, t := range targets {
				if demand[t] <= eps {
					continue
				}
				d := m.Distance(s, t)
				if !found || d < bestDist || (d == bestDist && t < best) {
					best, bestDist, found = t, d, true
				}
			}
			if !found {
				return float32(cost)
			}
			moved := math.Min(mass, demand[best])
			cost += moved * float64(bestDist)
			mass -= moved
			demand[best] -= moved
		}
	}
	return float32(cost)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
