package clustering

import "sort"

// Histogram is a non-negative weight per abstraction, normalizable to a
// probability distribution over the next layer's buckets.
type Histogram struct {
	weights map[Abstraction]float64
	total   float64
}

// NewHistogram returns an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{weights: make(map[Abstraction]float64)}
}

// Increment adds unit weight to a bucket.
func (h *Histogram) Increment(a Abstraction) { h.AddWeight(a, 1) }

// AddWeight adds weight to a bucket. Negative weights are a caller bug.
func (h *Histogram) AddWeight(a Abstraction, w float64) {
	if w < 0 {
		panic("negative histogram weight")
	}
	h.weights[a] += w
	h.total += w
}

// Weight returns the raw weight of a bucket.
func (h *Histogram) Weight(a Abstraction) float64 { return h.weights[a] }

// Density returns the normalized mass of a bucket.
func (h *Histogram) Density(a Abstraction) float64 {
	if h.total == 0 {
		return 0
	}
	return h.weights[a] / h.total
}

// Total returns the sum of all weights.
func (h *Histogram) Total() float64 { return h.total }

// Empty reports whether the histogram carries no mass.
func (h *Histogram) Empty() bool { return h.total == 0 }

// Support lists the buckets with positive weight in ascending id order.
func (h *Histogram) Support() []Abstraction {
	out := make([]Abstraction, 0, len(h.weights))
	for a, w := range h.weights {
		if w > 0 {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Absorb adds the other histogram's weights pointwise.
func (h *Histogram) Absorb(o *Histogram) {
	for a, w := range o.weights {
		if w > 0 {
			h.weights[a] += w
			h.total += w
		}
	}
}

// Clear drops all weights.
func (h *Histogram) Clear() {
	clear(h.weights)
	h.total = 0
}

// Clone copies the histogram.
func (h *Histogram) Clone() *Histogram {
	c := &Histogram{weights: make(map[Abstraction]float64, len(h.weights)), total: h.total}
	for a, w := range h.weights {
		c.weights[a] = w
	}
	return c
}
