package clustering

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jmy12k3/robopoker/poker"
)

// StreetParams are the k-means knobs for one street.
type StreetParams struct {
	K int // number of centroids
	T int // Lloyd iterations
}

// Params configures the whole abstraction hierarchy.
type Params struct {
	EquityBuckets int
	Workers       int
	BatchSize     int
	Seed          uint64
	Streets       map[poker.Street]StreetParams

	// SourceFor overrides observation enumeration per street. Nil uses the
	// full combinatorial space; tests and sweeps restrict it.
	SourceFor func(poker.Street) Source
}

// DefaultParams mirrors the canonical hierarchy sizes: 169 preflop classes,
// 500 clusters on flop and turn, 50 river equity buckets.
func DefaultParams() Params {
	return Params{
		EquityBuckets: 50,
		BatchSize:     10_000,
		Seed:          1,
		Streets: map[poker.Street]StreetParams{
			poker.Turn:    {K: 500, T: 100},
			poker.Flop:    {K: 500, T: 100},
			poker.Preflop: {K: 169, T: 10},
		},
	}
}

// Validate rejects unusable parameters before any expensive work starts.
func (p Params) Validate() error {
	if p.EquityBuckets <= 0 {
		return fmt.Errorf("equity buckets must be > 0")
	}
	for street, sp := range p.Streets {
		if sp.K <= 0 {
			return fmt.Errorf("%s: k must be > 0", street)
		}
		if sp.T <= 0 {
			return fmt.Errorf("%s: t must be > 0", street)
		}
	}
	return nil
}

func (p Params) source(street poker.Street) Source {
	if p.SourceFor != nil {
		return p.SourceFor(street)
	}
	return StreetSource{Street: street}
}

type point struct {
	hist *Histogram
	abs  Abstraction
}

type centroid struct {
	abs  Abstraction
	mean *Histogram
	next *Histogram
}

// Layer is one level of the abstraction hierarchy. The river layer is seeded
// from exact equity; each inner layer clusters distributions over the outer
// layer's abstractions. A layer's metric measures its own abstractions and
// grounds the EMD of the next layer in.
type Layer struct {
	street    poker.Street
	params    Params
	log       zerolog.Logger
	rng       *rand.Rand
	ground    *Metric // metric over the bins of this layer's histograms
	metric    *Metric // metric over this layer's own abstractions
	obs       []poker.Observation
	points    map[poker.Observation]*point
	centroids []*centroid
}

// Outer builds the river base layer by equity seeding. The sink, when not
// nil, receives the centroid table as it is computed.
func Outer(ctx context.Context, params Params, log zerolog.Logger, sink Sink) (*Layer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	seeder := &Seeder{
		Buckets:   params.EquityBuckets,
		Workers:   params.Workers,
		BatchSize: params.BatchSize,
		Source:    params.source(poker.River),
		Log:       log,
	}
	assigned, err := seeder.Run(ctx, sink)
	if err != nil {
		return nil, err
	}
	l := &Layer{
		street: poker.River,
		params: params,
		log:    log,
		rng:    rand.New(rand.NewPCG(params.Seed, params.Seed<<1|1)),
		metric: NewMetric(nil), // equity distances derive from bucket indices
		points: make(map[poker.Observation]*point, len(assigned)),
	}
	for obs, abs := range assigned {
		hist := NewHistogram()
		hist.Increment(abs)
		l.points[obs] = &point{hist: hist, abs: abs}
	}
	l.obs = sortedObservations(l.points)
	return l, nil
}

// Street returns the layer's street.
func (l *Layer) Street() poker.Street { return l.street }

// Lookup returns the observation to abstraction assignment of this layer.
func (l *Layer) Lookup() map[poker.Observation]Abstraction {
	out := make(map[poker.Observation]Abstraction, len(l.points))
	for obs, pt := range l.points {
		out[obs] = pt.abs
	}
	return out
}

// Metric returns the pair table over this layer's abstractions. The river
// layer has no table: equity bucket distances are closed-form (integer
// difference), and XOR keys of small indices would collide anyway.
func (l *Layer) Metric() map[Pair]float32 {
	if l.street == poker.River {
		return nil
	}
	return l.metric.Table()
}

// Inner derives the previous street's layer: project every observation onto
// a histogram of this layer's abstractions, seed centroids with k-means++,
// run Lloyd iterations, then measure the new centroid pairs.
func (l *Layer) Inner(ctx context.Context) (*Layer, error) {
	if l.street == poker.Preflop {
		return nil, fmt.Errorf("preflop has no inner layer")
	}
	street := l.street.Prev()
	sp, ok := l.params.Streets[street]
	if !ok {
		return nil, fmt.Errorf("no k-means params for %s", street)
	}
	inner := &Layer{
		street: street,
		params: l.params,
		log:    l.log,
		rng:    l.rng,
		ground: l.metric,
	}
	l.log.Info().Stringer("street", street).Int("k", sp.K).Int("t", sp.T).Msg("projecting layer")
	if err := inner.project(ctx, l); err != nil {
		return nil, err
	}
	if err := inner.seedCentroids(sp.K); err != nil {
		return nil, err
	}
	if err := inner.cluster(ctx, sp.T); err != nil {
		return nil, err
	}
	inner.metric = NewMetric(inner.centroidMetric())
	l.log.Info().Stringer("street", street).Int("points", len(inner.points)).Msg("layer clustered")
	return inner, nil
}

// project builds every observation's histogram over the outer layer's
// abstractions by dealing each possible next card set.
func (inner *Layer) project(ctx context.Context, outer *Layer) error {
	workers := inner.params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var mu sync.Mutex
	inner.points = make(map[poker.Observation]*point)
	g, gctx := errgroup.WithContext(ctx)
	source := inner.params.source(inner.street)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			local := make(map[poker.Observation]*point)
			err := source.Shard(w, workers, func(obs poker.Observation) error {
				if err := gctx.Err(); err != nil {
					return err
				}
				hist := NewHistogram()
				for _, child := range obs.Children() {
					pt, ok := outer.points[child]
					if !ok {
						return fmt.Errorf("%s: child %s missing from %s table", obs, child, outer.street)
					}
					hist.Increment(pt.abs)
				}
				local[obs] = &point{hist: hist}
				return nil
			})
			if err != nil {
				return err
			}
			mu.Lock()
			for obs, pt := range local {
				inner.points[obs] = pt
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	inner.obs = sortedObservations(inner.points)
	return nil
}

// seedCentroids runs k-means++: first mean uniform over the data, each
// following mean drawn with probability proportional to squared EMD from its
// nearest already chosen mean.
func (l *Layer) seedCentroids(k int) error {
	n := len(l.obs)
	if n == 0 {
		return fmt.Errorf("%s: no observations to cluster", l.street)
	}
	if k > n {
		k = n
	}
	chosen := make([]*Histogram, 0, k)
	first := l.points[l.obs[l.rng.IntN(n)]].hist
	chosen = append(chosen, first.Clone())

	minDist := make([]float64, n)
	for i, obs := range l.obs {
		d := float64(l.ground.EMD(l.points[obs].hist, first))
		minDist[i] = d * d
	}
	for len(chosen) < k {
		var total float64
		for _, d := range minDist {
			total += d
		}
		var idx int
		if total <= 0 {
			idx = l.rng.IntN(n)
		} else {
			r := l.rng.Float64() * total
			for i, d := range minDist {
				r -= d
				if r <= 0 {
					idx = i
					break
				}
			}
		}
		next := l.points[l.obs[idx]].hist
		chosen = append(chosen, next.Clone())
		for i, obs := range l.obs {
			d := float64(l.ground.EMD(l.points[obs].hist, next))
			if sq := d * d; sq < minDist[i] {
				minDist[i] = sq
			}
		}
	}

	l.centroids = make([]*centroid, 0, k)
	for _, mean := range chosen {
		l.centroids = append(l.centroids, &centroid{
			abs:  RandomAbstraction(l.rng),
			mean: mean,
			next: NewHistogram(),
		})
	}
	// Nearest-centroid ties break toward the lowest id; keep ids ordered so
	// the first strict improvement wins.
	sort.Slice(l.centroids, func(i, j int) bool { return l.centroids[i].abs < l.centroids[j].abs })
	return nil
}

// cluster runs t Lloyd iterations: assign each observation to its nearest
// mean, accumulate assigned histograms into the next means, then swap.
// Empty clusters retain their previous mean.
func (l *Layer) cluster(ctx context.Context, t int) error {
	workers := l.params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := len(l.obs)
	assignment := make([]int, n)
	for round := 0; round < t; round++ {
		accs := make([][]*Histogram, workers)
		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			acc := make([]*Histogram, len(l.centroids))
			for i := range acc {
				acc[i] = NewHistogram()
			}
			accs[w] = acc
			g.Go(func() error {
				for i := w; i < n; i += workers {
					if err := gctx.Err(); err != nil {
						return err
					}
					hist := l.points[l.obs[i]].hist
					nearest := 0
					best := l.ground.EMD(hist, l.centroids[0].mean)
					for c := 1; c < len(l.centroids); c++ {
						if d := l.ground.EMD(hist, l.centroids[c].mean); d < best {
							best, nearest = d, c
						}
					}
					assignment[i] = nearest
					acc[nearest].Absorb(hist)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i, obs := range l.obs {
			l.points[obs].abs = l.centroids[assignment[i]].abs
		}
		for c, cent := range l.centroids {
			for w := 0; w < workers; w++ {
				cent.next.Absorb(accs[w][c])
			}
			if !cent.next.Empty() {
				cent.mean, cent.next = cent.next, NewHistogram()
			} else {
				cent.next.Clear()
			}
		}
		l.log.Debug().Stringer("street", l.street).Int("round", round+1).Int("of", t).Msg("lloyd iteration")
	}
	return nil
}

// centroidMetric measures every centroid pair under the ground metric,
// storing the upper triangle only; XOR keys are symmetric.
func (l *Layer) centroidMetric() map[Pair]float32 {
	table := make(map[Pair]float32)
	for i := 0; i < len(l.centroids); i++ {
		for j := i + 1; j < len(l.centroids); j++ {
			a, b := l.centroids[i], l.centroids[j]
			table[PairOf(a.abs, b.abs)] = l.ground.EMD(a.mean, b.mean)
		}
	}
	return table
}

func sortedObservations(points map[poker.Observation]*point) []poker.Observation {
	out := make([]poker.Observation, 0, len(points))
	for obs := range points {
		out = append(out, obs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Encode() < out[j].Encode() })
	return out
}
