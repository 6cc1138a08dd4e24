package mccfr

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/jmy12k3/robopoker/internal/game"
	"github.com/jmy12k3/robopoker/internal/pgcopy"
	"github.com/jmy12k3/robopoker/poker"
)

// Progress is emitted during long training runs.
type Progress struct {
	Epoch    uint64
	Buckets  int
	TreeSize int
	Elapsed  time.Duration
}

// Trainer runs sequential MCCFR epochs: one sampled tree per epoch, walker
// alternating by parity, regrets and policies folded back into the profile
// after each traversal.
type Trainer struct {
	cfg        Config
	gameCfg    game.Config
	profile    *Profile
	abstractor Abstractor
	log        zerolog.Logger
	clock      quartz.Clock

	store              *pgcopy.Store
	checkpointName     string
	checkpointInterval time.Duration
	lastCheckpoint     time.Time
}

// NewTrainer wires a trainer from its configs.
func NewTrainer(cfg Config, gameCfg game.Config, abstractor Abstractor, log zerolog.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := gameCfg.Validate(); err != nil {
		return nil, err
	}
	if abstractor == nil {
		return nil, fmt.Errorf("abstractor is required")
	}
	return &Trainer{
		cfg:        cfg,
		gameCfg:    gameCfg,
		profile:    NewProfile(cfg),
		abstractor: abstractor,
		log:        log,
		clock:      quartz.NewReal(),
	}, nil
}

// Profile exposes the learner state.
func (t *Trainer) Profile() *Profile { return t.profile }

// Resume replaces the profile with a restored checkpoint.
func (t *Trainer) Resume(p *Profile) { t.profile = p }

// EnableCheckpoints writes the profile to the store every interval and at
// the configured epoch cadence.
func (t *Trainer) EnableCheckpoints(store *pgcopy.Store, name string, interval time.Duration) {
	t.store = store
	t.checkpointName = name
	t.checkpointInterval = interval
}

// SetClock injects a clock; tests use a mock to drive interval checkpoints.
func (t *Trainer) SetClock(clock quartz.Clock) { t.clock = clock }

// Run executes epochs until the configured iteration count or context
// cancellation. The progress callback fires once per epoch when set.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	t.lastCheckpoint = t.clock.Now()
	for t.profile.Epochs() < t.cfg.Iterations {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		start := t.clock.Now()
		tree, err := t.sample()
		if err != nil {
			return fmt.Errorf("epoch %d: sample: %w", t.profile.Epochs(), err)
		}
		if err := t.update(tree); err != nil {
			return fmt.Errorf("epoch %d: update: %w", t.profile.Epochs(), err)
		}
		epoch := t.profile.Advance()

		if progress != nil {
			progress(Progress{
				Epoch:    epoch,
				Buckets:  t.profile.Size(),
				TreeSize: tree.Size(),
				Elapsed:  t.clock.Now().Sub(start),
			})
		}
		if err := t.maybeCheckpoint(epoch); err != nil {
			return err
		}
	}
	return t.checkpoint()
}

func (t *Trainer) maybeCheckpoint(epoch uint64) error {
	if t.store == nil {
		return nil
	}
	due := t.cfg.CheckpointEvery > 0 && epoch%t.cfg.CheckpointEvery == 0
	if t.checkpointInterval > 0 && t.clock.Now().Sub(t.lastCheckpoint) >= t.checkpointInterval {
		due = true
	}
	if !due {
		return nil
	}
	return t.checkpoint()
}

func (t *Trainer) checkpoint() error {
	if t.store == nil {
		return nil
	}
	if err := SaveCheckpoint(t.store, t.checkpointName, t.profile); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	t.lastCheckpoint = t.clock.Now()
	t.log.Info().Uint64("epoch", t.profile.Epochs()).Int("buckets", t.profile.Size()).Msg("checkpoint saved")
	return nil
}

// sample builds one epoch's tree under external sampling: the walker's
// decisions expand fully, opponent decisions collapse to one policy-weighted
// edge, chance collapses to one uniform deal.
func (t *Trainer) sample() (*Tree, error) {
	tree := NewTree()
	rng := t.profile.RNG(Bucket{})
	g := game.New(t.gameCfg, 0)
	g = g.DealPockets(t.dealPockets(rng))
	root := tree.AddRoot(Data{Game: g})
	if err := t.expand(tree, root); err != nil {
		return nil, err
	}
	return tree, nil
}

// dealPockets draws both players' hole cards uniformly from the deck.
func (t *Trainer) dealPockets(rng *PCG32) (poker.Hand, poker.Hand) {
	remaining := poker.Mode().FullHand()
	draw := func(n int) poker.Hand {
		var h poker.Hand
		for i := 0; i < n; i++ {
			cards := remaining.Cards()
			c := cards[rng.IntN(len(cards))]
			h = h.Add(c.Hand())
			remaining = remaining.Remove(c.Hand())
		}
		return h
	}
	return draw(2), draw(2)
}

func (t *Trainer) expand(tree *Tree, node int) error {
	g := tree.At(node).Data.Game
	if g.IsTerminal() {
		return nil
	}
	if g.IsChance() {
		return t.expandChance(tree, node)
	}
	return t.expandDecision(tree, node)
}

// expandChance deals one uniform reveal, the single sampled chance edge.
func (t *Trainer) expandChance(tree *Tree, node int) error {
	g := tree.At(node).Data.Game
	rng := t.profile.RNG(Bucket{Past: tree.At(node).Path})
	remaining := g.Remaining()
	var reveal poker.Hand
	for i := 0; i < g.Street().Reveals(); i++ {
		cards := remaining.Remove(reveal).Cards()
		reveal = reveal.Add(cards[rng.IntN(len(cards))].Hand())
	}
	child, err := g.Deal(reveal)
	if err != nil {
		return err
	}
	idx := tree.Add(node, EdgeDraw, Data{Game: child})
	return t.expand(tree, idx)
}

func (t *Trainer) expandDecision(tree *Tree, node int) error {
	g := tree.At(node).Data.Game
	actor := g.Actor()
	obs, err := g.Observation(actor)
	if err != nil {
		return err
	}
	abs, err := t.abstractor.Abstraction(obs)
	if err != nil {
		return err
	}
	edges := availableEdges(g)
	bucket := Bucket{Past: tree.At(node).Path, Abs: abs, Future: FuturePath(edges)}
	tree.At(node).Data.Bucket = bucket
	if err := t.profile.Witness(bucket, edges); err != nil {
		return err
	}

	var chosen []Edge
	if actor == t.profile.Walker() {
		chosen = t.profile.SampleAll(edges)
		tree.Index(node)
	} else {
		edge, err := t.profile.SampleOne(bucket, edges)
		if err != nil {
			return err
		}
		chosen = []Edge{edge}
	}
	for _, e := range chosen {
		action, err := e.Action(g)
		if err != nil {
			return err
		}
		child, err := g.Apply(action)
		if err != nil {
			return fmt.Errorf("edge %s: %w", e, err)
		}
		idx := tree.Add(node, e, Data{Game: child})
		if err := t.expand(tree, idx); err != nil {
			return err
		}
	}
	return nil
}

// update computes both vectors for every walker infoset from the frozen
// epoch state, then folds them into the profile.
func (t *Trainer) update(tree *Tree) error {
	type pending struct {
		bucket Bucket
		regret map[Edge]float32
		policy map[Edge]float32
	}
	updates := make([]pending, 0, len(tree.Infosets()))
	for bucket, roots := range tree.Infosets() {
		regret, err := t.profile.RegretVector(tree, bucket, roots)
		if err != nil {
			return err
		}
		updates = append(updates, pending{
			bucket: bucket,
			regret: regret,
			policy: t.profile.PolicyVector(bucket),
		})
	}
	for _, u := range updates {
		if err := t.profile.RegretUpdate(u.bucket, u.regret); err != nil {
			return err
		}
		if err := t.profile.PolicyUpdate(u.bucket, u.policy); err != nil {
			return err
		}
	}
	return nil
}

// availableEdges maps the game's legal actions onto the closed edge set,
// expanding raises over the grid entries that fit the raise window.
func availableEdges(g game.Game) []Edge {
	var edges []Edge
	for _, a := range g.LegalActions() {
		switch a.Type {
		case game.Fold:
			edges = append(edges, EdgeFold)
		case game.Check:
			edges = append(edges, EdgeCheck)
		case game.Call:
			edges = append(edges, EdgeCall)
		case game.Shove:
			edges = append(edges, EdgeShove)
		}
	}
	if min, max, ok := g.RaiseBounds(); ok {
		pot := g.Pot()
		for i, odds := range OddsGrid {
			if chips := odds.Chips(pot); chips >= min && chips <= max {
				edges = append(edges, RaiseEdge(i))
			}
		}
	}
	return edges
}
