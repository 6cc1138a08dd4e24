// Package config loads the solver's HCL configuration and resolves it into
// the per-subsystem parameter structs.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/jmy12k3/robopoker/internal/clustering"
	"github.com/jmy12k3/robopoker/internal/game"
	"github.com/jmy12k3/robopoker/internal/mccfr"
	"github.com/jmy12k3/robopoker/poker"
)

// File is the HCL schema. Every attribute and block is optional and absent
// values fall back to the defaults, except that a street block must set both
// k and t.
type File struct {
	Deck       string           `hcl:"deck,optional"`
	Artifacts  string           `hcl:"artifacts,optional"`
	Clustering *ClusteringBlock `hcl:"clustering,block"`
	Training   *TrainingBlock   `hcl:"training,block"`
}

// ClusteringBlock configures the abstraction pipeline.
type ClusteringBlock struct {
	EquityBuckets int           `hcl:"equity_buckets,optional"`
	Workers       int           `hcl:"workers,optional"`
	BatchSize     int           `hcl:"batch_size,optional"`
	Seed          int64         `hcl:"seed,optional"`
	Streets       []StreetBlock `hcl:"street,block"`
}

// StreetBlock sets one street's k-means parameters.
type StreetBlock struct {
	Name string `hcl:"name,label"`
	K    int    `hcl:"k"`
	T    int    `hcl:"t"`
}

// TrainingBlock configures the learner.
type TrainingBlock struct {
	Iterations      int64   `hcl:"iterations,optional"`
	DiscountPhase   int64   `hcl:"discount_phase,optional"`
	PruningPhase    int64   `hcl:"pruning_phase,optional"`
	RegretMin       float64 `hcl:"regret_min,optional"`
	RegretMax       float64 `hcl:"regret_max,optional"`
	PolicyMin       float64 `hcl:"policy_min,optional"`
	Alpha           float64 `hcl:"alpha,optional"`
	Omega           float64 `hcl:"omega,optional"`
	Gamma           float64 `hcl:"gamma,optional"`
	Period          int64   `hcl:"period,optional"`
	CheckpointEvery int64   `hcl:"checkpoint_every,optional"`
	Seed            int64   `hcl:"seed,optional"`
	SmallBlind      int     `hcl:"small_blind,optional"`
	BigBlind        int     `hcl:"big_blind,optional"`
	Stack           int     `hcl:"stack,optional"`
}

// Config is the fully resolved configuration.
type Config struct {
	Deck       poker.DeckMode
	Artifacts  string
	Clustering clustering.Params
	Training   mccfr.Config
	Game       game.Config
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Deck:       poker.FullDeck,
		Artifacts:  "artifacts",
		Clustering: clustering.DefaultParams(),
		Training:   mccfr.DefaultConfig(),
		Game:       game.Config{SmallBlind: 1, BigBlind: 2, Stack: 200},
	}
}

// Load reads an HCL file over the defaults. A missing file yields the
// defaults unchanged; a missing path argument is the same.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("parse %s: %s", path, diags.Error())
	}
	var raw File
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return cfg, fmt.Errorf("decode %s: %s", path, diags.Error())
	}
	return cfg.apply(raw)
}

func (c Config) apply(raw File) (Config, error) {
	if raw.Deck != "" {
		mode, ok := poker.ParseDeckMode(raw.Deck)
		if !ok {
			return c, fmt.Errorf("unknown deck mode %q", raw.Deck)
		}
		c.Deck = mode
	}
	if raw.Artifacts != "" {
		c.Artifacts = raw.Artifacts
	}
	if b := raw.Clustering; b != nil {
		if b.EquityBuckets > 0 {
			c.Clustering.EquityBuckets = b.EquityBuckets
		}
		if b.Workers > 0 {
			c.Clustering.Workers = b.Workers
		}
		if b.BatchSize > 0 {
			c.Clustering.BatchSize = b.BatchSize
		}
		if b.Seed != 0 {
			c.Clustering.Seed = uint64(b.Seed)
		}
		for _, s := range b.Streets {
			street, ok := parseStreet(s.Name)
			if !ok {
				return c, fmt.Errorf("unknown street %q", s.Name)
			}
			c.Clustering.Streets[street] = clustering.StreetParams{K: s.K, T: s.T}
		}
	}
	if b := raw.Training; b != nil {
		if b.Iterations > 0 {
			c.Training.Iterations = uint64(b.Iterations)
		}
		if b.DiscountPhase > 0 {
			c.Training.DiscountPhase = uint64(b.DiscountPhase)
		}
		if b.PruningPhase > 0 {
			c.Training.PruningPhase = uint64(b.PruningPhase)
		}
		if b.RegretMin != 0 {
			c.Training.RegretMin = float32(b.RegretMin)
		}
		if b.RegretMax != 0 {
			c.Training.RegretMax = float32(b.RegretMax)
		}
		if b.PolicyMin != 0 {
			c.Training.PolicyMin = float32(b.PolicyMin)
		}
		if b.Alpha != 0 {
			c.Training.Discount.Alpha = b.Alpha
		}
		if b.Omega != 0 {
			c.Training.Discount.Omega = b.Omega
		}
		if b.Gamma != 0 {
			c.Training.Discount.Gamma = b.Gamma
		}
		if b.Period > 0 {
			c.Training.Discount.Period = uint64(b.Period)
		}
		if b.CheckpointEvery > 0 {
			c.Training.CheckpointEvery = uint64(b.CheckpointEvery)
		}
		if b.Seed != 0 {
			c.Training.Seed = uint64(b.Seed)
		}
		if b.SmallBlind > 0 {
			c.Game.SmallBlind = b.SmallBlind
		}
		if b.BigBlind > 0 {
			c.Game.BigBlind = b.BigBlind
		}
		if b.Stack > 0 {
			c.Game.Stack = b.Stack
		}
	}
	return c, nil
}

// Validate checks every subsystem's parameters.
func (c Config) Validate() error {
	if err := c.Clustering.Validate(); err != nil {
		return fmt.Errorf("clustering: %w", err)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if c.Artifacts == "" {
		return fmt.Errorf("artifacts directory is required")
	}
	return nil
}

func parseStreet(name string) (poker.Street, bool) {
	for _, s := range poker.Streets() {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
