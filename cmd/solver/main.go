// Command solver builds the hand abstraction hierarchy and trains the
// blueprint strategy over it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jmy12k3/robopoker/internal/clustering"
	"github.com/jmy12k3/robopoker/internal/config"
	"github.com/jmy12k3/robopoker/internal/mccfr"
	"github.com/jmy12k3/robopoker/internal/pgcopy"
	"github.com/jmy12k3/robopoker/poker"
)

var cli struct {
	Debug  bool   `help:"enable debug logging"`
	Config string `help:"path to HCL config file" default:"solver.hcl"`

	Cluster ClusterCmd `cmd:"" help:"build the abstraction hierarchy bottom-up and persist its tables"`
	Train   TrainCmd   `cmd:"" help:"run MCCFR training over the clustered abstraction"`
	Show    ShowCmd    `cmd:"" help:"summarize a trained profile dump"`
}

type ClusterCmd struct{}

type TrainCmd struct {
	Name           string `help:"profile artifact name" default:"blueprint"`
	Iterations     int    `help:"override configured iteration count" default:"0"`
	CheckpointMins int    `help:"checkpoint interval in minutes (0 disables the timer)" default:"10"`
	Resume         bool   `help:"resume from the existing profile checkpoint"`
}

type ShowCmd struct {
	Name string `help:"profile artifact name" default:"blueprint"`
	Top  int    `help:"buckets to print" default:"20"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("solver"),
		kong.Description("heads-up no-limit hold'em blueprint tooling"),
		kong.UsageOnError(),
	)
	setupLogger(cli.Debug)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	poker.SetDeckMode(cfg.Deck)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch ctx.Command() {
	case "cluster":
		err = cli.Cluster.Run(runCtx, cfg)
	case "train":
		err = cli.Train.Run(runCtx, cfg)
	case "show":
		err = cli.Show.Run(cfg)
	default:
		log.Fatal().Msgf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

// storeSink collects the seeder's streamed batches; the table is sorted and
// written as one atomic dump once seeding completes.
type storeSink struct {
	rows []pgcopy.CentroidRow
}

func (s *storeSink) WriteBatch(rows []clustering.CentroidRow) error {
	for _, r := range rows {
		s.rows = append(s.rows, pgcopy.CentroidRow{
			Observation: r.Observation.Encode(),
			Abstraction: uint64(r.Abstraction),
		})
	}
	return nil
}

func (cmd *ClusterCmd) Run(ctx context.Context, cfg config.Config) error {
	store := pgcopy.NewStore(cfg.Artifacts)
	start := time.Now()

	log.Info().Int("equity_buckets", cfg.Clustering.EquityBuckets).Msg("seeding river equities")
	sink := &storeSink{}
	layer, err := clustering.Outer(ctx, cfg.Clustering, log.Logger, sink)
	if err != nil {
		return fmt.Errorf("river layer: %w", err)
	}
	if err := store.SaveCentroids(poker.River.String(), sink.rows); err != nil {
		return fmt.Errorf("save river centroids: %w", err)
	}

	for layer.Street() != poker.Preflop {
		inner := layer.Street().Prev()
		layer, err = layer.Inner(ctx)
		if err != nil {
			return fmt.Errorf("%s layer: %w", inner, err)
		}
		if err := saveLayer(store, layer); err != nil {
			return err
		}
	}

	log.Info().Dur("duration", time.Since(start)).Msg("abstraction hierarchy complete")
	return nil
}

func saveLayer(store *pgcopy.Store, layer *clustering.Layer) error {
	street := layer.Street().String()
	var centroids []pgcopy.CentroidRow
	for obs, abs := range layer.Lookup() {
		centroids = append(centroids, pgcopy.CentroidRow{
			Observation: obs.Encode(),
			Abstraction: uint64(abs),
		})
	}
	if err := store.SaveCentroids(street, centroids); err != nil {
		return fmt.Errorf("save %s centroids: %w", street, err)
	}
	var distances []pgcopy.DistanceRow
	for pair, d := range layer.Metric() {
		distances = append(distances, pgcopy.DistanceRow{Key: uint64(pair), Distance: d})
	}
	if err := store.SaveDistances(street, distances); err != nil {
		return fmt.Errorf("save %s distances: %w", street, err)
	}
	log.Info().Str("street", street).Int("centroids", len(centroids)).Int("pairs", len(distances)).Msg("layer persisted")
	return nil
}

func (cmd *TrainCmd) Run(ctx context.Context, cfg config.Config) error {
	if cmd.Iterations > 0 {
		cfg.Training.Iterations = uint64(cmd.Iterations)
	}
	store := pgcopy.NewStore(cfg.Artifacts)

	encoder, err := mccfr.LoadEncoder(store)
	if err != nil {
		return fmt.Errorf("load abstraction tables: %w", err)
	}
	trainer, err := mccfr.NewTrainer(cfg.Training, cfg.Game, encoder, log.Logger)
	if err != nil {
		return err
	}
	trainer.EnableCheckpoints(store, cmd.Name, time.Duration(cmd.CheckpointMins)*time.Minute)

	if cmd.Resume {
		profile, err := mccfr.LoadCheckpoint(store, cmd.Name, cfg.Training)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		trainer.Resume(profile)
		log.Info().Uint64("epoch", profile.Epochs()).Msg("resuming from checkpoint")
	}

	start := time.Now()
	every := cfg.Training.Iterations / 100
	if every == 0 {
		every = 1
	}
	err = trainer.Run(ctx, func(p mccfr.Progress) {
		if p.Epoch%every == 0 {
			log.Info().
				Uint64("epoch", p.Epoch).
				Int("buckets", p.Buckets).
				Int("nodes", p.TreeSize).
				Dur("epoch_time", p.Elapsed).
				Msg("progress")
		}
	})
	if err != nil {
		return err
	}
	log.Info().
		Dur("duration", time.Since(start)).
		Int("buckets", trainer.Profile().Size()).
		Msg("training complete")
	return nil
}

func (cmd *ShowCmd) Run(cfg config.Config) error {
	store := pgcopy.NewStore(cfg.Artifacts)
	rows, err := store.LoadProfile(cmd.Name)
	if err != nil {
		return err
	}

	type line struct {
		bucket string
		edge   string
		regret float32
		policy float32
	}
	var lines []line
	for _, row := range rows {
		edge, err := mccfr.EdgeFromU64(row.Edge)
		if err != nil {
			return err
		}
		lines = append(lines, line{
			bucket: fmt.Sprintf("%016x|%016x|%016x", row.Past, row.Abstraction, row.Future),
			edge:   edge.String(),
			regret: row.Regret,
			policy: row.Policy,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].policy > lines[j].policy })
	if cmd.Top > 0 && len(lines) > cmd.Top {
		lines = lines[:cmd.Top]
	}
	fmt.Printf("%d decisions in %s\n", len(rows), cmd.Name)
	for _, l := range lines {
		fmt.Printf("%s  %-10s regret=%12.4f policy=%8.4f\n", l.bucket, l.edge, l.regret, l.policy)
	}
	return nil
}
