package clustering

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jmy12k3/robopoker/poker"
)

// CentroidRow is one observation's abstraction assignment.
type CentroidRow struct {
	Observation poker.Observation
	Abstraction Abstraction
}

// Sink receives batches of centroid rows for persistence. Batch keys are
// unique because shards are disjoint.
type Sink interface {
	WriteBatch(rows []CentroidRow) error
}

// Source shards an observation space across n workers. Shards must be
// disjoint and cover the space.
type Source interface {
	Shard(i, n int, fn func(poker.Observation) error) error
}

// StreetSource shards a street's full observation space by pocket index.
type StreetSource struct {
	Street poker.Street
}

// Shard enumerates every (pocket, board) pair whose pocket index is
// congruent to i modulo n.
func (s StreetSource) Shard(i, n int, fn func(poker.Observation) error) error {
	pockets := poker.Pockets()
	for p := i; p < len(pockets); p += n {
		boards := poker.BoardsFor(s.Street, pockets[p])
		for {
			board, ok := boards.Next()
			if !ok {
				break
			}
			obs, err := poker.NewObservation(pockets[p], board)
			if err != nil {
				return err
			}
			if err := fn(obs); err != nil {
				return err
			}
		}
	}
	return nil
}

// SliceSource shards a fixed observation list by index. Test seam and small
// sweep driver.
type SliceSource []poker.Observation

func (s SliceSource) Shard(i, n int, fn func(poker.Observation) error) error {
	for j := i; j < len(s); j += n {
		if err := fn(s[j]); err != nil {
			return err
		}
	}
	return nil
}

// Seeder computes the river equity bucket of every observation in a source.
// Workers own disjoint shards and stream rows into a bounded channel; a
// single consumer batches rows into the sink. Any worker failure aborts the
// whole job: a partial table is invalid.
type Seeder struct {
	Buckets   int
	Workers   int
	BatchSize int
	Source    Source
	Log       zerolog.Logger
}

// Bucket discretizes a river equity into one of the seeder's equal-width
// buckets.
func (s *Seeder) Bucket(obs poker.Observation) Abstraction {
	idx := int(obs.Equity() * float32(s.Buckets))
	if idx >= s.Buckets {
		idx = s.Buckets - 1
	}
	if idx < 0 {
		idx = 0
	}
	return EquityBucket(idx)
}

// Run seeds the table, returning the full in-memory assignment. A nil sink
// skips persistence.
func (s *Seeder) Run(ctx context.Context, sink Sink) (map[poker.Observation]Abstraction, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = 10_000
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	rows := make(chan CentroidRow, batch)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			return s.Source.Shard(w, workers, func(obs poker.Observation) error {
				if err := gctx.Err(); err != nil {
					return err
				}
				row := CentroidRow{Observation: obs, Abstraction: s.Bucket(obs)}
				select {
				case rows <- row:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		})
	}
	go func() {
		_ = g.Wait()
		close(rows)
	}()

	out := make(map[poker.Observation]Abstraction)
	pending := make([]CentroidRow, 0, batch)
	flush := func() error {
		if sink == nil || len(pending) == 0 {
			return nil
		}
		if err := sink.WriteBatch(pending); err != nil {
			return err
		}
		s.Log.Debug().Int("rows", len(pending)).Int("total", len(out)).Msg("centroid batch persisted")
		pending = pending[:0]
		return nil
	}

	var sinkErr error
	for row := range rows {
		if sinkErr != nil {
			continue // drain so producers unblock
		}
		out[row.Observation] = row.Abstraction
		pending = append(pending, row)
		if len(pending) >= batch {
			if sinkErr = flush(); sinkErr != nil {
				cancel()
			}
		}
	}
	if sinkErr != nil {
		return nil, sinkErr
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	s.Log.Info().Int("observations", len(out)).Int("buckets", s.Buckets).Msg("equity seeding complete")
	return out, nil
}
