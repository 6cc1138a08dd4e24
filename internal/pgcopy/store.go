package pgcopy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmy12k3/robopoker/internal/fileutil"
)

// CentroidRow maps a packed observation to its abstraction.
type CentroidRow struct {
	Observation int64
	Abstraction uint64
}

// DistanceRow maps an abstraction pair's XOR key to its distance.
type DistanceRow struct {
	Key      uint64
	Distance float32
}

// ProfileRow is one (bucket, edge) decision of a trained profile.
type ProfileRow struct {
	Past        uint64
	Abstraction uint64
	Future      uint64
	Edge        uint64
	Regret      float32
	Policy      float32
}

// Store reads and writes pgcopy artifacts under one directory. Dumps are
// ordered by primary key, flushed in batches, and renamed into place
// atomically so a crash never leaves a partial table behind.
type Store struct {
	dir   string
	batch int
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, batch: 10_000}
}

// Path resolves an artifact name inside the store.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// SaveCentroids dumps a centroid table ordered by observation key.
func (s *Store) SaveCentroids(name string, rows []CentroidRow) error {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Observation < rows[j].Observation })
	return s.save(name+".centroid.pgcopy", len(rows), func(w *Writer, i int) error {
		return w.Row(int64(rows[i].Observation), rows[i].Abstraction)
	})
}

// LoadCentroids reads a centroid table.
func (s *Store) LoadCentroids(name string) ([]CentroidRow, error) {
	var rows []CentroidRow
	err := s.load(name+".centroid.pgcopy", 2, func(r *Reader) error {
		obs, err := r.Uint64()
		if err != nil {
			return err
		}
		abs, err := r.Uint64()
		if err != nil {
			return err
		}
		rows = append(rows, CentroidRow{Observation: int64(obs), Abstraction: abs})
		return nil
	})
	return rows, err
}

// SaveDistances dumps a distance table ordered by XOR key.
func (s *Store) SaveDistances(name string, rows []DistanceRow) error {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return s.save(name+".distance.pgcopy", len(rows), func(w *Writer, i int) error {
		return w.Row(rows[i].Key, rows[i].Distance)
	})
}

// LoadDistances reads a distance table.
func (s *Store) LoadDistances(name string) ([]DistanceRow, error) {
	var rows []DistanceRow
	err := s.load(name+".distance.pgcopy", 2, func(r *Reader) error {
		key, err := r.Uint64()
		if err != nil {
			return err
		}
		d, err := r.Float32()
		if err != nil {
			return err
		}
		rows = append(rows, DistanceRow{Key: key, Distance: d})
		return nil
	})
	return rows, err
}

// SaveProfile dumps profile rows as <name>.profile.pgcopy, ordered by
// (past, abstraction, future, edge).
func (s *Store) SaveProfile(name string, rows []ProfileRow) error {
	sort.Slice(rows, func(i, j int) bool { return rows[i].less(rows[j]) })
	return s.save(name+".profile.pgcopy", len(rows), func(w *Writer, i int) error {
		row := rows[i]
		return w.Row(row.Past, row.Abstraction, row.Future, row.Edge, row.Regret, row.Policy)
	})
}

// LoadProfile reads a profile dump.
func (s *Store) LoadProfile(name string) ([]ProfileRow, error) {
	var rows []ProfileRow
	err := s.load(name+".profile.pgcopy", 6, func(r *Reader) error {
		var row ProfileRow
		var err error
		if row.Past, err = r.Uint64(); err != nil {
			return err
		}
		if row.Abstraction, err = r.Uint64(); err != nil {
			return err
		}
		if row.Future, err = r.Uint64(); err != nil {
			return err
		}
		if row.Edge, err = r.Uint64(); err != nil {
			return err
		}
		if row.Regret, err = r.Float32(); err != nil {
			return err
		}
		if row.Policy, err = r.Float32(); err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

func (a ProfileRow) less(b ProfileRow) bool {
	switch {
	case a.Past != b.Past:
		return a.Past < b.Past
	case a.Abstraction != b.Abstraction:
		return a.Abstraction < b.Abstraction
	case a.Future != b.Future:
		return a.Future < b.Future
	}
	return a.Edge < b.Edge
}

func (s *Store) save(name string, n int, row func(*Writer, int) error) error {
	return fileutil.WriteAtomic(s.Path(name), 0o644, func(f io.Writer) error {
		w, err := NewWriter(f)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := row(w, i); err != nil {
				return err
			}
			if (i+1)%s.batch == 0 {
				if err := w.Flush(); err != nil {
					return err
				}
			}
		}
		return w.Close()
	})
}

func (s *Store) load(name string, fields int, row func(*Reader) error) error {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for {
		more, err := r.Next(fields)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !more {
			return nil
		}
		if err := row(r); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
}
