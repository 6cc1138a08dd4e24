package mccfr

import (
	"fmt"

	"github.com/jmy12k3/robopoker/internal/clustering"
	"github.com/jmy12k3/robopoker/internal/pgcopy"
	"github.com/jmy12k3/robopoker/poker"
)

// Abstractor resolves an observation into its abstraction. The production
// implementation reads the clustered centroid tables; tests substitute
// cheap synthetic mappings.
type Abstractor interface {
	Abstraction(obs poker.Observation) (clustering.Abstraction, error)
}

// Encoder answers abstraction lookups from the per-street centroid tables
// built by the clustering pipeline. Tables are read-only once loaded.
type Encoder struct {
	tables map[poker.Street]map[int64]clustering.Abstraction
}

// LoadEncoder reads every street's centroid table from the store.
func LoadEncoder(store *pgcopy.Store) (*Encoder, error) {
	e := &Encoder{tables: make(map[poker.Street]map[int64]clustering.Abstraction)}
	for _, street := range poker.Streets() {
		rows, err := store.LoadCentroids(street.String())
		if err != nil {
			return nil, fmt.Errorf("load %s centroids: %w", street, err)
		}
		table := make(map[int64]clustering.Abstraction, len(rows))
		for _, row := range rows {
			table[row.Observation] = clustering.Abstraction(row.Abstraction)
		}
		e.tables[street] = table
	}
	return e, nil
}

// NewEncoder wraps prebuilt lookup tables keyed by packed observation.
func NewEncoder(tables map[poker.Street]map[int64]clustering.Abstraction) *Encoder {
	return &Encoder{tables: tables}
}

// Abstraction resolves an observation through its street's table.
func (e *Encoder) Abstraction(obs poker.Observation) (clustering.Abstraction, error) {
	table, ok := e.tables[obs.Street()]
	if !ok {
		return 0, fmt.Errorf("no centroid table for %s", obs.Street())
	}
	abs, ok := table[obs.Encode()]
	if !ok {
		return 0, fmt.Errorf("observation %s missing from %s table", obs, obs.Street())
	}
	return abs, nil
}
