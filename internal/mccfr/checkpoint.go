package mccfr

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jmy12k3/robopoker/internal/clustering"
	"github.com/jmy12k3/robopoker/internal/fileutil"
	"github.com/jmy12k3/robopoker/internal/pgcopy"
)

const checkpointVersion = 1

// checkpointMeta rides alongside the profile dump so a resumed run keeps
// its epoch counter; DCFR discounts depend on it.
type checkpointMeta struct {
	Version    int    `json:"version"`
	Iterations uint64 `json:"iterations"`
}

// Rows flattens the profile into persistence rows, ordered by bucket then
// edge.
func (p *Profile) Rows() []pgcopy.ProfileRow {
	rows := make([]pgcopy.ProfileRow, 0, len(p.strategies))
	for bucket, strategy := range p.strategies {
		for edge, decision := range strategy {
			rows = append(rows, pgcopy.ProfileRow{
				Past:        uint64(bucket.Past),
				Abstraction: uint64(bucket.Abs),
				Future:      uint64(bucket.Future),
				Edge:        edge.U64(),
				Regret:      decision.Regret,
				Policy:      decision.Policy,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rowLess(rows[i], rows[j]) })
	return rows
}

func rowLess(a, b pgcopy.ProfileRow) bool {
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

// RestoreRows rebuilds the strategy map from persistence rows.
func (p *Profile) RestoreRows(rows []pgcopy.ProfileRow) error {
	strategies := make(map[Bucket]map[Edge]*Decision)
	for _, row := range rows {
		edge, err := EdgeFromU64(row.Edge)
		if err != nil {
			return err
		}
		bucket := Bucket{Past: Path(row.Past), Abs: clustering.Abstraction(row.Abstraction), Future: Path(row.Future)}
		strategy, ok := strategies[bucket]
		if !ok {
			strategy = make(map[Edge]*Decision)
			strategies[bucket] = strategy
		}
		strategy[edge] = &Decision{Regret: row.Regret, Policy: row.Policy}
	}
	p.strategies = strategies
	return nil
}

// SaveCheckpoint persists the profile dump plus its epoch counter. Each
// write is atomic on its own; a crash between them leaves the new dump next
// to the previous checkpoint's counter.
func SaveCheckpoint(store *pgcopy.Store, name string, p *Profile) error {
	if err := store.SaveProfile(name, p.Rows()); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	meta := checkpointMeta{Version: checkpointVersion, Iterations: p.Epochs()}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(store.Path(name+".checkpoint.json"), data, 0o644)
}

// LoadCheckpoint restores a profile and its epoch counter. A missing meta
// file restores the strategies with the counter reset.
func LoadCheckpoint(store *pgcopy.Store, name string, cfg Config) (*Profile, error) {
	rows, err := store.LoadProfile(name)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p := NewProfile(cfg)
	if err := p.RestoreRows(rows); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(store.Path(name + ".checkpoint.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}
	var meta checkpointMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode checkpoint meta: %w", err)
	}
	if meta.Version != checkpointVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d", meta.Version)
	}
	p.iterations = meta.Iterations
	return p, nil
}
