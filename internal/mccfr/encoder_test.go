package mccfr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmy12k3/robopoker/internal/clustering"
	"github.com/jmy12k3/robopoker/internal/pgcopy"
	"github.com/jmy12k3/robopoker/poker"
)

func TestLoadEncoder(t *testing.T) {
	store := pgcopy.NewStore(t.TempDir())

	pre := poker.MustObservation(poker.MustHand("As Kh"), 0)
	flop := poker.MustObservation(poker.MustHand("As Kh"), poker.MustHand("Qd Jc Ts"))
	turn := poker.MustObservation(poker.MustHand("As Kh"), poker.MustHand("Qd Jc Ts 2h"))
	river := poker.MustObservation(poker.MustHand("As Kh"), poker.MustHand("Qd Jc Ts 2h 7c"))

	tables := map[poker.Street]poker.Observation{
		poker.Preflop: pre,
		poker.Flop:    flop,
		poker.Turn:    turn,
		poker.River:   river,
	}
	for street, obs := range tables {
		rows := []pgcopy.CentroidRow{{Observation: obs.Encode(), Abstraction: 500 + uint64(street)}}
		require.NoError(t, store.SaveCentroids(street.String(), rows))
	}

	enc, err := LoadEncoder(store)
	require.NoError(t, err)

	abs, err := enc.Abstraction(flop)
	require.NoError(t, err)
	assert.Equal(t, clustering.Abstraction(500+uint64(poker.Flop)), abs)

	// Unknown observation is an invariant violation, not a default.
	other := poker.MustObservation(poker.MustHand("2c 3d"), poker.MustHand("Qd Jc Ts"))
	_, err = enc.Abstraction(other)
	assert.Error(t, err)
}

func TestLoadEncoderMissingStreet(t *testing.T) {
	store := pgcopy.NewStore(t.TempDir())
	_, err := LoadEncoder(store)
	assert.Error(t, err)
}

func TestNewEncoderTables(t *testing.T) {
	obs := poker.MustObservation(poker.MustHand("As Kh"), 0)
	enc := NewEncoder(map[poker.Street]map[int64]clustering.Abstraction{
		poker.Preflop: {obs.Encode(): 7},
	})
	abs, err := enc.Abstraction(obs)
	require.NoError(t, err)
	assert.Equal(t, clustering.Abstraction(7), abs)

	flop := poker.MustObservation(poker.MustHand("As Kh"), poker.MustHand("Qd Jc Ts"))
	_, err = enc.Abstraction(flop)
	assert.Error(t, err)
}
