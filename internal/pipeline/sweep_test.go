package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_Grid(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)

	cells, err := Sweep(context.Background(), testOptions(s), pairs, []float64{1.5, 2.0}, []float64{0.1, 0.3, 0.5})
	require.NoError(t, err)
	require.Len(t, cells, 6)

	assert.Equal(t, 1.5, cells[0].EntryZ)
	assert.Equal(t, 0.1, cells[0].ExitZ)
	assert.Equal(t, 1.5, cells[2].EntryZ)
	assert.Equal(t, 0.5, cells[2].ExitZ)
	assert.Equal(t, 2.0, cells[3].EntryZ)

	seen := make(map[string]bool)
	for _, c := range cells {
		require.NoError(t, c.Err)
		assert.False(t, seen[c.RunID], "run IDs must be unique per cell")
		seen[c.RunID] = true
	}
}

func TestSweep_DefaultGrid(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)

	cells, err := Sweep(context.Background(), testOptions(s), pairs, nil, nil)
	require.NoError(t, err)
	assert.Len(t, cells, len(DefaultSweepEntryValues)*len(DefaultSweepExitValues))
}

func TestSweep_InvalidCellRecorded(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)

	cells, err := Sweep(context.Background(), testOptions(s), pairs, []float64{-1}, []float64{0.3})
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Error(t, cells[0].Err)
}

func TestSweep_Cancelled(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sweep(ctx, testOptions(s), pairs, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
