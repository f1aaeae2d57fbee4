package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/sim"
)

func sampleResult() *sim.Result {
	history := make([]sim.HistoryRow, 0, 10)
	for i := 0; i < 10; i++ {
		t := float64(i) * 0.02
		history = append(history, sim.HistoryRow{
			Time: t, Height: 0.28, Roll: 0.1, Pitch: -0.2,
			X: 0.001 * float64(i), Y: 0, Drift: 0.001 * float64(i),
		})
	}
	return &sim.Result{Ticks: 10, Duration: 0.2, History: history}
}

func sampleSummary() metrics.Summary {
	return metrics.Summary{Samples: 10, Score: 98.5, IsStable: true}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	runID, err := store.Save("default", 42, 0.02, sampleResult(), sampleSummary())
	require.NoError(t, err)
	assert.Contains(t, runID, "default_")

	meta, err := store.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "default", meta.Preset)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 98.5, meta.Stability.Score)
	assert.True(t, meta.Stability.IsStable)
}

func TestLoadHistoryRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	result := sampleResult()
	runID, err := store.Save("default", 42, 0.02, result, sampleSummary())
	require.NoError(t, err)

	rows, err := store.LoadHistory(runID)
	require.NoError(t, err)
	require.Len(t, rows, len(result.History))
	for i, row := range rows {
		assert.InDelta(t, result.History[i].Time, row.Time, 1e-6)
		assert.InDelta(t, result.History[i].Height, row.Height, 1e-6)
		assert.InDelta(t, result.History[i].Drift, row.Drift, 1e-6)
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	first, err := store.Save("default", 1, 0.02, sampleResult(), sampleSummary())
	require.NoError(t, err)
	second, err := store.Save("noisy", 2, 0.02, sampleResult(), sampleSummary())
	require.NoError(t, err)

	runs, err := store.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
}

func TestListEmptyDir(t *testing.T) {
	store := New(t.TempDir() + "/nonexistent")

	runs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestUniqueRunIDs(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		id, err := store.Save("default", 42, 0.02, sampleResult(), sampleSummary())
		require.NoError(t, err)
		assert.False(t, seen[id], "run ID %q repeated", id)
		seen[id] = true
	}
}

func TestLoadMissingRun(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Load("no-such-run")
	assert.Error(t, err)
}
