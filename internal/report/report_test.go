package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/sim"
)

func sampleHistory(n int) []sim.HistoryRow {
	history := make([]sim.HistoryRow, n)
	for i := range history {
		t := float64(i) * 0.02
		history[i] = sim.HistoryRow{
			Time:   t,
			Height: 0.28 + 0.002*math.Sin(3*t),
			Roll:   0.5 * math.Sin(2*t),
			Pitch:  -0.3 * math.Cos(2*t),
			X:      0.001 * t,
			Drift:  0.001 * t,
		}
	}
	return history
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.png")

	err := SavePNG(path, sampleHistory(200), metrics.DefaultThresholds())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4], "not a PNG file")
}

func TestSavePNGEmptyHistory(t *testing.T) {
	err := SavePNG(filepath.Join(t.TempDir(), "run.png"), nil, metrics.DefaultThresholds())
	assert.Error(t, err)
}

func TestSaveHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.html")
	summary := metrics.Summary{Samples: 200, Score: 97.3, IsStable: true}

	err := SaveHTML(path, "test run", sampleHistory(200), summary)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Stability Score")
	assert.Contains(t, string(data), "echarts")
}

func TestSaveHTMLEmptyHistory(t *testing.T) {
	err := SaveHTML(filepath.Join(t.TempDir(), "run.html"), "empty", nil, metrics.Summary{})
	assert.Error(t, err)
}
