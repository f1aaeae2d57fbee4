// Package storage persists completed runs to disk: one directory per
// run holding metadata.json and history.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the per-run record written next to the history.
type RunMetadata struct {
	ID        string          `json:"id"`
	Preset    string          `json:"preset"`
	Timestamp time.Time       `json:"timestamp"`
	Seed      int64           `json:"seed"`
	ControlDt float64         `json:"control_dt"`
	Duration  float64         `json:"duration"`
	Stability metrics.Summary `json:"stability"`
}

var historyHeader = []string{"time", "height", "roll", "pitch", "x", "y", "drift"}

// Save writes one run. The run ID combines the preset name, a timestamp
// and a short unique suffix so concurrent runs never collide.
func (s *Store) Save(preset string, seed int64, controlDt float64, result *sim.Result, summary metrics.Summary) (string, error) {
	runID := fmt.Sprintf("%s_%s_%s", preset, time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Preset:    preset,
		Timestamp: time.Now(),
		Seed:      seed,
		ControlDt: controlDt,
		Duration:  result.Duration,
		Stability: summary,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "history.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteHistoryCSV(csvFile, result.History); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteHistoryCSV streams the history rows as CSV.
func WriteHistoryCSV(dst *os.File, history []sim.HistoryRow) error {
	w := csv.NewWriter(dst)
	defer w.Flush()

	if err := w.Write(historyHeader); err != nil {
		return err
	}
	for _, row := range history {
		rec := []string{
			fmtF(row.Time), fmtF(row.Height), fmtF(row.Roll), fmtF(row.Pitch),
			fmtF(row.X), fmtF(row.Y), fmtF(row.Drift),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns the metadata of every stored run, newest first.
// Directories without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadHistory reads one run's state trace.
func (s *Store) LoadHistory(runID string) ([]sim.HistoryRow, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "history.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.HistoryRow{}, nil
	}

	rows := make([]sim.HistoryRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(historyHeader) {
			continue
		}
		vals := make([]float64, len(historyHeader))
		ok := true
		for i := range vals {
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil || math.IsNaN(v) {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		rows = append(rows, sim.HistoryRow{
			Time: vals[0], Height: vals[1], Roll: vals[2], Pitch: vals[3],
			X: vals[4], Y: vals[5], Drift: vals[6],
		})
	}
	return rows, nil
}

// HistoryPath returns the CSV path of a stored run.
func (s *Store) HistoryPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "history.csv")
}
