// Package storage persists finished runs: metadata plus the sampled step
// statistics.
package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/san-kum/cellsim/internal/sim"
)

// ErrRunNotFound indicates an unknown run ID.
var ErrRunNotFound = errors.New("storage: run not found")

// Backend is implemented by every run store.
type Backend interface {
	Save(ctx context.Context, meta RunMetadata, stats []sim.Stats) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, runID string) (*RunMetadata, error)
	LoadStats(ctx context.Context, runID string) ([]sim.Stats, error)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scene      string             `json:"scene"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	StepsTaken int                `json:"steps_taken"`
	Cells      int                `json:"cells"`
	Integrator string             `json:"integrator"`
	Elapsed    time.Duration      `json:"elapsed"`
	Metrics    map[string]float64 `json:"metrics"`
}

// NewRunID derives a run ID from the scene name and the current time.
func NewRunID(scene string) string {
	return fmt.Sprintf("%s_%d", scene, time.Now().UnixNano())
}

// Store keeps one directory per run holding metadata.json and stats.csv.
type Store struct {
	baseDir string
}

var _ Backend = (*Store)(nil)

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

func (s *Store) Save(_ context.Context, meta RunMetadata, stats []sim.Stats) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Scene)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := s.Dir(meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
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

	csvFile, err := os.Create(filepath.Join(runDir, "stats.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, stats); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// WriteCSV writes a header row followed by one row per sample.
func WriteCSV(out io.Writer, stats []sim.Stats) error {
	w := csv.NewWriter(out)
	if err := w.Write(sim.Fields); err != nil {
		return err
	}
	row := make([]string, len(sim.Fields))
	for _, st := range stats {
		for i, v := range st.Values() {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every stored run, oldest first.
func (s *Store) List(_ context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.readMeta(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(_ context.Context, runID string) (*RunMetadata, error) {
	meta, err := s.readMeta(runID)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return meta, err
}

func (s *Store) readMeta(runID string) (*RunMetadata, error) {
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

func (s *Store) LoadStats(_ context.Context, runID string) ([]sim.Stats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "stats.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Stats{}, nil
	}

	stats := make([]sim.Stats, 0, len(records)-1)
	for _, record := range records[1:] {
		vals := make([]float64, 0, len(record))
		for _, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %q: %w", field, err)
			}
			vals = append(vals, v)
		}
		stats = append(stats, sim.StatsFromValues(vals))
	}
	return stats, nil
}
