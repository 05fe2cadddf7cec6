package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/cellsim/internal/sim"
)

type ExportData struct {
	RunMetadata
	Fields  []string    `json:"fields"`
	Samples [][]float64 `json:"samples"`
}

func NewExportData(meta RunMetadata, stats []sim.Stats) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Fields:      sim.Fields,
		Samples:     make([][]float64, len(stats)),
	}
	for i, s := range stats {
		data.Samples[i] = s.Values()
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, stats []sim.Stats) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, stats)
}

func WriteJSON(w io.Writer, meta RunMetadata, stats []sim.Stats) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, stats))
}
