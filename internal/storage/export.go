package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/vicsek/internal/vicsek"
)

// ExportData is the single-document JSON form of a stored run.
type ExportData struct {
	Metadata  RunMetadata       `json:"metadata"`
	Series    Series            `json:"series"`
	Particles []vicsek.Particle `json:"particles"`
}

// ExportJSON writes a stored run as one indented JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	particles, err := s.LoadParticles(runID)
	if err != nil {
		return err
	}
	return WriteJSON(w, ExportData{Metadata: *meta, Series: series, Particles: particles})
}

// WriteJSON encodes v with two-space indentation.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
