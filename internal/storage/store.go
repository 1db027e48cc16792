// Package storage keeps finished runs on disk, one directory per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/torus"
	"github.com/san-kum/vicsek/internal/vicsek"
)

const (
	metadataFile  = "metadata.json"
	seriesFile    = "phi.csv"
	particlesFile = "particles.csv"
)

// ErrNotFound is returned for a run id without a stored run.
var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Config    vicsek.Config      `json:"config"`
	Domain    torus.Domain       `json:"domain"`
	Steps     int                `json:"steps"`
	AvgPhi    float64            `json:"avg_phi"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Series is the per-step order parameter of a run. Phi[i] and AvgPhi[i]
// belong to iteration i+1.
type Series struct {
	Phi    []float64 `json:"phi"`
	AvgPhi []float64 `json:"avg_phi"`
}

// Save writes a run and returns its id. The id is derived from meta.Name
// and the timestamp; a numeric suffix keeps ids unique within a second.
func (s *Store) Save(meta RunMetadata, series Series, particles []vicsek.Particle) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.Name == "" {
		meta.Name = "vicsek"
	}

	runID, runDir, err := s.newRunDir(meta.Name, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID

	if err := writeRun(runDir, meta, series, particles); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, series Series, particles []vicsek.Particle) error {
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(runDir, seriesFile), func(w *csv.Writer) error {
		return writeSeries(w, series)
	}); err != nil {
		return err
	}
	return writeCSV(filepath.Join(runDir, particlesFile), func(w *csv.Writer) error {
		return writeParticles(w, particles)
	})
}

func (s *Store) newRunDir(name string, ts time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", name, ts.Unix())
	for n := 1; ; n++ {
		id := base
		if n > 1 {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
	}
}

func writeJSON(path string, v any) error {
	return writeFile(path, func(f *os.File) error {
		return WriteJSON(f, v)
	})
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	return writeFile(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := fill(w); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}

// writeFile creates path and runs write on it. The close error is
// reported when write succeeds.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSeries(w *csv.Writer, series Series) error {
	if err := w.Write([]string{"iteration", "phi", "avg_phi"}); err != nil {
		return err
	}
	for i, phi := range series.Phi {
		avg := 0.0
		if i < len(series.AvgPhi) {
			avg = series.AvgPhi[i]
		}
		row := []string{strconv.Itoa(i + 1), formatFloat(phi), formatFloat(avg)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeParticles(w *csv.Writer, particles []vicsek.Particle) error {
	if err := w.Write([]string{"index", "x", "y", "theta"}); err != nil {
		return err
	}
	for i, p := range particles {
		row := []string{strconv.Itoa(i), formatFloat(p.Pos.X), formatFloat(p.Pos.Y), formatFloat(p.Theta)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortStableFunc(runs, func(a, b RunMetadata) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(s.path(runID, metadataFile))
	if err != nil {
		return nil, notFound(runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads the per-step order parameter of a run.
func (s *Store) LoadSeries(runID string) (Series, error) {
	records, err := s.readCSV(runID, seriesFile)
	if err != nil {
		return Series{}, err
	}

	series := Series{
		Phi:    make([]float64, 0, len(records)),
		AvgPhi: make([]float64, 0, len(records)),
	}
	for _, record := range records {
		if len(record) < 3 {
			continue
		}
		phi, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		avg, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			continue
		}
		series.Phi = append(series.Phi, phi)
		series.AvgPhi = append(series.AvgPhi, avg)
	}
	return series, nil
}

// LoadParticles reads the final particle state of a run.
func (s *Store) LoadParticles(runID string) ([]vicsek.Particle, error) {
	records, err := s.readCSV(runID, particlesFile)
	if err != nil {
		return nil, err
	}

	particles := make([]vicsek.Particle, 0, len(records))
	for _, record := range records {
		if len(record) < 4 {
			continue
		}
		var vals [3]float64
		ok := true
		for j := range vals {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}
		particles = append(particles, vicsek.Particle{
			Pos:   r2.Vec{X: vals[0], Y: vals[1]},
			Theta: vals[2],
		})
	}
	return particles, nil
}

// readCSV returns the records of a run file without its header.
func (s *Store) readCSV(runID, name string) ([][]string, error) {
	file, err := os.Open(s.path(runID, name))
	if err != nil {
		return nil, notFound(runID, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s/%s: %w", runID, name, err)
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

// CopySeries streams the raw phi.csv of a run to w.
func (s *Store) CopySeries(w io.Writer, runID string) error {
	f, err := os.Open(s.path(runID, seriesFile))
	if err != nil {
		return notFound(runID, err)
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Delete removes a stored run.
func (s *Store) Delete(runID string) error {
	dir := filepath.Join(s.baseDir, filepath.Base(runID))
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return notFound(runID, err)
	}
	return os.RemoveAll(dir)
}

func (s *Store) path(runID, name string) string {
	return filepath.Join(s.baseDir, filepath.Base(runID), name)
}

func notFound(runID string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return err
}
