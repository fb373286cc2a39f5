// Package storage persists generated toy samples: one directory per run
// holding metadata.json and events.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/san-kum/dalitz/internal/experiment"
	"github.com/san-kum/dalitz/internal/generator"
	"github.com/spf13/afero"
)

const (
	metadataFile = "metadata.json"
	eventsFile   = "events.csv"
)

var eventsHeader = []string{"m13Sq", "m23Sq", "mPrime", "thPrime", "ASq", "eff"}

type Store struct {
	fs      afero.Fs
	baseDir string
}

func New(fs afero.Fs, baseDir string) *Store {
	return &Store{fs: fs, baseDir: baseDir}
}

func (s *Store) Init() error {
	return errors.Wrapf(s.fs.MkdirAll(s.baseDir, 0755), "creating store %s", s.baseDir)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Model        string             `json:"model"`
	Parent       string             `json:"parent"`
	Daughters    []string           `json:"daughters"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Events       int                `json:"events"`
	Statuses     map[string]int     `json:"statuses"`
	Restarts     int                `json:"restarts"`
	Trials       int                `json:"trials"`
	Accepted     int                `json:"accepted"`
	ASqMax       float64            `json:"asq_max"`
	DPRate       float64            `json:"dp_rate"`
	MeanEff      float64            `json:"mean_eff"`
	FitFractions map[string]float64 `json:"fit_fractions"`
	Metrics      map[string]float64 `json:"metrics"`
}

// NewMetadata summarises a finished experiment.
func NewMetadata(out *experiment.Outcome) RunMetadata {
	cfg, res := out.Config, out.Result
	meta := RunMetadata{
		Model:        cfg.Model,
		Parent:       cfg.Parent,
		Daughters:    append([]string(nil), cfg.Daughters...),
		Seed:         cfg.Generation.Seed,
		Events:       len(res.Events),
		Statuses:     make(map[string]int, len(res.Statuses)),
		Restarts:     res.Restarts,
		Trials:       res.Stats.Trials,
		Accepted:     res.Stats.Accepted,
		ASqMax:       res.ASqMax,
		DPRate:       out.Extra.DPRate,
		MeanEff:      out.Extra.MeanEff,
		FitFractions: make(map[string]float64, len(out.Names)),
		Metrics:      res.Metrics,
	}
	for status, n := range res.Statuses {
		meta.Statuses[status.String()] = n
	}
	for i, name := range out.Names {
		if i < len(out.Extra.FitFrac) {
			meta.FitFractions[name] = out.Extra.FitFrac[i][i]
		}
	}
	return meta
}

// Save writes a run and returns its identifier.
func (s *Store) Save(meta RunMetadata, events []generator.Event) (string, error) {
	runID := fmt.Sprintf("%s_%s", meta.Model, uuid.NewString())
	runDir := filepath.Join(s.baseDir, runID)

	if err := s.fs.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating run directory %s", runDir)
	}

	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Events = len(events)

	if err := s.writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := s.writeEvents(filepath.Join(runDir, eventsFile), events); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) writeMetadata(path string, meta RunMetadata) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(meta), "writing %s", path)
}

func (s *Store) writeEvents(path string, events []generator.Event) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(eventsHeader); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, ev := range events {
		row := []string{
			format(ev.M13Sq), format(ev.M23Sq),
			format(ev.MPrime), format(ev.ThetaPrime),
			format(ev.ASq), format(ev.Eff),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "writing %s", path)
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := afero.ReadDir(s.fs, s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrapf(err, "listing %s", s.baseDir)
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return &meta, nil
}

func (s *Store) LoadEvents(runID string) ([]generator.Event, error) {
	path := filepath.Join(s.baseDir, runID, eventsFile)
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening events of run %s", runID)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(eventsHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(records) < 2 {
		return []generator.Event{}, nil
	}

	events := make([]generator.Event, 0, len(records)-1)
	for i, record := range records[1:] {
		var vals [6]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: row %d column %s", path, i+1, eventsHeader[j])
			}
			vals[j] = v
		}
		events = append(events, generator.Event{
			M13Sq: vals[0], M23Sq: vals[1],
			MPrime: vals[2], ThetaPrime: vals[3],
			ASq: vals[4], Eff: vals[5],
		})
	}
	return events, nil
}
