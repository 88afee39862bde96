package sweep

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/clusview/metricmap"
	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// WriteTidy writes one "<metric>_map.csv" sampling table per metric into dir
// and returns the written paths.
func (r *Results) WriteTidy(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	paths := make([]string, 0, len(r.Metrics))
	for _, name := range r.Metrics {
		s, err := r.Sampling(name)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, name+"_map.csv")
		if err := metricmap.WriteSamplingCSV(path, s); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Maps interpolates the sampling of every metric. Metrics without a single
// score yield an empty map, and so do metrics whose scored tuples are too
// few to span the lattice; the latter also raise a warning.
func (r *Results) Maps() ([]*metricmap.MetricMap, error) {
	maps := make([]*metricmap.MetricMap, len(r.Metrics))
	for i, name := range r.Metrics {
		s, err := r.Sampling(name)
		if err != nil {
			return nil, err
		}
		m, err := metricmap.New(s)
		if errors.Is(err, errors.ErrDegenerateSampling) {
			errors.Warn(errors.Wrapf(err, "%s map left empty", name))
			m = metricmap.Empty()
		} else if err != nil {
			return nil, errors.Wrapf(err, "building %s map", name)
		}
		maps[i] = m
	}
	return maps, nil
}

// WriteGrid writes one "<metric>_grid.csv" matrix per metric for sweeps over
// exactly two hyperparameters. Rows follow the first hyperparameter.
func (r *Results) WriteGrid(dir string) ([]string, error) {
	if len(r.Hyperparameters) != 2 {
		return nil, errors.NewDimensionError("Results.WriteGrid", 2, len(r.Hyperparameters), 1)
	}
	maps, err := r.Maps()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	var paths []string
	for i, m := range maps {
		if m.IsEmpty() {
			continue
		}
		path := filepath.Join(dir, r.Metrics[i]+"_grid.csv")
		if err := m.SaveGridCSV(path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Manifest summarises a sweep for later inspection.
type Manifest struct {
	CreatedAt       time.Time `yaml:"created_at"`
	Hyperparameters []string  `yaml:"hyperparameters"`
	Metrics         []string  `yaml:"metrics"`
	Runs            int       `yaml:"runs"`
	Tasks           int       `yaml:"tasks"`
	Failed          int       `yaml:"failed"`
	DurationSeconds float64   `yaml:"duration_seconds"`
	Files           []string  `yaml:"files,omitempty"`
	Failures        []string  `yaml:"failures,omitempty"`
	Config          *Config   `yaml:"config,omitempty"`
}

// Manifest builds the manifest of r. cfg may be nil.
func (r *Results) Manifest(cfg *Config, files ...string) Manifest {
	r.SortFailures()
	failures := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		failures[i] = f.String()
	}
	return Manifest{
		CreatedAt:       time.Now().UTC(),
		Hyperparameters: r.Hyperparameters,
		Metrics:         r.Metrics,
		Runs:            r.Runs,
		Tasks:           r.Tasks,
		Failed:          len(r.Failures),
		DurationSeconds: r.Duration.Seconds(),
		Files:           files,
		Failures:        failures,
		Config:          cfg,
	}
}

// WriteManifest writes m to path as YAML.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return &m, nil
}
