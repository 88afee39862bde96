package sweep

import (
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/clusview/metricmap"
	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Failure records one task, or one metric of a task, that did not produce a
// score. Metric is empty when clustering itself failed.
type Failure struct {
	Run             int
	Hyperparameters []int
	Metric          string
	Err             error
}

func (f Failure) String() string {
	if f.Metric == "" {
		return fmt.Sprintf("run %d %v: %v", f.Run, f.Hyperparameters, f.Err)
	}
	return fmt.Sprintf("run %d %v %s: %v", f.Run, f.Hyperparameters, f.Metric, f.Err)
}

// cell holds the scores of one tuple for one metric, indexed by run.
type cell struct {
	point  []int
	scores map[int]float64
}

// Results aggregates task outcomes. Scores are kept per run and averaged
// lazily, so the result does not depend on the order tasks completed in.
type Results struct {
	Hyperparameters []string
	Metrics         []string
	Runs            int
	// Tasks is the number of tasks that reached the collector.
	Tasks    int
	Failures []Failure
	Duration time.Duration

	cells map[string]map[string]*cell // metric -> tuple -> scores
}

func newResults(hyperparameters, metricNames []string, runs int) *Results {
	cells := make(map[string]map[string]*cell, len(metricNames))
	for _, m := range metricNames {
		cells[m] = make(map[string]*cell)
	}
	return &Results{
		Hyperparameters: slices.Clone(hyperparameters),
		Metrics:         slices.Clone(metricNames),
		Runs:            runs,
		cells:           cells,
	}
}

// add is called by the collector goroutine only.
func (r *Results) add(o outcome) {
	r.Tasks++
	r.Failures = append(r.Failures, o.failures...)
	key := fmt.Sprint(o.values)
	for name, score := range o.scores {
		byTuple, ok := r.cells[name]
		if !ok {
			continue
		}
		c, ok := byTuple[key]
		if !ok {
			c = &cell{point: slices.Clone(o.values), scores: make(map[int]float64, r.Runs)}
			byTuple[key] = c
		}
		c.scores[o.run] = score
	}
}

// SortFailures orders failures by run, then tuple, then metric.
func (r *Results) SortFailures() {
	slices.SortStableFunc(r.Failures, func(a, b Failure) int {
		if a.Run != b.Run {
			return a.Run - b.Run
		}
		if c := slices.Compare(a.Hyperparameters, b.Hyperparameters); c != 0 {
			return c
		}
		switch {
		case a.Metric < b.Metric:
			return -1
		case a.Metric > b.Metric:
			return 1
		}
		return 0
	})
}

// Sampling returns the mean score over runs of every tuple that produced at
// least one score for metric, sorted by tuple.
func (r *Results) Sampling(metric string) (*metricmap.Sampling, error) {
	byTuple, ok := r.cells[metric]
	if !ok {
		return nil, errors.NewValidationError("metric", fmt.Sprintf("not part of this sweep, expected one of %v", r.Metrics), metric)
	}
	s := metricmap.NewSampling(metric, r.Hyperparameters...)
	for _, c := range byTuple {
		runs := make([]int, 0, len(c.scores))
		for run := range c.scores {
			runs = append(runs, run)
		}
		slices.Sort(runs)
		values := make([]float64, len(runs))
		for i, run := range runs {
			values[i] = c.scores[run]
		}
		if err := s.Append(c.point, stat.Mean(values, nil)); err != nil {
			return nil, err
		}
	}
	s.Sort()
	return s, nil
}

// Samplings returns Sampling for every metric, in Metrics order.
func (r *Results) Samplings() ([]*metricmap.Sampling, error) {
	out := make([]*metricmap.Sampling, len(r.Metrics))
	for i, m := range r.Metrics {
		s, err := r.Sampling(m)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
