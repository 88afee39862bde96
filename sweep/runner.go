package sweep

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/cluster"
	"github.com/YuminosukeSato/clusview/manifold"
	"github.com/YuminosukeSato/clusview/metrics"
	"github.com/YuminosukeSato/clusview/pkg/errors"
	"github.com/YuminosukeSato/clusview/pkg/log"
	"github.com/YuminosukeSato/clusview/preprocessing"
)

// Options configures a Runner.
type Options struct {
	// Workers is the size of the worker pool. Defaults to runtime.NumCPU().
	Workers int

	// Runs repeats the whole sweep; stochastic clusterers are reseeded per run.
	Runs int

	// Components is the dimensionality embeddings are reduced to before
	// clustering. Zero or a nil Reducer clusters the raw embeddings.
	Components int
	Reducer    manifold.Reducer

	// Standardize scales every embedding column to zero mean and unit
	// variance before reduction.
	Standardize bool

	Seed    int64
	Metrics []metrics.Metric
	Logger  log.Logger

	// Progress receives a progress bar when non-nil.
	Progress io.Writer

	// Registry collects the task metrics. A private registry is created when nil.
	Registry *prometheus.Registry
}

// Option mutates Options.
type Option func(*Options)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithRuns sets how many times the sweep is repeated.
func WithRuns(n int) Option {
	return func(o *Options) { o.Runs = n }
}

// WithReducer reduces the embeddings to components dimensions before clustering.
func WithReducer(r manifold.Reducer, components int) Option {
	return func(o *Options) {
		o.Reducer = r
		o.Components = components
	}
}

// WithStandardize toggles column standardisation before reduction.
func WithStandardize(on bool) Option {
	return func(o *Options) { o.Standardize = on }
}

// WithSeed sets the base seed; run i reseeds clusterers and reducers with seed+i.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithMetrics sets the metrics scored for every partition.
func WithMetrics(ms ...metrics.Metric) Option {
	return func(o *Options) { o.Metrics = ms }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(o *Options) { o.Progress = w }
}

// WithRegistry registers the task metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *Options) { o.Registry = reg }
}

// Runner clusters every configuration of an iterator and scores the result.
type Runner[C cluster.Clusterer] struct {
	it        *ConfigurationIterator[C]
	opts      Options
	logger    log.Logger
	telemetry *telemetry
}

// NewRunner validates the options and registers the task metrics.
func NewRunner[C cluster.Clusterer](it *ConfigurationIterator[C], opts ...Option) (*Runner[C], error) {
	if it == nil {
		return nil, errors.NewValidationError("iterator", "must not be nil", nil)
	}
	o := Options{Workers: runtime.NumCPU(), Runs: 1}
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case o.Workers < 1:
		return nil, errors.NewValidationError("workers", "must be at least 1", o.Workers)
	case o.Runs < 1:
		return nil, errors.NewValidationError("runs", "must be at least 1", o.Runs)
	case o.Components < 0:
		return nil, errors.NewValidationError("components", "must not be negative", o.Components)
	case len(o.Metrics) == 0:
		return nil, errors.NewValidationError("metrics", "at least one metric is required", 0)
	}
	names := make(map[string]bool, len(o.Metrics))
	for _, m := range o.Metrics {
		if names[m.Name()] {
			return nil, errors.NewValidationError("metrics", "metric listed more than once", m.Name())
		}
		names[m.Name()] = true
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}
	logger := o.Logger
	if logger == nil {
		logger = log.GetLogger()
	}

	return &Runner[C]{
		it:        it,
		opts:      o,
		logger:    logger.With(log.ComponentKey, "sweep"),
		telemetry: newTelemetry(o.Registry),
	}, nil
}

// Registry returns the registry holding the task metrics.
func (r *Runner[C]) Registry() *prometheus.Registry {
	return r.opts.Registry
}

type task[C cluster.Clusterer] struct {
	run    int
	values []int
	cfg    C
	X      mat.Matrix
}

type outcome struct {
	run      int
	values   []int
	scores   map[string]float64
	failures []Failure
	elapsed  time.Duration
}

// Run executes the sweep. Task failures are recorded in the returned Results
// and never abort the batch; only setup errors (sampling, reduction) and
// context cancellation are returned as errors. On cancellation the partial
// results are returned together with ctx.Err().
func (r *Runner[C]) Run(ctx context.Context, embeddings mat.Matrix, groundTruth []int) (*Results, error) {
	if embeddings == nil {
		return nil, errors.ErrEmptyData
	}
	n, d := embeddings.Dims()
	if n == 0 || d == 0 {
		return nil, errors.ErrEmptyData
	}
	if groundTruth != nil && len(groundTruth) != n {
		return nil, errors.NewDimensionError("sweep", n, len(groundTruth), 0)
	}

	count, err := r.it.Count()
	if err != nil {
		return nil, err
	}
	total := count * r.opts.Runs

	metricNames := make([]string, len(r.opts.Metrics))
	for i, m := range r.opts.Metrics {
		metricNames[i] = m.Name()
	}
	res := newResults(r.it.Parameters(), metricNames, r.opts.Runs)

	r.logger.Info("sweep started",
		log.TasksKey, total,
		log.WorkersKey, r.opts.Workers,
		log.SamplesKey, n,
		log.FeaturesKey, d,
	)
	start := time.Now()

	var bar *pterm.ProgressbarPrinter
	if r.opts.Progress != nil && total > 0 {
		bar, err = pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("sweep").
			WithWriter(r.opts.Progress).
			Start()
		if err != nil {
			return nil, errors.Wrap(err, "starting progress bar")
		}
	}

	tasks := make(chan task[C])
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for w := range r.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				outcomes <- r.execute(ctx, w, t, groundTruth)
			}
		}()
	}

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for o := range outcomes {
			res.add(o)
			if bar != nil {
				bar.Increment()
			}
		}
	}()

	submitErr := r.submit(ctx, embeddings, tasks)
	close(tasks)
	wg.Wait()
	close(outcomes)
	<-collected

	if bar != nil {
		_, _ = bar.Stop()
	}
	res.Duration = time.Since(start)

	r.logger.Info("sweep finished",
		log.TasksKey, res.Tasks,
		log.FailedKey, len(res.Failures),
		log.DurationSecondsKey, res.Duration.Seconds(),
	)
	if submitErr != nil {
		return res, submitErr
	}
	return res, nil
}

// submit feeds every run's configurations to the pool. It stops as soon as
// ctx is cancelled.
func (r *Runner[C]) submit(ctx context.Context, embeddings mat.Matrix, tasks chan<- task[C]) error {
	for run := range r.opts.Runs {
		X, err := r.reduce(embeddings, run)
		if err != nil {
			return err
		}
		seq, buildErr, err := r.it.Configurations()
		if err != nil {
			return err
		}
		for values, cfg := range seq {
			if reseeder, ok := any(cfg).(cluster.Reseeder); ok {
				if c, ok := reseeder.Reseed(r.opts.Seed + int64(run)).(C); ok {
					cfg = c
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case tasks <- task[C]{run: run, values: values, cfg: cfg, X: X}:
			}
		}
		if err := buildErr(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner[C]) reduce(embeddings mat.Matrix, run int) (mat.Matrix, error) {
	if r.opts.Standardize {
		scaled, err := preprocessing.NewStandardScaler(true, true).FitTransform(embeddings)
		if err != nil {
			return nil, errors.Wrap(err, "standardizing embeddings")
		}
		embeddings = scaled
	}
	if r.opts.Reducer == nil || r.opts.Components == 0 {
		return embeddings, nil
	}
	_, d := embeddings.Dims()
	if d <= r.opts.Components {
		return embeddings, nil
	}
	reducer := r.opts.Reducer
	if reseeder, ok := reducer.(manifold.Reseeder); ok {
		reducer = reseeder.Reseed(r.opts.Seed + int64(run))
	}
	X, err := reducer.Reduce(embeddings, r.opts.Components)
	if err != nil {
		return nil, errors.Wrap(err, "reducing embeddings")
	}
	return X, nil
}

// execute runs one task. It never returns an error: failures are carried in
// the outcome so the collector can record them.
func (r *Runner[C]) execute(ctx context.Context, worker int, t task[C], groundTruth []int) outcome {
	start := time.Now()
	o := outcome{run: t.run, values: t.values}
	logger := r.logger.With(
		log.WorkerIDKey, worker,
		log.RunKey, t.run,
		log.HyperparametersKey, t.values,
	)

	labels, err := errors.SafeValue(fmt.Sprintf("clustering %v", t.values), func() ([]int, error) {
		return t.cfg.FitPredict(ctx, t.X)
	})
	if err != nil {
		o.elapsed = time.Since(start)
		o.failures = []Failure{{Run: t.run, Hyperparameters: t.values, Err: err}}
		r.telemetry.observe(statusFor(err), o.elapsed)
		logger.Error("clustering failed", log.ErrAttrKey, err)
		return o
	}

	mctx := metrics.Context{Labels: labels, Embeddings: t.X, GroundTruth: groundTruth}
	o.scores = make(map[string]float64, len(r.opts.Metrics))
	for _, m := range r.opts.Metrics {
		score, err := errors.SafeValue(m.Name(), func() (float64, error) {
			return m.Score(mctx)
		})
		if err != nil {
			o.failures = append(o.failures, Failure{
				Run: t.run, Hyperparameters: t.values, Metric: m.Name(), Err: err,
			})
			logger.Warn("metric failed", log.MetricKey, m.Name(), log.ErrAttrKey, err)
			continue
		}
		o.scores[m.Name()] = score
	}
	o.elapsed = time.Since(start)

	status := statusOK
	if len(o.failures) > 0 {
		status = statusPartial
	}
	r.telemetry.observe(status, o.elapsed)
	logger.Debug("task done",
		log.ClustersKey, cluster.CountClusters(labels),
		log.DurationMsKey, o.elapsed.Milliseconds(),
	)
	return o
}

func statusFor(err error) string {
	var pe *errors.PanicError
	if errors.As(err, &pe) {
		return statusPanic
	}
	return statusFailed
}
