// Package log defines standard attribute keys for sweep and metric map operations.
//
// Using these keys keeps log records from the sampler, the sweep runner and
// the metric map comparable, so a run can be filtered by configuration,
// metric or worker after the fact.
//
// Keys follow a hierarchical naming convention ("sweep.tasks",
// "map.shape") so that JSON logs can be grouped by prefix.

package log

// Operation context
const (
	// ComponentKey identifies the package emitting the record.
	// Examples: "sweep", "metricmap", "cluster", "manifold"
	ComponentKey = "component"

	// OperationKey names the operation being performed.
	// Standard values are the Operation* constants below.
	OperationKey = "operation"

	// MetricKey names the clustering metric a record refers to.
	// Examples: "silhouette", "davies_bouldin"
	MetricKey = "metric"

	// RunKey is the zero-based repetition index of a sweep run.
	RunKey = "sweep.run"
)

// Sweep shape and progress
const (
	// ConfigurationKey holds the hyperparameter tuple of one sweep task.
	ConfigurationKey = "sweep.configuration"

	// HyperparametersKey lists the hyperparameter names of a sweep or map.
	HyperparametersKey = "sweep.hyperparameters"

	// TasksKey is the number of tasks submitted to the worker pool.
	TasksKey = "sweep.tasks"

	// FailedKey is the number of tasks that returned an error.
	FailedKey = "sweep.failed"

	// WorkerIDKey identifies the worker goroutine that ran a task.
	WorkerIDKey = "sweep.worker_id"

	// WorkersKey is the size of the worker pool.
	WorkersKey = "sweep.workers"

	// ClustersKey is the number of clusters found, noise excluded.
	ClustersKey = "cluster.count"
)

// Data shape
const (
	// SamplesKey is the number of rows in a matrix or sampling.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns in a matrix.
	FeaturesKey = "data.features"

	// ShapeKey is the shape of a metric map grid.
	ShapeKey = "map.shape"

	// CellsKey is the number of grid cells of a metric map.
	CellsKey = "map.cells"

	// OutsideHullKey counts cells left NaN because they lie outside the
	// convex hull of the sampling.
	OutsideHullKey = "map.outside_hull"

	// ComponentsKey is the target dimensionality of a reduction.
	ComponentsKey = "reduce.components"
)

// Performance
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// DurationSecondsKey records the execution time in seconds for whole runs.
	DurationSecondsKey = "perf.duration_seconds"
)

// Error context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "ValidationError", "ValueError", "PanicError"
	ErrorTypeKey = "error.type"

	// SuggestionKey carries a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ConfigPathKey is the path of the benchmark configuration file.
	ConfigPathKey = "config.path"

	// OutputDirKey is the directory result files are written to.
	OutputDirKey = "config.output_dir"
)

const (
	OperationSample      = "sample"
	OperationEmbed       = "embed"
	OperationReduce      = "reduce"
	OperationCluster     = "cluster"
	OperationScore       = "score"
	OperationInterpolate = "interpolate"
	OperationSmooth      = "smooth"
	OperationPlot        = "plot"
	OperationWrite       = "write"
)
