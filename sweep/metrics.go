package sweep

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Task status label values.
const (
	statusOK      = "ok"
	statusPartial = "partial" // clustered, but at least one metric failed
	statusFailed  = "failed"
	statusPanic   = "panic"
)

type telemetry struct {
	tasks    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newTelemetry registers the sweep collectors on reg. Each Runner owns its
// collectors, so reg must not be shared between runners.
func newTelemetry(reg *prometheus.Registry) *telemetry {
	factory := promauto.With(reg)
	return &telemetry{
		// TasksTotal counts finished clustering tasks by status
		tasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clusview_sweep_tasks_total",
				Help: "The total number of finished sweep tasks",
			},
			[]string{"status"},
		),
		// TaskDuration tracks how long one clustering task takes
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clusview_sweep_task_duration_seconds",
				Help:    "The duration of sweep tasks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms から約33秒
			},
			[]string{"status"},
		),
	}
}

func (t *telemetry) observe(status string, elapsed time.Duration) {
	t.tasks.WithLabelValues(status).Inc()
	t.duration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// WriteMetricsFile writes every metric of g to path in the Prometheus text
// format, for collection by the node exporter textfile collector.
func WriteMetricsFile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrapf(err, "writing metrics to %s", path)
	}
	return nil
}
