package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepbench_runs_total",
			Help: "Total number of runnable runs by outcome",
		},
		[]string{"runnable", "outcome"},
	)

	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepbench_executions_total",
			Help: "Total number of workflow executions by terminal status",
		},
		[]string{"runnable", "status"},
	)

	executionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stepbench_execution_duration_seconds",
			Help:    "Workflow execution time reported by the workflow service",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300, 900},
		},
		[]string{"runnable"},
	)

	streamLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepbench_stream_lookups_total",
			Help: "Log stream lookups performed while waiting for a new stream",
		},
		[]string{"runnable"},
	)

	logPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepbench_log_pages_total",
			Help: "Log event pages fetched",
		},
		[]string{"runnable"},
	)

	logEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepbench_log_events_total",
			Help: "Log events fetched",
		},
		[]string{"runnable"},
	)

	functionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stepbench_function_latency_seconds",
			Help:    "Per-task latency derived from the execution trace",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"runnable", "function", "phase"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func RecordRun(runnable, outcome string) {
	runsTotal.WithLabelValues(runnable, outcome).Inc()
}

func RecordExecution(runnable, status string, duration time.Duration) {
	executionsTotal.WithLabelValues(runnable, status).Inc()
	if duration > 0 {
		executionDuration.WithLabelValues(runnable).Observe(duration.Seconds())
	}
}

func RecordStreamLookup(runnable string) {
	streamLookups.WithLabelValues(runnable).Inc()
}

func RecordLogPage(runnable string, events int) {
	logPages.WithLabelValues(runnable).Inc()
	logEvents.WithLabelValues(runnable).Add(float64(events))
}

// RecordSample observes one task's startup and execution latency, given in ms.
func RecordSample(runnable, function string, startUpMs, executionMs int64) {
	functionLatency.WithLabelValues(runnable, function, "startup").Observe(float64(startUpMs) / 1000)
	functionLatency.WithLabelValues(runnable, function, "execution").Observe(float64(executionMs) / 1000)
}
