// Package metrics exposes Prometheus instrumentation for the build loop.
// Mostly useful in watch mode where the preview server serves /metrics.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// OutcomeLabel classifies a finished run.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomePartial OutcomeLabel = "partial"
	OutcomeFatal   OutcomeLabel = "fatal"
)

// PageResultLabel classifies one planned work item's result.
type PageResultLabel string

const (
	PageRendered PageResultLabel = "rendered"
	PageSkipped  PageResultLabel = "skipped"
	PageDeleted  PageResultLabel = "deleted"
	PageFailed   PageResultLabel = "failed"
)

// Recorder registers and updates build metrics. A nil *Recorder is a valid
// no-op, so callers never need to guard instrumentation sites.
type Recorder struct {
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	pageResults   *prom.CounterVec
	indexedFiles  prom.Gauge
}

// NewRecorder constructs and registers build metrics on reg.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "build_duration_seconds",
			Help:      "Total build run duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "page_results_total",
			Help:      "Per-page work item results",
		}, []string{"result"}),
		indexedFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitegen",
			Name:      "indexed_files",
			Help:      "Number of files tracked by the index after the last run",
		}),
	}
	reg.MustRegister(r.buildDuration, r.buildOutcome, r.pageResults, r.indexedFiles)
	return r
}

func (r *Recorder) ObserveBuildDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.buildDuration.Observe(d.Seconds())
}

func (r *Recorder) IncBuildOutcome(outcome OutcomeLabel) {
	if r == nil {
		return
	}
	r.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (r *Recorder) AddPageResults(result PageResultLabel, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.pageResults.WithLabelValues(string(result)).Add(float64(n))
}

func (r *Recorder) SetIndexedFiles(n int) {
	if r == nil {
		return
	}
	r.indexedFiles.Set(float64(n))
}
