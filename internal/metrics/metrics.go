// Package metrics records per-run counters and durations and writes them to a
// node-exporter textfile collector file.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects metrics for one process. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry
	path     string

	items         *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	bytes         *prometheus.CounterVec
	durationRatio prometheus.Histogram
	lastRun       prometheus.Gauge
	lastRunOK     prometheus.Gauge
}

// New returns a Recorder that writes to textfilePath on Flush. An empty path
// keeps metrics in memory only.
func New(textfilePath string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		path:     textfilePath,
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tstomkv_items_total",
				Help: "Work items handled, by outcome",
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tstomkv_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage",
				Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 14400},
			},
			[]string{"stage"}, // fetch, transcode, verify, commit
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tstomkv_bytes_total",
				Help: "Bytes moved to and from the remote store",
			},
			[]string{"direction"},
		),
		durationRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tstomkv_duration_ratio",
			Help:    "Output to source duration ratio of verified items",
			Buckets: []float64{0.5, 0.8, 0.9, 0.95, 0.99, 1, 1.01},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tstomkv_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		lastRunOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tstomkv_last_run_success",
			Help: "1 if the last run finished without error or by request, 0 otherwise",
		}),
	}
	r.registry.MustRegister(r.items, r.stageDuration, r.bytes, r.durationRatio, r.lastRun, r.lastRunOK)
	return r
}

// ItemOutcome counts one item by outcome (committed, skipped, failed).
func (r *Recorder) ItemOutcome(outcome string) {
	if r == nil {
		return
	}
	r.items.WithLabelValues(outcome).Inc()
}

// StageDuration observes the time spent in a stage.
func (r *Recorder) StageDuration(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Bytes adds n to the counter for direction (fetched, committed).
func (r *Recorder) Bytes(direction string, n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.bytes.WithLabelValues(direction).Add(float64(n))
}

// DurationRatio observes a verification ratio.
func (r *Recorder) DurationRatio(ratio float64) {
	if r == nil || ratio <= 0 {
		return
	}
	r.durationRatio.Observe(ratio)
}

// RunFinished stamps the end of a run.
func (r *Recorder) RunFinished(at time.Time, ok bool) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
	if ok {
		r.lastRunOK.Set(1)
	} else {
		r.lastRunOK.Set(0)
	}
}

// Flush writes the textfile when a path is configured.
func (r *Recorder) Flush() error {
	if r == nil || r.path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(r.path, r.registry)
}
