package jobs

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	swept    *prometheus.CounterVec
}

// NewMetrics registers the job collectors against the provided registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roleboard_job_runs_total",
			Help: "Completed background job runs by task type and outcome.",
		}, []string{"task", "success"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roleboard_job_failures_total",
			Help: "Failed background job runs by task type.",
		}, []string{"task"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roleboard_job_duration_seconds",
			Help:    "Background job run duration by task type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roleboard_assignments_expired_total",
			Help: "Assignments flipped inactive by the expiry sweep.",
		}, []string{"task"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.swept)
	return m
}

// Tracker instruments a single job run.
type Tracker struct {
	metrics *Metrics
	task    string
	start   time.Time
}

// Track starts timing one run of the given task type. Nil-safe.
func (m *Metrics) Track(task string) *Tracker {
	if m == nil {
		return nil
	}
	return &Tracker{metrics: m, task: task, start: time.Now()}
}

// Done records the run outcome and duration.
func (t *Tracker) Done(err error) {
	if t == nil {
		return
	}
	t.metrics.duration.WithLabelValues(t.task).Observe(time.Since(t.start).Seconds())
	t.metrics.runs.WithLabelValues(t.task, strconv.FormatBool(err == nil)).Inc()
	if err != nil {
		t.metrics.failures.WithLabelValues(t.task).Inc()
	}
}

// ObserveSwept records how many assignments one sweep expired.
func (m *Metrics) ObserveSwept(task string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.swept.WithLabelValues(task).Add(float64(count))
}
