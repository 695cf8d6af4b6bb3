package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Run outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeTimeout = "timeout"
	OutcomeFailed  = "failed"
)

// Failure reasons.
const (
	ReasonDeadline      = "deadline_exceeded"
	ReasonLockTimeout   = "db_lock_timeout"
	ReasonSerialization = "serialization_failure"
	ReasonDuplicate     = "unique_violation"
	ReasonUnknown       = "unknown"
)

var jobBuckets = []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300}

// JobMetrics are the prometheus series of background jobs. A nil
// *JobMetrics records nothing.
type JobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	items    *prometheus.CounterVec
	lag      prometheus.Histogram
}

func NewJobMetrics(reg prometheus.Registerer, cfg Config) (*JobMetrics, error) {
	labels := prometheus.Labels{
		"service": orDefault(cfg.ServiceName, "invoicedesk"),
		"env":     orDefault(cfg.Environment, "unknown"),
	}
	m := &JobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "invoicedesk_job_runs_total",
			Help:        "Background job runs by outcome.",
			ConstLabels: labels,
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "invoicedesk_job_duration_seconds",
			Help:        "Background job wall time.",
			Buckets:     jobBuckets,
			ConstLabels: labels,
		}, []string{"job"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "invoicedesk_job_failures_total",
			Help:        "Background job failures by reason.",
			ConstLabels: labels,
		}, []string{"job", "reason"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "invoicedesk_job_items_total",
			Help:        "Items produced by background jobs.",
			ConstLabels: labels,
		}, []string{"job", "kind"}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "invoicedesk_job_loop_lag_seconds",
			Help:        "Delay between a scheduled tick and the run starting.",
			Buckets:     jobBuckets,
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{m.runs, m.duration, m.failures, m.items, m.lag} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *JobMetrics) ObserveRun(job, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(job, outcome).Inc()
	m.duration.WithLabelValues(job).Observe(took.Seconds())
}

func (m *JobMetrics) Failure(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(job, ClassifyFailure(err)).Inc()
}

func (m *JobMetrics) AddItems(job, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(job, kind).Add(float64(n))
}

func (m *JobMetrics) ObserveLag(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.lag.Observe(d.Seconds())
}

// ClassifyFailure reduces a job error to a fixed reason label.
func ClassifyFailure(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonDeadline
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ReasonDuplicate
	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case "55P03":
			return ReasonLockTimeout
		case "40001":
			return ReasonSerialization
		case "23505":
			return ReasonDuplicate
		}
	}
	return ReasonUnknown
}
