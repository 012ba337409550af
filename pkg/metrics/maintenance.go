package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceMetrics records scheduled job runs and the seller balance audit.
type MaintenanceMetrics struct {
	duration     *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	rowsPurged   *prometheus.CounterVec
	balanceDrift prometheus.Gauge
}

// NewMaintenanceMetrics registers the maintenance metrics on reg.
func NewMaintenanceMetrics(reg prometheus.Registerer) *MaintenanceMetrics {
	if reg == nil {
		return &MaintenanceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maintenance_job_duration_seconds",
		Help:    "Duration of maintenance jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_job_runs_total",
		Help: "Maintenance job executions by result.",
	}, []string{"job", "result"})
	rowsPurged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_rows_purged_total",
		Help: "Rows removed by retention jobs.",
	}, []string{"table"})
	balanceDrift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "seller_balance_drift_sellers",
		Help: "Sellers whose stored balance disagrees with the ledger at the last audit.",
	})
	reg.MustRegister(duration, runs, rowsPurged, balanceDrift)
	return &MaintenanceMetrics{
		duration:     duration,
		runs:         runs,
		rowsPurged:   rowsPurged,
		balanceDrift: balanceDrift,
	}
}

// ObserveRun records one job execution.
func (m *MaintenanceMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
	m.runs.WithLabelValues(normalizeLabel(job), result).Inc()
}

func (m *MaintenanceMetrics) AddPurged(table string, rows int64) {
	if m == nil || m.rowsPurged == nil || rows <= 0 {
		return
	}
	m.rowsPurged.WithLabelValues(normalizeLabel(table)).Add(float64(rows))
}

func (m *MaintenanceMetrics) SetBalanceDrift(sellers int) {
	if m == nil || m.balanceDrift == nil {
		return
	}
	m.balanceDrift.Set(float64(sellers))
}
