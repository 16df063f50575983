// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flr-tracker/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
// Methods are safe to call on a nil receiver.
type Metrics struct {
	// Ingestion metrics
	ObservationsLoaded *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	RunsRecorded      *prometheus.CounterVec

	// Analysis metrics
	LPPLGridPoints   *prometheus.CounterVec
	CompositeScore   prometheus.Gauge
	CurrentAR1       prometheus.Gauge
	KendallTau       prometheus.Gauge
	LPPLConfidence   prometheus.Gauge
	NetLiquidity     prometheus.Gauge
	TimelineRecords  prometheus.Gauge
	RegimeStatusInfo *prometheus.GaugeVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "flr"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		ObservationsLoaded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_loaded_total",
			Help:      "Total number of observations stored by series",
		}, []string{"series"}),

		PipelineRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		RunsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_recorded_total",
			Help:      "Run records persisted, by outcome (stored, duplicate)",
		}, []string{"outcome"}),

		LPPLGridPoints: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lppl",
			Name:      "grid_points_total",
			Help:      "LPPL grid points evaluated by outcome",
		}, []string{"outcome"}),
		CompositeScore: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "regime",
			Name:      "composite_score",
			Help:      "Composite regime fragility score of the last run (0-100)",
		}),
		CurrentAR1: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "csd",
			Name:      "current_ar1",
			Help:      "Latest lag-1 autocorrelation of detrended residuals",
		}),
		KendallTau: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "csd",
			Name:      "kendall_tau",
			Help:      "Kendall tau trend of recent AR(1) values",
		}),
		LPPLConfidence: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lppl",
			Name:      "confidence",
			Help:      "Bubble signature confidence of the last run (0-100)",
		}),
		NetLiquidity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "net_liquidity_billions",
			Help:      "Latest net liquidity in billions USD",
		}),
		TimelineRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "timeline_records",
			Help:      "Number of rows in the unified timeline of the last run",
		}),
		RegimeStatusInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "regime",
			Name:      "status",
			Help:      "1 for the current regime status, 0 otherwise",
		}, []string{"status"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulPipeline: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler exposing g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordObservations adds n stored observations of series.
func (m *Metrics) RecordObservations(series string, n int) {
	if m == nil {
		return
	}
	m.ObservationsLoaded.WithLabelValues(series).Add(float64(n))
}

// RecordPipelineRun records a pipeline run outcome and its duration.
func (m *Metrics) RecordPipelineRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
	m.PipelineDuration.Observe(d.Seconds())
	if status == "success" {
		m.LastSuccessfulPipeline.SetToCurrentTime()
	}
}

// RecordRunStored records a persisted (or already present) run record.
func (m *Metrics) RecordRunStored(duplicate bool) {
	if m == nil {
		return
	}
	outcome := "stored"
	if duplicate {
		outcome = "duplicate"
	}
	m.RunsRecorded.WithLabelValues(outcome).Inc()
}

// RecordAnalysis sets the analysis gauges from one run's reports.
func (m *Metrics) RecordAnalysis(csd domain.CSDReport, lppl domain.LPPLReport, regime domain.RegimeReport) {
	if m == nil {
		return
	}
	m.CompositeScore.Set(regime.Composite)
	m.CurrentAR1.Set(csd.CurrentAR1)
	m.KendallTau.Set(csd.KendallTau)
	m.LPPLConfidence.Set(float64(lppl.Confidence))

	for _, s := range []string{
		domain.RegimeCritical, domain.RegimeElevated, domain.RegimeCaution,
		domain.RegimeNormal, domain.RegimeFavorable,
	} {
		v := 0.0
		if s == regime.Status {
			v = 1
		}
		m.RegimeStatusInfo.WithLabelValues(s).Set(v)
	}

	d := lppl.Diagnostics
	for outcome, n := range map[string]int{
		"admissible":  d.AdmissiblePoint,
		"domain":      d.RejectedDomain,
		"singular":    d.RejectedSolve,
		"sign":        d.RejectedSign,
		"oscillation": d.RejectedOscill,
		"fit":         d.RejectedFit,
	} {
		m.LPPLGridPoints.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordTimeline sets the timeline gauges.
func (m *Metrics) RecordTimeline(records int, netLiquidity float64) {
	if m == nil {
		return
	}
	m.TimelineRecords.Set(float64(records))
	m.NetLiquidity.Set(netLiquidity)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(d.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
