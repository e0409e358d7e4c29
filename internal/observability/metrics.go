// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cycle metrics
	CyclesTotal          *prometheus.CounterVec
	CycleDuration        prometheus.Histogram
	TradesProcessed      prometheus.Counter
	AnalyticsRowsWritten *prometheus.CounterVec
	CheckpointReadErrors prometheus.Counter
	ExportErrors         prometheus.Counter

	// Checkpoint metrics
	Checkpoint          prometheus.Gauge
	LastSuccessfulCycle prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	BotHealth *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance registered with the default registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "trading_analytics"
	}
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total number of analytics cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of analytics cycles",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
		}),
		TradesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "new_trades_total",
			Help:      "Total number of new closed trades picked up by completed cycles",
		}),
		AnalyticsRowsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rows_written_total",
			Help:      "Total number of analytics rows written by table",
		}, []string{"table"}),
		CheckpointReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "checkpoint_read_errors_total",
			Help:      "Total number of failed checkpoint reads",
		}),
		ExportErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "errors_total",
			Help:      "Total number of failed analytics exports",
		}),

		Checkpoint: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "checkpoint_trade_id",
			Help:      "Last committed trade id checkpoint",
		}),
		LastSuccessfulCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last completed cycle",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		BotHealth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "bot_metric",
			Help:      "Current bot health gauge values",
		}, []string{"metric"}),
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records a finished cycle. Completed cycles also refresh the last-success timestamp.
func (m *Metrics) RecordCycle(outcome string, durationSeconds float64) {
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(durationSeconds)
	if outcome == "completed" {
		m.LastSuccessfulCycle.Set(float64(time.Now().Unix()))
	}
}

// RecordTradesProcessed adds the new trades of a completed cycle.
func (m *Metrics) RecordTradesProcessed(n int64) {
	m.TradesProcessed.Add(float64(n))
}

// RecordRows adds the rows written per analytics table.
func (m *Metrics) RecordRows(set *domain.AnalyticsSet) {
	counts := map[string]int{
		storage.TablePerformanceRankings: len(set.PerformanceRankings),
		storage.TableRiskMetrics:         len(set.RiskMetrics),
		storage.TableStrategyPerformance: len(set.StrategyPerformance),
		storage.TableTimingAnalysis:      len(set.TimingAnalysis),
		storage.TablePairAnalytics:       len(set.PairAnalytics),
		storage.TableStopLossAnalytics:   len(set.StopLossAnalytics),
		storage.TableDurationPatterns:    len(set.DurationPatterns),
		storage.TableBotHealthMetrics:    len(set.BotHealthMetrics),
	}
	for table, n := range counts {
		m.AnalyticsRowsWritten.WithLabelValues(table).Add(float64(n))
	}
}

// RecordCheckpointReadError increments the checkpoint read error counter.
func (m *Metrics) RecordCheckpointReadError() {
	m.CheckpointReadErrors.Inc()
}

// RecordExportError increments the export error counter.
func (m *Metrics) RecordExportError() {
	m.ExportErrors.Inc()
}

// SetCheckpoint updates the checkpoint gauge.
func (m *Metrics) SetCheckpoint(tradeID int64) {
	m.Checkpoint.Set(float64(tradeID))
}

// SetHealthGauge updates one bot health gauge.
func (m *Metrics) SetHealthGauge(metric string, value float64) {
	m.BotHealth.WithLabelValues(metric).Set(value)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordDBQuery records database query metrics on DefaultMetrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}
