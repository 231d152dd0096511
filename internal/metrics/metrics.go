// Package metrics provides Prometheus metrics for the engine. There is no HTTP surface; the
// registry is flushed to a node-exporter textfile after every job.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"RaceBrain/internal/fsutil"
)

// EngineMetrics collects job and state metrics.
type EngineMetrics struct {
	registry *prometheus.Registry
	textfile string
	logger   zerolog.Logger

	JobRuns        *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	BankrollGauge  prometheus.Gauge
	BetsToday      prometheus.Gauge
	PnLToday       prometheus.Gauge
	CardStake      prometheus.Gauge
	ModelSamples   prometheus.Gauge
	ModelLogLoss   prometheus.Gauge
	OddsRunners    prometheus.Gauge
	OddsLastUpdate prometheus.Gauge
	FetchFailures  prometheus.Counter
	ResultsAdded   prometheus.Counter
}

// New creates the metrics on a private registry. An empty textfile disables Flush.
func New(textfile string, logger zerolog.Logger) *EngineMetrics {
	m := &EngineMetrics{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		logger:   logger.With().Str("component", "metrics").Logger(),

		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "racebrain_job_runs_total",
				Help: "Job firings by job and outcome",
			},
			[]string{"job", "status"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "racebrain_job_duration_seconds",
				Help:    "Wall time of each job firing",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
			[]string{"job"},
		),
		BankrollGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racebrain_bankroll_balance_hkd",
			Help: "Current bankroll balance",
		}),
		BetsToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racebrain_bets_placed_today",
			Help: "Bets recorded on the current day",
		}),
		PnLToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racebrain_pnl_today_hkd",
			Help: "Profit and loss recorded on the current day",
		}),
		CardStake: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racebrain_last_card_stake_hkd",
			Help: "Total stake of the last card",
		}),
		ModelSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racebrain_model_training_samples",
			Help: "Samples the current model was trained on",
		}),
		ModelLogLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racebrain_model_log_loss",
			Help: "Training log loss of the current model",
		}),
		OddsRunners: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racebrain_odds_runners",
			Help: "Runners in the latest odds snapshot",
		}),
		OddsLastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racebrain_odds_last_update_timestamp_seconds",
			Help: "Unix time of the latest successful odds refresh",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "racebrain_odds_fetch_failures_total",
			Help: "Odds refreshes that failed to fetch or parse",
		}),
		ResultsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "racebrain_results_ingested_total",
			Help: "Settled results appended to the results log",
		}),
	}

	m.registry.MustRegister(
		m.JobRuns, m.JobDuration,
		m.BankrollGauge, m.BetsToday, m.PnLToday, m.CardStake,
		m.ModelSamples, m.ModelLogLoss,
		m.OddsRunners, m.OddsLastUpdate, m.FetchFailures, m.ResultsAdded,
	)
	return m
}

// Registry returns the prometheus registry.
func (m *EngineMetrics) Registry() *prometheus.Registry { return m.registry }

// RecordJob counts a firing and observes its duration.
func (m *EngineMetrics) RecordJob(job, status string, seconds float64) {
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(seconds)
}

// UpdateBankroll sets the bankroll gauges.
func (m *EngineMetrics) UpdateBankroll(balance, pnlToday decimal.Decimal, betsToday int) {
	m.BankrollGauge.Set(DecimalToFloat64(balance))
	m.PnLToday.Set(DecimalToFloat64(pnlToday))
	m.BetsToday.Set(float64(betsToday))
}

// Flush writes the registry to the textfile. Failures are logged only.
func (m *EngineMetrics) Flush() {
	if m.textfile == "" {
		return
	}
	if err := fsutil.EnsureDir(m.textfile); err != nil {
		m.logger.Warn().Err(err).Msg("metrics dir")
		return
	}
	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		m.logger.Warn().Err(err).Str("path", m.textfile).Msg("write metrics textfile")
	}
}

// DecimalToFloat64 converts decimal.Decimal to float64 for metrics.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
