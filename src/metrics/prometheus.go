package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes pipeline, signal and paper trading counters to Prometheus.
type Recorder struct {
	runsTotal      *prometheus.CounterVec
	stageErrors    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	signalsTotal   *prometheus.CounterVec
	paperTrades    *prometheus.CounterVec
	paperCloses    *prometheus.CounterVec
	openPositions  prometheus.Gauge
	collectorCalls *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// serve them from promhttp.Handler.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_pipeline_runs_total",
				Help: "Pipeline runs by final status",
			},
			[]string{"status"},
		),
		stageErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_pipeline_stage_errors_total",
				Help: "Pipeline stage failures recorded as exceptions",
			},
			[]string{"stage"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentiment_pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_signals_generated_total",
				Help: "Signals stored by type",
			},
			[]string{"type"},
		),
		paperTrades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_paper_trades_total",
				Help: "Paper trade creation attempts by outcome",
			},
			[]string{"outcome"},
		),
		paperCloses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_paper_closes_total",
				Help: "Paper positions closed by exit reason",
			},
			[]string{"reason"},
		),
		openPositions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentiment_paper_open_positions",
				Help: "Open paper positions after the last update",
			},
		),
		collectorCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_collector_requests_total",
				Help: "External data source requests by source and result",
			},
			[]string{"source", "result"},
		),
	}
}

func (r *Recorder) RecordRun(status string) {
	r.runsTotal.WithLabelValues(status).Inc()
}

func (r *Recorder) RecordStageError(stage string) {
	r.stageErrors.WithLabelValues(stage).Inc()
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Recorder) RecordSignal(signalType string) {
	r.signalsTotal.WithLabelValues(signalType).Inc()
}

func (r *Recorder) RecordPaperTrade(outcome string) {
	r.paperTrades.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordPaperClose(reason string) {
	r.paperCloses.WithLabelValues(reason).Inc()
}

func (r *Recorder) SetOpenPositions(n int) {
	r.openPositions.Set(float64(n))
}

func (r *Recorder) RecordCollectorRequest(source, result string) {
	r.collectorCalls.WithLabelValues(source, result).Inc()
}
