package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	streamMessages  *prometheus.CounterVec
	candlesAppended *prometheus.CounterVec
	shardConnected  *prometheus.GaugeVec
	analysisSeconds *prometheus.HistogramVec
	cycleSeconds    prometheus.Histogram
	cycleSymbols    prometheus.Gauge
	signalsTotal    *prometheus.CounterVec
	notifyFailures  prometheus.Counter
	errorsTotal     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		streamMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_stream_messages_total",
				Help: "Total stream messages received, by shard and payload kind",
			},
			[]string{"shard", "kind"},
		),
		candlesAppended: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_candles_appended_total",
				Help: "Total closed candles appended to buffers",
			},
			[]string{"timeframe"},
		),
		shardConnected: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "momentum_shard_connected",
				Help: "Connection state per websocket shard, 1 when connected",
			},
			[]string{"shard"},
		),
		analysisSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "momentum_analysis_duration_seconds",
				Help:    "Per-symbol analysis duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
		cycleSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "momentum_cycle_duration_seconds",
				Help:    "Full analysis cycle duration in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 15, 30, 60, 120},
			},
		),
		cycleSymbols: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "momentum_cycle_symbols",
				Help: "Symbols analyzed in the latest cycle",
			},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_signals_total",
				Help: "Generated signals, by tier and persistence outcome",
			},
			[]string{"tier", "outcome"},
		),
		notifyFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "momentum_notify_failures_total",
				Help: "Alert deliveries that failed",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) RecordStreamMessage(shard, kind string) {
	r.streamMessages.WithLabelValues(shard, kind).Inc()
}

func (r *Recorder) RecordCandleAppended(timeframe string) {
	r.candlesAppended.WithLabelValues(timeframe).Inc()
}

func (r *Recorder) RecordShardState(shard string, connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	r.shardConnected.WithLabelValues(shard).Set(v)
}

func (r *Recorder) RecordAnalysis(symbol string, seconds float64) {
	r.analysisSeconds.WithLabelValues(symbol).Observe(seconds)
}

func (r *Recorder) RecordCycle(symbols int, seconds float64) {
	r.cycleSymbols.Set(float64(symbols))
	r.cycleSeconds.Observe(seconds)
}

func (r *Recorder) RecordSignal(tier, outcome string) {
	r.signalsTotal.WithLabelValues(tier, outcome).Inc()
}

func (r *Recorder) RecordNotifyFailure() {
	r.notifyFailures.Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
