package metrics

import (
	"context"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"commitgood/internal/token"
	audit "commitgood/pkg/platform/audit"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	TxCommitted       *prometheus.CounterVec
	TxAborted         *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	EventsEmitted     *prometheus.CounterVec
	TokensMinted      prometheus.Counter

	OutboxRelayed       prometheus.Counter
	OutboxRelayFailures prometheus.Counter
	OutboxRelayLag      prometheus.Histogram
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TxCommitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commitgood_transactions_committed_total",
			Help: "Total number of committed top-level calls",
		}, []string{"op"}),
		TxAborted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commitgood_transactions_aborted_total",
			Help: "Total number of aborted top-level calls",
		}, []string{"op", "code"}),
		ExecutionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commitgood_execution_duration_seconds",
			Help:    "Time from lock acquisition request to commit",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		EventsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commitgood_events_emitted_total",
			Help: "Total number of committed event logs by event name",
		}, []string{"event"}),
		TokensMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "commitgood_tokens_minted_total",
			Help: "Total GOOD minted, in base units",
		}),
		OutboxRelayed: f.NewCounter(prometheus.CounterOpts{
			Name: "commitgood_outbox_relayed_total",
			Help: "Total number of outbox rows produced to Kafka",
		}),
		OutboxRelayFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "commitgood_outbox_relay_failures_total",
			Help: "Total number of failed outbox relay batches",
		}),
		OutboxRelayLag: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "commitgood_outbox_relay_lag_seconds",
			Help:    "Age of outbox rows when produced to Kafka",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

func (m *Metrics) ObserveCommit(op string, started time.Time, _ int) {
	m.TxCommitted.WithLabelValues(op).Inc()
	m.ExecutionDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) IncAbort(op string, code string) {
	m.TxAborted.WithLabelValues(op, code).Inc()
}

func (m *Metrics) IncRelayed(n int) {
	m.OutboxRelayed.Add(float64(n))
}

func (m *Metrics) IncRelayFailures() {
	m.OutboxRelayFailures.Inc()
}

func (m *Metrics) ObserveRelayLag(d time.Duration) {
	m.OutboxRelayLag.Observe(d.Seconds())
}

// Deliver counts committed logs. It is registered as an inline fan-out sink
// so that rolled-back nested calls are never counted.
func (m *Metrics) Deliver(_ context.Context, logs []audit.Log) error {
	for _, l := range logs {
		m.EventsEmitted.WithLabelValues(l.Name).Inc()
		if mint, ok := l.Args.(token.Mint); ok && mint.Amount != nil {
			f, _ := new(big.Float).SetInt(mint.Amount.ToBig()).Float64()
			m.TokensMinted.Add(f)
		}
	}
	return nil
}

// Indexer holds the metrics of the Kafka log indexer.
type Indexer struct {
	Consumed        prometheus.Counter
	ConsumeFailures prometheus.Counter
}

// NewIndexer registers the indexer metrics on reg.
func NewIndexer(reg prometheus.Registerer) *Indexer {
	f := promauto.With(reg)
	return &Indexer{
		Consumed: f.NewCounter(prometheus.CounterOpts{
			Name: "commitgood_indexer_consumed_total",
			Help: "Total number of Kafka records handled and committed",
		}),
		ConsumeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "commitgood_indexer_failures_total",
			Help: "Total number of handler failures that stopped the indexer",
		}),
	}
}

func (m *Indexer) IncConsumed(n int) {
	m.Consumed.Add(float64(n))
}

func (m *Indexer) IncConsumeFailures() {
	m.ConsumeFailures.Inc()
}
