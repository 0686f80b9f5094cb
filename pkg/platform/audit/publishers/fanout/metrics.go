package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for post-commit log fan-out.
type Metrics struct {
	Delivered        *prometheus.CounterVec
	Dropped          *prometheus.CounterVec
	DeliveryFailures *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
	SyncFailures     *prometheus.CounterVec
}

// NewMetrics creates and registers fan-out metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer registers the fan-out metrics on reg.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Delivered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commitgood_fanout_delivered_total",
			Help: "Total number of committed logs delivered to a sink",
		}, []string{"sink"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commitgood_fanout_dropped_total",
			Help: "Total number of committed logs a sink never received",
		}, []string{"sink", "reason"}),
		DeliveryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commitgood_fanout_delivery_failures_total",
			Help: "Total number of failed batch deliveries",
		}, []string{"sink"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "commitgood_fanout_circuit_breaker_state",
			Help: "Current circuit breaker state per sink (0=closed/healthy, 1=open/unhealthy)",
		}, []string{"sink"}),
		SyncFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commitgood_fanout_sync_failures_total",
			Help: "Total number of failed inline deliveries",
		}, []string{"sink"}),
	}
}

func (m *Metrics) IncDelivered(sink string, n int) {
	m.Delivered.WithLabelValues(sink).Add(float64(n))
}

func (m *Metrics) IncDropped(sink, reason string, n int) {
	m.Dropped.WithLabelValues(sink, reason).Add(float64(n))
}

func (m *Metrics) IncDeliveryFailures(sink string) {
	m.DeliveryFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) SetBreakerState(sink string, open bool) {
	m.BreakerState.WithLabelValues(sink).Set(boolGauge(open))
}

func (m *Metrics) IncSyncFailures(sink string) {
	m.SyncFailures.WithLabelValues(sink).Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
