package worker

import (
	"context"
	"errors"
	"log/slog"

	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/circuit"
	"commitgood/pkg/platform/sentinel"
)

const defaultBatchSize = 256

// Sink receives committed logs in sequence order.
type Sink interface {
	Deliver(ctx context.Context, logs []audit.Log) error
}

// Metrics is the subset of fan-out metrics a worker reports to.
type Metrics interface {
	IncDelivered(sink string, n int)
	IncDropped(sink, reason string, n int)
	IncDeliveryFailures(sink string)
	SetBreakerState(sink string, open bool)
}

// Worker drains a ring buffer into one sink. Delivery failures never block
// the ledger: a failing batch is counted and dropped, and a circuit breaker
// sheds load while the sink stays unhealthy.
type Worker struct {
	name    string
	sink    Sink
	buffer  *RingBuffer
	breaker *circuit.Breaker
	notify  chan struct{}
	batch   int
	logger  *slog.Logger
	metrics Metrics
}

// Option configures a Worker.
type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) { w.breaker = b }
}

// NewWorker creates a worker with its own buffer.
func NewWorker(name string, sink Sink, capacity int, opts ...Option) *Worker {
	w := &Worker{
		name:    name,
		sink:    sink,
		buffer:  NewRingBuffer(capacity),
		breaker: circuit.New(name),
		notify:  make(chan struct{}, 1),
		batch:   defaultBatchSize,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Name() string { return w.name }

// Submit enqueues logs without blocking.
func (w *Worker) Submit(logs []audit.Log) {
	if len(logs) == 0 {
		return
	}
	if dropped := w.buffer.Enqueue(logs...); dropped > 0 && w.metrics != nil {
		w.metrics.IncDropped(w.name, "buffer_full", dropped)
	}
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Pending returns the number of logs waiting for delivery.
func (w *Worker) Pending() int {
	return w.buffer.Len()
}

// Run delivers buffered logs until ctx is done, then flushes what remains
// with a best-effort attempt.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return nil
		case <-w.notify:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		logs := w.buffer.DequeueBatch(w.batch)
		if len(logs) == 0 {
			return
		}
		w.deliver(ctx, logs)
	}
}

func (w *Worker) deliver(ctx context.Context, logs []audit.Log) {
	if !w.breaker.Allow() {
		if w.metrics != nil {
			w.metrics.IncDropped(w.name, "circuit_open", len(logs))
		}
		return
	}

	if err := w.sink.Deliver(ctx, logs); err != nil {
		_, change := w.breaker.RecordFailure()
		level := slog.LevelError
		if errors.Is(err, sentinel.ErrUnavailable) {
			level = slog.LevelWarn
		}
		w.logger.Log(ctx, level, "log fan-out delivery failed",
			"sink", w.name,
			"logs", len(logs),
			"first_seq", logs[0].Seq,
			"error", err,
		)
		if w.metrics != nil {
			w.metrics.IncDeliveryFailures(w.name)
			w.metrics.IncDropped(w.name, "delivery_failed", len(logs))
			if change.Opened {
				w.metrics.SetBreakerState(w.name, true)
			}
		}
		return
	}

	_, change := w.breaker.RecordSuccess()
	if w.metrics != nil {
		w.metrics.IncDelivered(w.name, len(logs))
		if change.Closed {
			w.metrics.SetBreakerState(w.name, false)
		}
	}
}
