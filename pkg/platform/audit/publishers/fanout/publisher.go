// Package fanout forwards committed logs to every configured sink.
//
// Inline sinks (the in-process recent-log store) receive logs synchronously
// in commit order. Buffered sinks (Redis) are fed through a worker each, so a
// slow or failing sink never delays a commit. Fan-out happens after commit:
// a delivery failure is logged and counted, never surfaced to the caller.
package fanout

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/audit/worker"
)

// SinkFunc adapts a function to worker.Sink.
type SinkFunc func(ctx context.Context, logs []audit.Log) error

func (f SinkFunc) Deliver(ctx context.Context, logs []audit.Log) error {
	return f(ctx, logs)
}

type inlineSink struct {
	name string
	sink worker.Sink
}

// Publisher fans committed logs out to inline sinks and buffered workers.
type Publisher struct {
	inline  []inlineSink
	workers []*worker.Worker
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithInlineSink delivers to sink synchronously on every Publish.
func WithInlineSink(name string, sink worker.Sink) Option {
	return func(p *Publisher) {
		p.inline = append(p.inline, inlineSink{name: name, sink: sink})
	}
}

// WithWorker delivers through a buffered worker. The worker runs under Run.
func WithWorker(w *worker.Worker) Option {
	return func(p *Publisher) {
		p.workers = append(p.workers, w)
	}
}

// NewPublisher creates a publisher. With no sinks it discards every log.
func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish hands committed logs to every sink.
func (p *Publisher) Publish(ctx context.Context, logs []audit.Log) {
	if len(logs) == 0 {
		return
	}
	for _, s := range p.inline {
		if err := s.sink.Deliver(ctx, logs); err != nil {
			p.logger.ErrorContext(ctx, "inline log delivery failed",
				"sink", s.name,
				"first_seq", logs[0].Seq,
				"error", err,
			)
			if p.metrics != nil {
				p.metrics.IncSyncFailures(s.name)
			}
		}
	}
	for _, w := range p.workers {
		w.Submit(logs)
	}
}

// Run drives all buffered workers until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	return g.Wait()
}
