// Package consumer reads committed ledger logs back from Kafka and hands them
// to handlers. Offsets are committed only after a record is handled, so
// handlers must tolerate redelivery.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// HeaderEvent carries the event name on every relayed record.
const HeaderEvent = "event"

// Message is one record as seen by handlers.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Event returns the event name header, or "".
func (m *Message) Event() string {
	return m.Headers[HeaderEvent]
}

// Handler processes one message. Returning an error stops the consumer
// before the message's offset is committed.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Client is the subset of *kgo.Client the consumer needs. The client must be
// built with a consumer group and auto-commit disabled.
type Client interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
}

// Metrics is the subset of platform metrics the consumer reports to.
type Metrics interface {
	IncConsumed(n int)
	IncConsumeFailures()
}

// Consumer polls a client and dispatches every record to one handler.
type Consumer struct {
	client  Client
	handler Handler
	logger  *slog.Logger
	metrics Metrics
}

// Option configures a Consumer.
type Option func(*Consumer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) { c.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(c *Consumer) { c.metrics = m }
}

// New creates a consumer.
func New(client Client, handler Handler, opts ...Option) (*Consumer, error) {
	if client == nil {
		return nil, errors.New("kafka client is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	c := &Consumer{client: client, handler: handler, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run polls until ctx is cancelled or a handler fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		if err := c.handleBatch(ctx, fetches); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// handleBatch handles records in order and commits the ones handled before
// the first failure.
func (c *Consumer) handleBatch(ctx context.Context, fetches kgo.Fetches) error {
	var (
		handled    []*kgo.Record
		handlerErr error
	)
	fetches.EachRecord(func(r *kgo.Record) {
		if handlerErr != nil {
			return
		}
		msg := toMessage(r)
		if err := c.handler.Handle(ctx, msg); err != nil {
			handlerErr = fmt.Errorf("handle %s/%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
			return
		}
		handled = append(handled, r)
	})

	if len(handled) > 0 {
		if err := c.client.CommitRecords(ctx, handled...); err != nil {
			return fmt.Errorf("commit offsets: %w", err)
		}
		if c.metrics != nil {
			c.metrics.IncConsumed(len(handled))
		}
	}
	if handlerErr != nil {
		c.logger.ErrorContext(ctx, "log handler failed", "error", handlerErr)
		if c.metrics != nil {
			c.metrics.IncConsumeFailures()
		}
		return handlerErr
	}
	return nil
}

func toMessage(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}
