// Package outbox forwards committed logs from the PostgreSQL outbox table to
// Kafka. The ledger commit writes outbox rows in the same transaction as the
// state change; the relay publishes them at least once, in sequence order.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twmb/franz-go/pkg/kgo"

	"commitgood/pkg/platform/sentinel"
)

// Producer is the subset of *kgo.Client the relay needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Metrics is the subset of relay metrics the relay reports to.
type Metrics interface {
	IncRelayed(n int)
	IncRelayFailures()
	ObserveRelayLag(d time.Duration)
}

// Relay polls unpublished outbox rows and produces them to one topic keyed by
// emitter address, so that all logs of one component land on one partition.
type Relay struct {
	pool      *pgxpool.Pool
	producer  Producer
	topic     string
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
	metrics   Metrics
}

// Option configures a Relay.
type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// NewRelay creates an outbox relay.
func NewRelay(pool *pgxpool.Pool, producer Producer, topic string, opts ...Option) (*Relay, error) {
	if pool == nil {
		return nil, fmt.Errorf("outbox pool is required")
	}
	if producer == nil {
		return nil, fmt.Errorf("kafka producer is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	r := &Relay{
		pool:      pool,
		producer:  producer,
		topic:     topic,
		batchSize: 500,
		interval:  time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run relays on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				n, err := r.RelayOnce(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
					if r.metrics != nil {
						r.metrics.IncRelayFailures()
					}
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

type pendingRow struct {
	id        string
	emitter   string
	eventType string
	payload   []byte
	createdAt time.Time
}

// RelayOnce publishes one batch and marks it published. Rows are locked with
// SKIP LOCKED so that several relays can run against one database.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin outbox batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pending, err := r.lockBatch(ctx, tx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	records := make([]*kgo.Record, 0, len(pending))
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		records = append(records, &kgo.Record{
			Topic: r.topic,
			Key:   []byte(p.emitter),
			Value: p.payload,
			Headers: []kgo.RecordHeader{
				{Key: "event", Value: []byte(p.eventType)},
			},
		})
		ids = append(ids, p.id)
	}

	if err := r.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return 0, fmt.Errorf("produce outbox batch: %w: %w", sentinel.ErrUnavailable, err)
	}

	if _, err := tx.Exec(ctx, `UPDATE outbox SET published_at = now() WHERE id::text = ANY($1)`, ids); err != nil {
		return 0, fmt.Errorf("mark outbox batch published: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit outbox batch: %w", err)
	}

	if r.metrics != nil {
		r.metrics.IncRelayed(len(pending))
		r.metrics.ObserveRelayLag(time.Since(pending[0].createdAt))
	}
	return len(pending), nil
}

func (r *Relay) lockBatch(ctx context.Context, tx pgx.Tx) ([]pendingRow, error) {
	rows, err := tx.Query(ctx, `
		SELECT id::text, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox batch: %w", err)
	}
	defer rows.Close()

	var pending []pendingRow
	for rows.Next() {
		var p pendingRow
		if err := rows.Scan(&p.id, &p.emitter, &p.eventType, &p.payload, &p.createdAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox batch: %w", err)
	}
	return pending, nil
}
