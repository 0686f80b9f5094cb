// Package index stores logs read back from Kafka in a queryable table keyed
// by sequence number.
package index

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	audit "commitgood/pkg/platform/audit"
)

//go:embed schema.sql
var schema string

// Store implements consumer.IndexStore on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the index table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply index schema: %w", err)
	}
	return nil
}

// AppendIndexed inserts r. A sequence number that is already indexed is
// left untouched.
func (s *Store) AppendIndexed(ctx context.Context, r audit.Record) error {
	args := r.Args
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	var emittedAt *time.Time
	if !r.Timestamp.IsZero() {
		emittedAt = &r.Timestamp
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexed_events (seq, tx_id, log_index, emitter, event, category, topic, args, emitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (seq) DO NOTHING
	`,
		int64(r.Seq),
		r.TxID,
		r.Index,
		strings.ToLower(r.Emitter.Hex()),
		r.Name,
		string(r.Category),
		r.Topic.Hex(),
		[]byte(args),
		emittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert indexed event: %w", err)
	}
	return nil
}

// LastSeq returns the highest indexed sequence number, or zero.
func (s *Store) LastSeq(ctx context.Context) (uint64, error) {
	var seq int64
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM indexed_events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last indexed seq: %w", err)
	}
	return uint64(seq), nil
}

// ListByEmitter returns up to limit logs of one component, oldest first.
func (s *Store) ListByEmitter(ctx context.Context, emitter common.Address, limit int) ([]audit.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, tx_id, log_index, emitter, event, category, topic, args, emitted_at
		FROM indexed_events
		WHERE emitter = $1
		ORDER BY seq
		LIMIT $2
	`, strings.ToLower(emitter.Hex()), limit)
	if err != nil {
		return nil, fmt.Errorf("query indexed events: %w", err)
	}
	return scanRecords(rows)
}

// ListByEvent returns up to limit logs with one event name, oldest first.
func (s *Store) ListByEvent(ctx context.Context, name string, limit int) ([]audit.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, tx_id, log_index, emitter, event, category, topic, args, emitted_at
		FROM indexed_events
		WHERE event = $1
		ORDER BY seq
		LIMIT $2
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query indexed events: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]audit.Record, error) {
	defer rows.Close()
	var out []audit.Record
	for rows.Next() {
		var (
			r         audit.Record
			seq       int64
			emitter   string
			category  string
			topic     string
			args      []byte
			emittedAt *time.Time
		)
		if err := rows.Scan(&seq, &r.TxID, &r.Index, &emitter, &r.Name, &category, &topic, &args, &emittedAt); err != nil {
			return nil, fmt.Errorf("scan indexed event: %w", err)
		}
		r.Seq = uint64(seq)
		r.Emitter = common.HexToAddress(emitter)
		r.Category = audit.EventCategory(category)
		r.Topic = common.HexToHash(topic)
		r.Args = args
		if emittedAt != nil {
			r.Timestamp = emittedAt.UTC()
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexed events: %w", err)
	}
	return out, nil
}
