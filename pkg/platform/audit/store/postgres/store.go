package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "commitgood/pkg/platform/audit"
	txcontext "commitgood/pkg/platform/tx"
)

// Store implements the transactional outbox for committed logs.
// Rows are written inside the ledger commit and forwarded to Kafka by the
// outbox relay. The row payload is the JSON log envelope.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL outbox store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes logs to the outbox table. Inside a commit the rows join the
// commit's transaction; otherwise each call runs on its own connection.
func (s *Store) Append(ctx context.Context, logs ...audit.Log) error {
	const query = `
		INSERT INTO outbox (id, seq, tx_id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	execer := txcontext.ExecerFrom(ctx, s.db)
	for _, l := range logs {
		payload, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal log payload: %w", err)
		}
		_, err = execer.ExecContext(ctx, query,
			uuid.New(),
			int64(l.Seq),
			l.TxID,
			string(l.Category),
			l.Emitter.Hex(),
			l.Name,
			payload,
			l.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return nil
}

// LastSeq returns the highest sequence number ever written, or zero.
func (s *Store) LastSeq(ctx context.Context) (uint64, error) {
	var seq int64
	err := txcontext.ExecerFrom(ctx, s.db).
		QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM outbox`).
		Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last outbox seq: %w", err)
	}
	return uint64(seq), nil
}

// Entry is one outbox row as read back by the relay and admin queries.
type Entry struct {
	ID            uuid.UUID
	Seq           uint64
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// ListRecent returns the limit most recent outbox rows, oldest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM (
			SELECT * FROM outbox ORDER BY seq DESC LIMIT $1
		) recent
		ORDER BY seq ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e   Entry
			seq int64
		)
		if err := rows.Scan(&e.ID, &seq, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.Seq = uint64(seq)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}
