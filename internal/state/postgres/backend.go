// Package postgres is the durable state backend. Committed state lives in a
// key/value table; committed logs go to the outbox table in the same
// transaction.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"commitgood/internal/state"
	auditpg "commitgood/pkg/platform/audit/store/postgres"
	txcontext "commitgood/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Backend implements state.Backend on PostgreSQL.
type Backend struct {
	db     *sql.DB
	outbox *auditpg.Store
}

func New(db *sql.DB) *Backend {
	return &Backend{db: db, outbox: auditpg.New(db)}
}

// EnsureSchema creates the tables if they do not exist.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Outbox exposes the outbox store for admin queries.
func (b *Backend) Outbox() *auditpg.Store {
	return b.outbox
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := txcontext.ExecerFrom(ctx, b.db).
		QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read key %s: %w", key, err)
	}
	return value, true, nil
}

func (b *Backend) Commit(ctx context.Context, c *state.Commit) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	ctx = txcontext.WithTx(ctx, tx)

	if len(c.Writes) > 0 {
		keys := make([]string, len(c.Writes))
		values := make([][]byte, len(c.Writes))
		for i, w := range c.Writes {
			keys[i] = w.Key
			values[i] = w.Value
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv (key, value)
			SELECT k, v FROM unnest($1::text[], $2::bytea[]) AS t(k, v)
			ON CONFLICT (key) DO UPDATE SET
				value = EXCLUDED.value,
				updated_at = now()
		`, pq.Array(keys), pq.ByteaArray(values))
		if err != nil {
			return fmt.Errorf("write state: %w", err)
		}
	}

	if err := b.outbox.Append(ctx, c.Logs...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *Backend) LastSeq(ctx context.Context) (uint64, error) {
	return b.outbox.LastSeq(ctx)
}
