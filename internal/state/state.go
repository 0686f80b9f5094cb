// Package state is the ledger's execution substrate: a single-writer,
// all-or-nothing transaction model over a key/value projection of every
// component's tables, with event logs committed alongside the writes.
package state

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/requestcontext"
)

// Reader reads committed or pending state. A missing key reports ok=false.
type Reader interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
}

// Write is one key assignment in a commit.
type Write struct {
	Key   string
	Value []byte
}

// Commit is the unit a backend persists atomically.
type Commit struct {
	TxID   uuid.UUID
	Writes []Write
	Logs   []audit.Log
}

// Backend persists commits. Commit must apply writes and logs together or not at all.
type Backend interface {
	Reader
	Commit(ctx context.Context, c *Commit) error
	// LastSeq returns the sequence number of the last committed log.
	LastSeq(ctx context.Context) (uint64, error)
}

// Publisher receives logs after they have been committed.
type Publisher interface {
	Publish(ctx context.Context, logs []audit.Log)
}

// Receipt describes a successful mutating call.
type Receipt struct {
	TxID uuid.UUID
	Logs []audit.Log
}

// Events returns the typed events in emission order.
func (r *Receipt) Events() []audit.Event {
	if r == nil {
		return nil
	}
	out := make([]audit.Event, 0, len(r.Logs))
	for _, l := range r.Logs {
		out = append(out, l.Args)
	}
	return out
}

// Names returns the event names in emission order.
func (r *Receipt) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Logs))
	for _, l := range r.Logs {
		out = append(out, l.Name)
	}
	return out
}

// Find returns the first log with the given event name.
func (r *Receipt) Find(name string) (audit.Log, bool) {
	if r == nil {
		return audit.Log{}, false
	}
	for _, l := range r.Logs {
		if l.Name == name {
			return l, true
		}
	}
	return audit.Log{}, false
}

// Key builds a namespaced key: "<component>/<part>/<part>...".
func Key(component common.Address, parts ...string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(component.Hex()))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(p)
	}
	return b.String()
}

// AddressPart renders an address as a key part.
func AddressPart(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// LogAudit records a committed receipt on the structured logger, one line per
// event, tagged for audit retention.
func LogAudit(ctx context.Context, logger *slog.Logger, op string, r *Receipt, attrs ...any) {
	if logger == nil || r == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	for _, l := range r.Logs {
		args := append([]any{
			"op", op,
			"event", l.Name,
			"emitter", l.Emitter.Hex(),
			"seq", l.Seq,
			"tx_id", l.TxID.String(),
			"log_type", "audit",
		}, attrs...)
		logger.InfoContext(ctx, l.Name, args...)
	}
}
