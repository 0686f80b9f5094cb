package state

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	audit "commitgood/pkg/platform/audit"
)

type txnKey struct{}

// Txn buffers writes and logs for one call. Nested calls get a child Txn
// whose effects reach the parent only if the nested call succeeds.
type Txn struct {
	id     uuid.UUID
	parent *Txn
	base   Reader
	writes map[string][]byte
	order  []string
	logs   []audit.Log
}

func newTxn(base Reader) *Txn {
	return &Txn{
		id:     uuid.New(),
		base:   base,
		writes: make(map[string][]byte),
	}
}

// ID is the id of the top-level transaction this Txn belongs to.
func (t *Txn) ID() uuid.UUID {
	return t.id
}

// Get reads through pending writes of this Txn and its ancestors, then the backend.
func (t *Txn) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for cur := t; cur != nil; cur = cur.parent {
		if v, ok := cur.writes[key]; ok {
			return v, true, nil
		}
	}
	return t.base.Get(ctx, key)
}

// Put buffers a write.
func (t *Txn) Put(key string, value []byte) {
	if _, seen := t.writes[key]; !seen {
		t.order = append(t.order, key)
	}
	t.writes[key] = append([]byte(nil), value...)
}

// Emit buffers an event emitted by emitter.
func (t *Txn) Emit(emitter common.Address, ev audit.Event) {
	t.logs = append(t.logs, audit.NewLog(emitter, ev))
}

func (t *Txn) child() *Txn {
	c := newTxn(t.base)
	c.id = t.id
	c.parent = t
	return c
}

// merge folds a successful child into its parent, preserving order.
func (t *Txn) merge() {
	p := t.parent
	for _, k := range t.order {
		if _, seen := p.writes[k]; !seen {
			p.order = append(p.order, k)
		}
		p.writes[k] = t.writes[k]
	}
	p.logs = append(p.logs, t.logs...)
}

func (t *Txn) pendingWrites() []Write {
	out := make([]Write, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, Write{Key: k, Value: t.writes[k]})
	}
	return out
}

// WithTxn stores an active Txn in ctx.
func WithTxn(ctx context.Context, t *Txn) context.Context {
	return context.WithValue(ctx, txnKey{}, t)
}

// TxnFrom returns the active Txn in ctx, if any.
func TxnFrom(ctx context.Context) (*Txn, bool) {
	t, ok := ctx.Value(txnKey{}).(*Txn)
	return t, ok
}
