package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "commitgood/pkg/domain-errors"
	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/requestcontext"
)

var tracer = otel.Tracer("commitgood/state")

const defaultTimeout = 5 * time.Second

// Metrics is the subset of platform metrics the executor reports to.
type Metrics interface {
	ObserveCommit(op string, started time.Time, logs int)
	IncAbort(op string, code string)
}

// Executor runs mutating calls one at a time. Each top-level call either
// commits all of its writes and logs or leaves state untouched.
type Executor struct {
	mu        sync.Mutex
	backend   Backend
	publisher Publisher
	seq       uint64
	timeout   time.Duration
	logger    *slog.Logger
	metrics   Metrics
}

// Option configures an Executor.
type Option func(*Executor)

func WithPublisher(p Publisher) Option {
	return func(e *Executor) { e.publisher = p }
}

func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an executor and resumes log sequencing from the backend.
func NewExecutor(ctx context.Context, backend Backend, opts ...Option) (*Executor, error) {
	if backend == nil {
		return nil, errors.New("state backend is required")
	}
	e := &Executor{
		backend: backend,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	seq, err := backend.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume log sequence: %w", err)
	}
	e.seq = seq
	return e, nil
}

// Reader returns the active transaction in ctx, or committed state.
// Queries use it so that reads made during a call see that call's writes.
func (e *Executor) Reader(ctx context.Context) Reader {
	if t, ok := TxnFrom(ctx); ok {
		return t
	}
	return e.backend
}

// Execute runs fn atomically. When ctx already carries a transaction, fn runs
// in a child of it and the returned receipt holds only fn's own logs, which
// are committed with the enclosing call.
func (e *Executor) Execute(ctx context.Context, op string, fn func(ctx context.Context, txn *Txn) error) (*Receipt, error) {
	if parent, ok := TxnFrom(ctx); ok {
		return e.executeNested(ctx, op, parent, fn)
	}

	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("caller", requestcontext.Caller(ctx).Hex()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, e.abort(ctx, span, op, dErrors.Wrap(err, dErrors.CodeTimeout, "call not started"))
	}

	txn := newTxn(e.backend)
	if err := fn(WithTxn(ctx, txn), txn); err != nil {
		return nil, e.abort(ctx, span, op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, e.abort(ctx, span, op, dErrors.Wrap(err, dErrors.CodeTimeout, "call timed out"))
	}

	now := requestcontext.Now(ctx)
	logs := txn.logs
	for i := range logs {
		logs[i].Seq = e.seq + uint64(i) + 1
		logs[i].TxID = txn.id
		logs[i].Index = i
		logs[i].Timestamp = now
	}

	commit := &Commit{TxID: txn.id, Writes: txn.pendingWrites(), Logs: logs}
	if len(commit.Writes) > 0 || len(commit.Logs) > 0 {
		if err := e.backend.Commit(ctx, commit); err != nil {
			return nil, e.abort(ctx, span, op, dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction"))
		}
	}
	e.seq += uint64(len(logs))

	if e.publisher != nil {
		e.publisher.Publish(context.WithoutCancel(ctx), logs)
	}
	if e.metrics != nil {
		e.metrics.ObserveCommit(op, started, len(logs))
	}
	span.SetAttributes(attribute.Int("logs", len(logs)), attribute.String("tx_id", txn.id.String()))
	return &Receipt{TxID: txn.id, Logs: logs}, nil
}

func (e *Executor) executeNested(ctx context.Context, op string, parent *Txn, fn func(ctx context.Context, txn *Txn) error) (*Receipt, error) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("caller", requestcontext.Caller(ctx).Hex()),
		attribute.Bool("nested", true),
	))
	defer span.End()

	child := parent.child()
	if err := fn(WithTxn(ctx, child), child); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	logs := append([]audit.Log(nil), child.logs...)
	child.merge()
	return &Receipt{TxID: parent.id, Logs: logs}, nil
}

func (e *Executor) abort(ctx context.Context, span trace.Span, op string, err error) error {
	code := dErrors.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	if e.metrics != nil {
		e.metrics.IncAbort(op, string(code))
	}
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		e.logger.ErrorContext(ctx, "call aborted",
			"op", op,
			"caller", requestcontext.Caller(ctx).Hex(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	return err
}
