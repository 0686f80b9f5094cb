package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "commitgood/pkg/platform/audit"
)

// =============================================================================
// Consumer Test Suite
// =============================================================================
// Justification: offset commits must stop at the first failed record, which
// needs a scripted client to observe.

type pinged struct {
	N uint64 `json:"n"`
}

func (pinged) EventName() string { return "Pinged" }
func (pinged) Signature() string { return "Pinged(uint256)" }

type scriptedClient struct {
	mu        sync.Mutex
	batches   []kgo.Fetches
	committed []int64
	cancel    context.CancelFunc
}

func (c *scriptedClient) PollFetches(ctx context.Context) kgo.Fetches {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.batches) == 0 {
		c.cancel()
		return nil
	}
	next := c.batches[0]
	c.batches = c.batches[1:]
	return next
}

func (c *scriptedClient) CommitRecords(_ context.Context, rs ...*kgo.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range rs {
		c.committed = append(c.committed, r.Offset)
	}
	return nil
}

type countingMetrics struct {
	consumed int
	failures int
}

func (m *countingMetrics) IncConsumed(n int)   { m.consumed += n }
func (m *countingMetrics) IncConsumeFailures() { m.failures++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(t *testing.T, offset int64, seq uint64, ev audit.Event) *kgo.Record {
	t.Helper()
	emitter := common.HexToAddress("0x00000000000000000000000000000000000000e1")
	l := audit.NewLog(emitter, ev)
	l.Seq = seq
	l.TxID = uuid.New()
	l.Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	payload, err := json.Marshal(l)
	require.NoError(t, err)
	return &kgo.Record{
		Topic:   "commitgood.events",
		Offset:  offset,
		Key:     []byte(emitter.Hex()),
		Value:   payload,
		Headers: []kgo.RecordHeader{{Key: HeaderEvent, Value: []byte(ev.EventName())}},
	}
}

func batch(records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "commitgood.events",
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: records}},
	}}}}
}

type ConsumerSuite struct {
	suite.Suite
	ctx     context.Context
	client  *scriptedClient
	metrics *countingMetrics
}

func TestConsumerSuite(t *testing.T) {
	suite.Run(t, new(ConsumerSuite))
}

func (s *ConsumerSuite) SetupTest() {
	ctx, cancel := context.WithCancel(context.Background())
	s.T().Cleanup(cancel)
	s.ctx = ctx
	s.client = &scriptedClient{cancel: cancel}
	s.metrics = &countingMetrics{}
}

func (s *ConsumerSuite) run(h Handler) error {
	c, err := New(s.client, h, WithLogger(discardLogger()), WithMetrics(s.metrics))
	s.Require().NoError(err)
	return c.Run(s.ctx)
}

func (s *ConsumerSuite) TestNewValidatesArguments() {
	_, err := New(nil, HandlerFunc(func(context.Context, *Message) error { return nil }))
	s.Error(err)
	_, err = New(s.client, nil)
	s.Error(err)
}

func (s *ConsumerSuite) TestHandlesAndCommitsEveryRecord() {
	t := s.T()
	s.client.batches = []kgo.Fetches{
		batch(record(t, 0, 1, pinged{N: 1}), record(t, 1, 2, pinged{N: 2})),
		batch(record(t, 2, 3, pinged{N: 3})),
	}

	var seen []string
	err := s.run(HandlerFunc(func(_ context.Context, msg *Message) error {
		seen = append(seen, msg.Event())
		return nil
	}))
	s.Require().NoError(err)

	s.Equal([]string{"Pinged", "Pinged", "Pinged"}, seen)
	s.Equal([]int64{0, 1, 2}, s.client.committed)
	s.Equal(3, s.metrics.consumed)
	s.Zero(s.metrics.failures)
}

func (s *ConsumerSuite) TestStopsBeforeFailedRecord() {
	t := s.T()
	s.client.batches = []kgo.Fetches{
		batch(record(t, 0, 1, pinged{N: 1}), record(t, 1, 2, pinged{N: 2}), record(t, 2, 3, pinged{N: 3})),
	}

	err := s.run(HandlerFunc(func(_ context.Context, msg *Message) error {
		if msg.Offset == 1 {
			return errors.New("store down")
		}
		return nil
	}))
	s.Require().Error(err)
	s.Contains(err.Error(), "store down")

	s.Equal([]int64{0}, s.client.committed, "offsets after the failure stay uncommitted")
	s.Equal(1, s.metrics.failures)
}

func TestRouter(t *testing.T) {
	var calls []string
	named := func(name string) Handler {
		return HandlerFunc(func(context.Context, *Message) error {
			calls = append(calls, name)
			return nil
		})
	}
	msg := func(event string) *Message {
		return &Message{Headers: map[string]string{HeaderEvent: event}}
	}

	t.Run("runs every handler of the category in order", func(t *testing.T) {
		calls = nil
		r := NewRouter(discardLogger(), nil)
		r.Register(audit.CategoryGovernance, named("index"), named("governance"))
		r.Register(audit.CategoryLedger, named("index"))

		require.NoError(t, r.Handle(context.Background(), msg("MintAgentChanged")))
		assert.Equal(t, []string{"index", "governance"}, calls)
	})

	t.Run("unrouted category uses the fallback", func(t *testing.T) {
		calls = nil
		r := NewRouter(discardLogger(), named("fallback"))
		r.Register(audit.CategoryLedger, named("index"))

		require.NoError(t, r.Handle(context.Background(), msg("VolunteerVerify")))
		assert.Equal(t, []string{"fallback"}, calls)
	})

	t.Run("unrouted category without fallback is skipped", func(t *testing.T) {
		calls = nil
		r := NewRouter(discardLogger(), nil)
		assert.NoError(t, r.Handle(context.Background(), msg("Transfer")))
		assert.Empty(t, calls)
	})

	t.Run("handler error stops the chain", func(t *testing.T) {
		calls = nil
		r := NewRouter(discardLogger(), nil)
		r.Register(audit.CategoryLedger,
			HandlerFunc(func(context.Context, *Message) error { return errors.New("boom") }),
			named("never"))
		assert.Error(t, r.Handle(context.Background(), msg("Mint")))
		assert.Empty(t, calls)
	})
}

type memoryIndex struct {
	records []audit.Record
	err     error
}

func (m *memoryIndex) AppendIndexed(_ context.Context, r audit.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

func TestIndexHandler(t *testing.T) {
	t.Run("indexes decoded logs", func(t *testing.T) {
		store := &memoryIndex{}
		h := NewIndexHandler(store, discardLogger())
		rec := record(t, 0, 7, pinged{N: 7})

		require.NoError(t, h.Handle(context.Background(), toMessage(rec)))
		require.Len(t, store.records, 1)
		assert.Equal(t, uint64(7), store.records[0].Seq)
		assert.Equal(t, "Pinged", store.records[0].Name)
		assert.JSONEq(t, `{"n":7}`, string(store.records[0].Args))
	})

	t.Run("skips undecodable payloads", func(t *testing.T) {
		store := &memoryIndex{}
		h := NewIndexHandler(store, discardLogger())
		assert.NoError(t, h.Handle(context.Background(), &Message{Value: []byte("garbage")}))
		assert.Empty(t, store.records)
	})

	t.Run("store errors are returned for redelivery", func(t *testing.T) {
		h := NewIndexHandler(&memoryIndex{err: errors.New("db down")}, discardLogger())
		err := h.Handle(context.Background(), toMessage(record(t, 0, 1, pinged{N: 1})))
		assert.ErrorContains(t, err, "db down")
	})
}

func TestGovernanceHandlerNeverFails(t *testing.T) {
	h := NewGovernanceHandler(discardLogger())
	assert.NoError(t, h.Handle(context.Background(), &Message{Value: []byte("garbage")}))
	assert.NoError(t, h.Handle(context.Background(), toMessage(record(t, 0, 1, pinged{N: 1}))))
}
