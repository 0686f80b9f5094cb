//go:build integration

package consumer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/audit/consumer"
	"commitgood/pkg/platform/audit/outbox"
	"commitgood/pkg/platform/audit/store/index"
	"commitgood/pkg/testutil/containers"
)

type pinged struct {
	N uint64 `json:"n"`
}

func (pinged) EventName() string { return "Pinged" }
func (pinged) Signature() string { return "Pinged(uint256)" }

type IndexerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	pool     *pgxpool.Pool
	store    *index.Store
	producer *kgo.Client
}

func TestIndexerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(IndexerSuite))
}

func (s *IndexerSuite) SetupSuite() {
	ctx := context.Background()
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())

	var err error
	s.pool, err = pgxpool.New(ctx, s.postgres.DSN)
	s.Require().NoError(err)
	s.store = index.New(s.pool)
	s.Require().NoError(s.store.EnsureSchema(ctx))

	s.producer, err = kgo.NewClient(kgo.SeedBrokers(s.redpanda.Brokers...))
	s.Require().NoError(err)
}

func (s *IndexerSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *IndexerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "indexed_events"))
}

func (s *IndexerSuite) produce(topic string, n int) {
	emitter := common.HexToAddress("0x00000000000000000000000000000000000000e1")
	records := make([]*kgo.Record, 0, n)
	for i := range n {
		l := audit.NewLog(emitter, pinged{N: uint64(i + 1)})
		l.Seq = uint64(i + 1)
		l.TxID = uuid.New()
		l.Timestamp = time.Now().UTC()
		payload, err := json.Marshal(l)
		s.Require().NoError(err)
		records = append(records, &kgo.Record{
			Topic:   topic,
			Key:     []byte(emitter.Hex()),
			Value:   payload,
			Headers: []kgo.RecordHeader{{Key: consumer.HeaderEvent, Value: []byte(l.Name)}},
		})
	}
	s.Require().NoError(s.producer.ProduceSync(context.Background(), records...).FirstErr())
}

func (s *IndexerSuite) TestIndexesRelayedLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := fmt.Sprintf("commitgood-index-%s", uuid.NewString()[:8])
	s.Require().NoError(outbox.EnsureTopic(ctx, kadm.NewClient(s.producer), topic, 1, 1))
	s.produce(topic, 3)

	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumerGroup("indexer-"+topic),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	s.Require().NoError(err)
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := consumer.New(client, consumer.NewRouter(logger, consumer.NewIndexHandler(s.store, logger)),
		consumer.WithLogger(logger))
	s.Require().NoError(err)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- c.Run(runCtx) }()

	s.Eventually(func() bool {
		last, err := s.store.LastSeq(ctx)
		return err == nil && last == 3
	}, 20*time.Second, 200*time.Millisecond)

	stop()
	s.NoError(<-done)

	rows, err := s.store.ListByEvent(ctx, "Pinged", 10)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.JSONEq(`{"n":3}`, string(rows[2].Args))
}
