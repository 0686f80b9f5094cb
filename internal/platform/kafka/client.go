package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"commitgood/internal/platform/config"
	"commitgood/pkg/platform/audit/outbox"
)

// Client bundles the producer used by the outbox relay with an admin client.
type Client struct {
	*kgo.Client
	Admin *kadm.Client
}

// New connects to the configured brokers and makes sure the relay topic exists.
// Returns nil if no brokers are configured.
func New(ctx context.Context, cfg config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	adm := kadm.NewClient(cl)
	if err := outbox.EnsureTopic(ctx, adm, cfg.Topic, 3, 1); err != nil {
		cl.Close()
		return nil, err
	}
	return &Client{Client: cl, Admin: adm}, nil
}

// Health pings a seed broker.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}

// NewConsumer joins group on the configured topic. Offsets are committed by
// the caller after each record is handled.
func NewConsumer(ctx context.Context, cfg config.KafkaConfig, group string) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &Client{Client: cl, Admin: kadm.NewClient(cl)}, nil
}
