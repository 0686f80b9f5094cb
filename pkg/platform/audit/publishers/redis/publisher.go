// Package redis publishes committed logs on Redis pub/sub channels so that
// live observers can follow the ledger without polling.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/sentinel"
)

const defaultPrefix = "commitgood"

// Publisher writes each log to "<prefix>:events" and "<prefix>:events:<EventName>".
type Publisher struct {
	client redis.UniversalClient
	prefix string
}

// New creates a Redis log publisher. An empty prefix uses "commitgood".
func New(client redis.UniversalClient, prefix string) *Publisher {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Publisher{client: client, prefix: prefix}
}

// AllChannel is the channel that carries every log.
func (p *Publisher) AllChannel() string {
	return p.prefix + ":events"
}

// EventChannel is the channel that carries logs of one event name.
func (p *Publisher) EventChannel(name string) string {
	return p.prefix + ":events:" + name
}

// Deliver publishes a batch in one pipeline, preserving order per channel.
func (p *Publisher) Deliver(ctx context.Context, logs []audit.Log) error {
	if len(logs) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, l := range logs {
		payload, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal log %d: %w", l.Seq, err)
		}
		pipe.Publish(ctx, p.AllChannel(), payload)
		pipe.Publish(ctx, p.EventChannel(l.Name), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish logs: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
