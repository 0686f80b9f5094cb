package consumer

import (
	"context"
	"fmt"
	"log/slog"

	audit "commitgood/pkg/platform/audit"
)

// IndexStore persists decoded logs. Appending a sequence number twice must
// be a no-op.
type IndexStore interface {
	AppendIndexed(ctx context.Context, r audit.Record) error
}

// IndexHandler writes every decodable log to an IndexStore.
type IndexHandler struct {
	store  IndexStore
	logger *slog.Logger
}

func NewIndexHandler(store IndexStore, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{store: store, logger: logger}
}

// Handle skips undecodable payloads and fails on store errors so the record
// is redelivered.
func (h *IndexHandler) Handle(ctx context.Context, msg *Message) error {
	r, err := audit.DecodeRecord(msg.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "skipping undecodable log",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if err := h.store.AppendIndexed(ctx, r); err != nil {
		return fmt.Errorf("index log %d: %w", r.Seq, err)
	}
	h.logger.DebugContext(ctx, "indexed log",
		"seq", r.Seq,
		"event", r.Name,
		"emitter", r.Emitter.Hex(),
	)
	return nil
}
