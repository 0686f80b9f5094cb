package consumer

import (
	"context"
	"log/slog"

	audit "commitgood/pkg/platform/audit"
)

// GovernanceHandler logs role, rate and pointer changes at Info.
type GovernanceHandler struct {
	logger *slog.Logger
}

func NewGovernanceHandler(logger *slog.Logger) *GovernanceHandler {
	return &GovernanceHandler{logger: logger}
}

func (h *GovernanceHandler) Handle(ctx context.Context, msg *Message) error {
	r, err := audit.DecodeRecord(msg.Value)
	if err != nil {
		h.logger.DebugContext(ctx, "skipping undecodable governance log", "error", err)
		return nil
	}
	h.logger.InfoContext(ctx, r.Name,
		"seq", r.Seq,
		"emitter", r.Emitter.Hex(),
		"tx_id", r.TxID.String(),
		"args", string(r.Args),
		"log_type", "governance",
	)
	return nil
}
