package consumer

import (
	"context"
	"log/slog"

	audit "commitgood/pkg/platform/audit"
)

// Router dispatches messages by the category of their event header. Every
// handler registered for a category runs, in registration order.
type Router struct {
	handlers map[audit.EventCategory][]Handler
	fallback Handler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback Handler) *Router {
	return &Router{
		handlers: make(map[audit.EventCategory][]Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds handlers for a category.
func (r *Router) Register(category audit.EventCategory, handlers ...Handler) {
	r.handlers[category] = append(r.handlers[category], handlers...)
}

// Handle routes msg. Messages nobody handles are skipped so their offsets
// still commit.
func (r *Router) Handle(ctx context.Context, msg *Message) error {
	handlers, ok := r.handlers[audit.CategoryOf(msg.Event())]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		r.logger.WarnContext(ctx, "no handler for event, skipping message",
			"event", msg.Event(),
			"key", string(msg.Key),
		)
		return nil
	}
	for _, h := range handlers {
		if err := h.Handle(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
