package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
	"commitgood/pkg/platform/circuit"
	"commitgood/pkg/platform/httputil"
	"commitgood/pkg/platform/middleware/metadata"
	request "commitgood/pkg/platform/middleware/request"
	"commitgood/pkg/requestcontext"
)

// HeaderStatus is set to "degraded" while the primary store is bypassed.
const HeaderStatus = "X-RateLimit-Status"

// Middleware enforces one limit per caller across all routes it wraps.
type Middleware struct {
	store    Store
	fallback Store
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	logger   *slog.Logger
	disabled bool
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithFallback serves checks from fallback while the breaker is open.
func WithFallback(fallback Store, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = breaker
	}
}

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

// New creates a limiter admitting limit requests per window and key.
func New(store Store, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fallback == nil {
		m.breaker = nil
	}
	if m.limit <= 0 || m.store == nil {
		m.disabled = true
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit wraps next. Callers set by auth.RequireCaller are limited by address;
// anything else by client IP.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := keyFor(r)

		store := m.store
		degraded := false
		if m.breaker != nil && m.breaker.IsOpen() && !m.breaker.Allow() {
			store = m.fallback
			degraded = true
		}

		result, err := store.Allow(ctx, key, m.limit, m.window)
		if !degraded && m.breaker != nil {
			if err != nil {
				if _, change := m.breaker.RecordFailure(); change.Opened {
					m.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback", "error", err)
				}
				result, err = m.fallback.Allow(ctx, key, m.limit, m.window)
				degraded = true
			} else if _, change := m.breaker.RecordSuccess(); change.Closed {
				m.logger.InfoContext(ctx, "rate limit store recovered")
			}
		}
		if err != nil {
			// Fail open.
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"key", key,
				"request_id", request.GetRequestID(ctx),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		if degraded {
			w.Header().Set(HeaderStatus, "degraded")
		}
		addHeaders(w, result)
		if !result.Allowed {
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"key", key,
				"request_id", request.GetRequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func keyFor(r *http.Request) string {
	if caller := requestcontext.Caller(r.Context()); !domain.IsZeroAddress(caller) {
		return "caller:" + caller.Hex()
	}
	ip := metadata.GetClientIP(r.Context())
	if ip == "" {
		ip = metadata.ClientIPFromRequest(r)
	}
	return "ip:" + ip
}

func addHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
