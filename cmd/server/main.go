package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"commitgood/internal/actions/donation"
	"commitgood/internal/ledger"
	"commitgood/internal/platform/config"
	"commitgood/internal/platform/httpserver"
	"commitgood/internal/platform/kafka"
	"commitgood/internal/platform/logger"
	"commitgood/internal/platform/metrics"
	platformredis "commitgood/internal/platform/redis"
	"commitgood/internal/ratelimit"
	"commitgood/internal/state"
	"commitgood/internal/state/memory"
	"commitgood/internal/state/postgres"
	httptransport "commitgood/internal/transport/http"
	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/audit/outbox"
	"commitgood/pkg/platform/audit/publishers/fanout"
	redispublisher "commitgood/pkg/platform/audit/publishers/redis"
	auditmemory "commitgood/pkg/platform/audit/store/memory"
	"commitgood/pkg/platform/audit/worker"
	"commitgood/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal component packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()
	fanoutMetrics := fanout.NewMetrics()
	health := map[string]httptransport.HealthCheck{}

	backend, closeBackend, err := openBackend(ctx, cfg, health)
	if err != nil {
		return err
	}
	defer closeBackend()

	recent := auditmemory.NewInMemoryStore(cfg.RecentEventsCapacity)
	fanoutOpts := []fanout.Option{
		fanout.WithLogger(log),
		fanout.WithMetrics(fanoutMetrics),
		fanout.WithInlineSink("recent", fanout.SinkFunc(func(ctx context.Context, logs []audit.Log) error {
			return recent.Append(ctx, logs...)
		})),
		fanout.WithInlineSink("metrics", m),
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		health["redis"] = redisClient.Health
		w := worker.NewWorker("redis", redispublisher.New(redisClient.Client, redisClient.Prefix()), 10000,
			worker.WithLogger(log),
			worker.WithMetrics(fanoutMetrics),
			worker.WithBreaker(circuit.New("redis", circuit.WithCooldown(10*time.Second))),
		)
		fanoutOpts = append(fanoutOpts, fanout.WithWorker(w))
	}
	publisher := fanout.NewPublisher(fanoutOpts...)

	exec, err := state.NewExecutor(ctx, backend,
		state.WithPublisher(publisher),
		state.WithTimeout(cfg.ExecuteTimeout),
		state.WithLogger(log),
		state.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	mode, err := donation.ParseMode(cfg.DonationMode)
	if err != nil {
		return err
	}
	l, err := ledger.New(exec, ledger.Config{
		Owner:        cfg.Owner,
		Deployer:     cfg.Deployer,
		DonationMode: mode,
		InitialRates: cfg.InitialRates,
		Logger:       log,
	})
	if err != nil {
		return err
	}
	if err := l.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap ledger: %w", err)
	}
	log.Info("ledger deployed",
		"owner", l.Owner.Hex(),
		"token", l.Addresses.Token.Hex(),
		"registry", l.Addresses.Registry.Hex(),
		"store_backend", cfg.StoreBackend,
		"donation_mode", string(mode),
	)

	limiter := newRateLimiter(cfg, redisClient, log)
	router := httptransport.NewRouter(httptransport.New(l, recent, log), httptransport.RouterConfig{
		AdminToken: cfg.AdminAPIToken,
		Health:     health,
		Metrics:    promhttp.Handler(),
		RateLimit:  limiter.Limit,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return publisher.Run(gctx)
	})
	if cfg.StoreBackend == config.StorePostgres {
		relay, closeRelay, err := openRelay(gctx, cfg, log, m)
		if err != nil {
			return err
		}
		if relay != nil {
			defer closeRelay()
			g.Go(func() error {
				return relay.Run(gctx)
			})
		}
	}
	g.Go(func() error {
		log.Info("starting commitgood", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openBackend(ctx context.Context, cfg config.Server, health map[string]httptransport.HealthCheck) (state.Backend, func(), error) {
	if cfg.StoreBackend != config.StorePostgres {
		return memory.New(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	backend := postgres.New(db)
	if err := backend.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	health["postgres"] = db.PingContext
	return backend, func() { _ = db.Close() }, nil
}

// newRateLimiter shares counters through Redis when it is configured and
// degrades to per-process counters while Redis is unreachable.
func newRateLimiter(cfg config.Server, redisClient *platformredis.Client, log *slog.Logger) *ratelimit.Middleware {
	memoryStore := ratelimit.NewMemoryStore(nil)
	opts := []ratelimit.Option{ratelimit.WithDisabled(cfg.RateLimit.Disabled)}
	var store ratelimit.Store = memoryStore
	if redisClient != nil {
		store = ratelimit.NewRedisStore(redisClient.Client, redisClient.Prefix())
		opts = append(opts, ratelimit.WithFallback(memoryStore,
			circuit.New("ratelimit", circuit.WithSuccessThreshold(3), circuit.WithCooldown(10*time.Second))))
	}
	return ratelimit.New(store, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, log, opts...)
}

// openRelay starts the outbox relay when Kafka is configured.
func openRelay(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*outbox.Relay, func(), error) {
	client, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("outbox relay disabled: no kafka brokers configured")
		return nil, nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("open outbox pool: %w", err)
	}
	relay, err := outbox.NewRelay(pool, client, cfg.Kafka.Topic,
		outbox.WithLogger(log),
		outbox.WithMetrics(m),
		outbox.WithInterval(cfg.Kafka.OutboxPollInterval),
		outbox.WithBatchSize(cfg.Kafka.OutboxBatchSize),
	)
	if err != nil {
		pool.Close()
		client.Close()
		return nil, nil, err
	}
	return relay, func() {
		pool.Close()
		client.Close()
	}, nil
}
