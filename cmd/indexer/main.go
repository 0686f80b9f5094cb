package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"commitgood/internal/platform/config"
	"commitgood/internal/platform/httpserver"
	"commitgood/internal/platform/kafka"
	"commitgood/internal/platform/logger"
	"commitgood/internal/platform/metrics"
	httptransport "commitgood/internal/transport/http"
	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/audit/consumer"
	"commitgood/pkg/platform/audit/store/index"
	request "commitgood/pkg/platform/middleware/request"
)

// main runs the log indexer: it reads the relayed log topic and keeps the
// indexed_events table current.
func main() {
	cfg, err := config.IndexerFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("indexer stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Indexer, log *slog.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open index pool: %w", err)
	}
	defer pool.Close()

	store := index.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	last, err := store.LastSeq(ctx)
	if err != nil {
		return err
	}

	client, err := kafka.NewConsumer(ctx, cfg.Kafka, cfg.ConsumerGroup)
	if err != nil {
		return err
	}
	defer client.Close()

	indexHandler := consumer.NewIndexHandler(store, log)
	router := consumer.NewRouter(log, indexHandler)
	router.Register(audit.CategoryGovernance, indexHandler, consumer.NewGovernanceHandler(log))

	reg := prometheus.NewRegistry()
	m := metrics.NewIndexer(reg)
	c, err := consumer.New(client, router, consumer.WithLogger(log), consumer.WithMetrics(m))
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Get("/health", httptransport.HealthHandler(map[string]httptransport.HealthCheck{
		"postgres": pool.Ping,
		"kafka":    client.Health,
	}))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := httpserver.New(cfg.Addr, r)

	log.Info("starting indexer",
		"topic", cfg.Kafka.Topic,
		"group", cfg.ConsumerGroup,
		"last_indexed_seq", last,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
