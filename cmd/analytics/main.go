// Command analytics consumes word-cloud query events from Kafka, aggregates
// them in memory and serves the totals and the most-queried words.
//
// Endpoints:
//
//	GET /api/v1/analytics          aggregated stats (JSON)
//	GET /api/v1/analytics/words?k= most-queried words (text report)
//
// It listens on analytics.port. When PostgreSQL is enabled, stats are
// snapshotted every analytics.snapshotInterval.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/analytics/snapshot"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdownMetrics(context.Background())
	}

	aggregator := analytics.NewAggregator(cfg.Cloud.DefaultWords)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, analytics.HandleEvent(aggregator))
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics consumer started", "topic", cfg.Kafka.Topics.QueryEvents)

	checker := health.NewChecker()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		select {
		case <-consumerDone:
			return health.ComponentHealth{Status: health.StatusDown, Message: "consumer stopped"}
		default:
			return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
		}
	})

	var postgresPing func(context.Context) error
	if cfg.Postgres.Enabled {
		var db *postgres.Client
		err := resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 3}, func() error {
			var err error
			db, err = postgres.New(ctx, cfg.Postgres)
			return err
		})
		if err != nil {
			slog.Warn("postgres unavailable, snapshots disabled", "error", err)
		} else {
			defer db.Close()
			postgresPing = db.Ping
			store := snapshot.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Warn("snapshot schema unavailable, snapshots disabled", "error", err)
			} else {
				if latest, err := store.LatestSnapshot(ctx); err != nil {
					slog.Warn("could not read latest snapshot", "error", err)
				} else if latest != nil {
					slog.Info("previous snapshot found", "total_queries", latest.TotalQueries)
				}
				store.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)
			}
		}
	}
	checker.Register("postgres", health.PingCheck(postgresPing, health.StatusDegraded))

	h := analytics.NewHandler(aggregator)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/words", h.Words)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if len(cfg.Server.CORSOrigins) > 0 {
		chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins))(chain)
	}
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	<-consumerDone
	slog.Info("analytics service stopped")
}
