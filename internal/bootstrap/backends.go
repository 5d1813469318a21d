// Package bootstrap connects the optional backends shared by the CLI and
// the HTTP server. Each backend is enabled in config and degrades to nil
// when disabled or unreachable, so a missing Redis or Kafka never stops a
// report.
package bootstrap

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/archive"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/cloud"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/manager"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/resilience"
)

// Backends holds whichever optional backends came up.
type Backends struct {
	Redis     *pkgredis.Client
	Cache     *cache.ReportCache
	Producer  *kafka.Producer
	Collector *analytics.Collector
	Postgres  *postgres.Client
	Archive   *archive.Store

	closers []func()
}

// Connect brings up every enabled backend. Connection failures are logged
// and leave the backend nil. m may be nil.
func Connect(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *Backends {
	b := &Backends{}

	if cfg.Redis.Enabled {
		err := resilience.Retry(ctx, "redis-connect", resilience.RetryConfig{MaxAttempts: 3}, func() error {
			client, err := pkgredis.NewClient(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			b.Redis = client
			return nil
		})
		if err != nil {
			slog.Warn("redis unavailable, report caching disabled", "error", err)
		} else {
			b.Cache = cache.New(b.Redis, cfg.Redis.CacheTTL)
			if m != nil {
				b.Cache.Instrument(m.CacheHitsTotal, m.CacheMissesTotal)
			}
			b.closers = append(b.closers, func() { b.Redis.Close() })
			slog.Info("report cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		b.Producer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		breaker := resilience.NewCircuitBreaker("analytics-publish", resilience.CircuitBreakerConfig{
			OnStateChange: func(name string, state resilience.State) {
				if m != nil {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
				}
			},
		})
		b.Collector = analytics.NewCollector(b.Producer, cfg.Kafka.BufferSize, breaker)
		if m != nil {
			b.Collector.OnDrop(m.AnalyticsDroppedTotal)
		}
		b.Collector.Start(ctx)
		b.closers = append(b.closers, func() {
			b.Collector.Close()
			b.Producer.Close()
		})
		slog.Info("query analytics enabled", "topic", cfg.Kafka.Topics.QueryEvents)
	}

	if cfg.Postgres.Enabled {
		err := resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 3}, func() error {
			db, err := postgres.New(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			b.Postgres = db
			return nil
		})
		if err != nil {
			slog.Warn("postgres unavailable, cloud archive disabled", "error", err)
		} else {
			b.closers = append(b.closers, func() { b.Postgres.Close() })
			store := archive.NewStore(b.Postgres, cfg.Postgres.WriteTimeout)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Warn("cloud archive schema unavailable, archive disabled", "error", err)
			} else {
				b.Archive = store
				slog.Info("cloud archive enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
			}
		}
	}

	return b
}

// ManagerOptions wires the live backends into manager options.
func (b *Backends) ManagerOptions(cfg config.CloudConfig, m *metrics.Metrics) manager.Options {
	opts := manager.Options{
		Renderer: cloud.NewRenderer(cfg.MinFontSize, cfg.MaxFontSize),
		Title:    cfg.Title,
		Cache:    b.Cache,
		Metrics:  m,
	}
	// A nil pointer must stay a nil interface.
	if b.Collector != nil {
		opts.Tracker = b.Collector
	}
	if b.Archive != nil {
		opts.Archive = b.Archive
	}
	return opts
}

// RegisterHealth adds a check per backend. Optional backends degrade rather
// than fail readiness.
func (b *Backends) RegisterHealth(checker *health.Checker) {
	var redisPing, postgresPing func(context.Context) error
	if b.Redis != nil {
		redisPing = b.Redis.Ping
	}
	if b.Postgres != nil {
		postgresPing = b.Postgres.Ping
	}
	checker.Register("redis", health.PingCheck(redisPing, health.StatusDegraded))
	checker.Register("postgres", health.PingCheck(postgresPing, health.StatusDegraded))
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		if b.Collector == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: "collector active"}
	})
}

// Close shuts backends down in reverse order of startup.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
