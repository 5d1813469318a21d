// Package cache stores top-K rankings in Redis keyed by document content and
// k. Rankings are deterministic for a given document, so a cached entry
// never goes stale; invalidation only reclaims space.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
	pkgredis "github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/redis"
)

const keyPrefix = "wordcloud:top:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}

type ReportCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64

	hitCounter  Counter
	missCounter Counter
}

func New(store Store, ttl time.Duration) *ReportCache {
	return &ReportCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "report-cache"),
	}
}

// Instrument mirrors hit and miss counts into the given counters.
func (c *ReportCache) Instrument(hits, misses Counter) *ReportCache {
	c.hitCounter = hits
	c.missCounter = misses
	return c
}

func (c *ReportCache) Get(ctx context.Context, docID string, k int) (frequency.Ranking, bool) {
	key := buildKey(docID, k)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var ranking frequency.Ranking
	if err := json.Unmarshal([]byte(data), &ranking); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "document_id", docID, "k", k)
	return ranking, true
}

func (c *ReportCache) Set(ctx context.Context, docID string, k int, ranking frequency.Ranking) {
	key := buildKey(docID, k)
	data, err := json.Marshal(ranking)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached ranking or computes, stores and returns
// it. Concurrent misses for the same key share one computation. The bool
// reports a cache hit.
func (c *ReportCache) GetOrCompute(
	ctx context.Context,
	docID string,
	k int,
	computeFn func() (frequency.Ranking, error),
) (frequency.Ranking, bool, error) {
	if ranking, ok := c.Get(ctx, docID, k); ok {
		return ranking, true, nil
	}
	val, err, _ := c.group.Do(buildKey(docID, k), func() (any, error) {
		ranking, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, docID, k, ranking)
		return ranking, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(frequency.Ranking), false, nil
}

func (c *ReportCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating report cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

// Stats is the JSON view of cache counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

func (c *ReportCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *ReportCache) hit() {
	c.hits.Add(1)
	if c.hitCounter != nil {
		c.hitCounter.Inc()
	}
}

func (c *ReportCache) miss() {
	c.misses.Add(1)
	if c.missCounter != nil {
		c.missCounter.Inc()
	}
}

func buildKey(docID string, k int) string {
	hash := sha256.Sum256(fmt.Appendf(nil, "%s:k=%d", docID, k))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
