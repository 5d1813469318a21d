package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/kafka"
)

const maxLatencySamples = 10000

type Stats struct {
	TotalQueries     int64             `json:"total_queries"`
	FrequencyQueries int64             `json:"frequency_queries"`
	TopWordsQueries  int64             `json:"top_words_queries"`
	CloudQueries     int64             `json:"cloud_queries"`
	DocumentsLoaded  int64             `json:"documents_loaded"`
	CacheHits        int64             `json:"cache_hits"`
	CacheMisses      int64             `json:"cache_misses"`
	AvgLatencyMs     float64           `json:"avg_latency_ms"`
	P50LatencyMs     int64             `json:"p50_latency_ms"`
	P95LatencyMs     int64             `json:"p95_latency_ms"`
	P99LatencyMs     int64             `json:"p99_latency_ms"`
	TopWords         []frequency.Entry `json:"top_words"`
	QueriesPerMinute float64           `json:"queries_per_minute"`
}

// Aggregator folds query events into running totals. The most-queried
// words are kept as raw counts and ranked on demand with frequency.Select.
type Aggregator struct {
	mu          sync.RWMutex
	byType      map[EventType]int64
	cacheHits   int64
	cacheMisses int64
	latencies   []int64
	next        int
	wordCounts  map[string]int
	topN        int
	startTime   time.Time
	logger      *slog.Logger
}

func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		byType:     make(map[EventType]int64),
		latencies:  make([]int64, 0, 1024),
		wordCounts: make(map[string]int),
		topN:       topN,
		startTime:  time.Now(),
		logger:     slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent adapts the aggregator into a Kafka message handler. Undecodable
// messages are logged and acknowledged so they do not block the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		env, err := kafka.DecodeJSON[envelope](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		switch env.Type {
		case EventDocumentLoaded:
			event, err := kafka.DecodeJSON[DocumentEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode document event", "error", err)
				return nil
			}
			agg.RecordDocument(event)
		case EventFrequency, EventTopWords, EventCloud:
			event, err := kafka.DecodeJSON[QueryEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode query event", "error", err)
				return nil
			}
			agg.RecordQuery(event)
		default:
			agg.logger.Warn("unknown analytics event type", "type", env.Type)
		}
		return nil
	}
}

func (a *Aggregator) RecordQuery(event QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byType[event.Type]++
	if event.Cached {
		if event.CacheHit {
			a.cacheHits++
		} else {
			a.cacheMisses++
		}
	}
	if event.Word != "" {
		a.wordCounts[frequency.Normalize(event.Word)]++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % maxLatencySamples
	}
}

func (a *Aggregator) RecordDocument(event DocumentEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byType[EventDocumentLoaded]++
}

// QueriedWords returns a snapshot table of how often each word was asked
// about.
func (a *Aggregator) QueriedWords() *frequency.Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return frequency.FromCounts(a.wordCounts)
}

func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	stats := Stats{
		FrequencyQueries: a.byType[EventFrequency],
		TopWordsQueries:  a.byType[EventTopWords],
		CloudQueries:     a.byType[EventCloud],
		DocumentsLoaded:  a.byType[EventDocumentLoaded],
		CacheHits:        a.cacheHits,
		CacheMisses:      a.cacheMisses,
	}
	sorted := make([]int64, len(a.latencies))
	copy(sorted, a.latencies)
	words := frequency.FromCounts(a.wordCounts)
	a.mu.RUnlock()

	stats.TotalQueries = stats.FrequencyQueries + stats.TopWordsQueries + stats.CloudQueries
	if len(sorted) > 0 {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	top, _ := frequency.Select(words, nil, a.topN)
	stats.TopWords = []frequency.Entry(top)
	if stats.TopWords == nil {
		stats.TopWords = []frequency.Entry{}
	}
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
