package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/resilience"
)

type fakePublisher struct {
	mu      sync.Mutex
	events  []kafka.Event
	batches int
	err     error
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches++
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *fakePublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestCollectorPublishesOnClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16, nil)
	c.Start(context.Background())
	for i := 0; i < 5; i++ {
		c.Track("doc", QueryEvent{Type: EventFrequency, Word: "baby"})
	}
	c.Close()
	if got := pub.published(); got != 5 {
		t.Errorf("published %d events, want 5", got)
	}
	if pub.events[0].Key != "doc" {
		t.Errorf("key = %q", pub.events[0].Key)
	}
	c.Track("doc", QueryEvent{}) // after Close: ignored, must not panic
}

func TestCollectorDropsWhenFull(t *testing.T) {
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped"})
	c := NewCollector(&fakePublisher{}, 2, nil).OnDrop(dropped)
	// not started: the buffer fills and further events are dropped
	for i := 0; i < 5; i++ {
		c.Track("doc", QueryEvent{Type: EventCloud})
	}
	if got := testutil.ToFloat64(dropped); got != 3 {
		t.Errorf("dropped = %v, want 3", got)
	}
}

func TestCollectorCircuitOpens(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	breaker := resilience.NewCircuitBreaker("test", resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped"})
	c := NewCollector(pub, 16, breaker).OnDrop(dropped)
	c.Start(context.Background())

	c.Track("doc", QueryEvent{Type: EventFrequency})
	deadline := time.Now().Add(2 * time.Second)
	for breaker.GetState() != resilience.StateOpen && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if breaker.GetState() != resilience.StateOpen {
		t.Fatal("breaker did not open")
	}
	c.Track("doc", QueryEvent{Type: EventFrequency})
	c.Close()

	pub.mu.Lock()
	batches := pub.batches
	pub.mu.Unlock()
	if batches != 1 {
		t.Errorf("publisher called %d times, want 1 (second batch short-circuited)", batches)
	}
	if got := testutil.ToFloat64(dropped); got != 2 {
		t.Errorf("dropped = %v, want 2", got)
	}
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator(2)
	events := []QueryEvent{
		{Type: EventFrequency, Word: "Baby", LatencyMs: 1},
		{Type: EventFrequency, Word: "baby", LatencyMs: 2},
		{Type: EventFrequency, Word: "shark", LatencyMs: 3},
		{Type: EventFrequency, Word: "do", LatencyMs: 4},
		{Type: EventTopWords, K: 2, Cached: true, CacheHit: true, LatencyMs: 5},
		{Type: EventCloud, K: 3, Cached: true, LatencyMs: 6},
	}
	for _, e := range events {
		agg.RecordQuery(e)
	}
	agg.RecordDocument(DocumentEvent{Type: EventDocumentLoaded})

	s := agg.Stats()
	if s.TotalQueries != 6 || s.FrequencyQueries != 4 || s.TopWordsQueries != 1 || s.CloudQueries != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.DocumentsLoaded != 1 {
		t.Errorf("documents = %d", s.DocumentsLoaded)
	}
	if s.CacheHits != 1 || s.CacheMisses != 1 {
		t.Errorf("cache hits=%d misses=%d", s.CacheHits, s.CacheMisses)
	}
	if s.AvgLatencyMs != 3.5 {
		t.Errorf("avg latency = %v", s.AvgLatencyMs)
	}
	if len(s.TopWords) != 2 || s.TopWords[0].Word != "baby" || s.TopWords[0].Count != 2 || s.TopWords[1].Word != "do" {
		t.Errorf("top words = %v", s.TopWords)
	}
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator(5)
	handle := HandleEvent(agg)
	msgs := []any{
		QueryEvent{Type: EventFrequency, Word: "shark"},
		DocumentEvent{Type: EventDocumentLoaded, DocumentID: "abc"},
		map[string]string{"type": "mystery"},
	}
	for _, m := range msgs {
		data, _ := json.Marshal(m)
		if err := handle(context.Background(), nil, data); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}
	if err := handle(context.Background(), nil, []byte("{not json")); err != nil {
		t.Fatalf("bad message should be acknowledged, got %v", err)
	}
	s := agg.Stats()
	if s.FrequencyQueries != 1 || s.DocumentsLoaded != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestHandlerWords(t *testing.T) {
	agg := NewAggregator(5)
	for _, w := range []string{"baby", "baby", "shark"} {
		agg.RecordQuery(QueryEvent{Type: EventFrequency, Word: w})
	}
	h := NewHandler(agg)

	tests := []struct {
		query  string
		status int
		body   string
	}{
		{"?k=1", http.StatusOK, "MostFrequentWords[\n   baby - 2\n]"},
		{"", http.StatusOK, "MostFrequentWords[\n   baby - 2\n   shark - 1\n]"},
		{"?k=0", http.StatusBadRequest, "MostFrequentWords[\n   Number of words must be greater than 0.\n]"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.Words(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/words"+tt.query, nil))
		if rec.Code != tt.status {
			t.Errorf("%q: status = %d", tt.query, rec.Code)
		}
		if rec.Body.String() != tt.body {
			t.Errorf("%q: body = %q", tt.query, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	h.Words(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/words?k=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-integer k: status = %d", rec.Code)
	}
}

func TestHandlerStats(t *testing.T) {
	h := NewHandler(NewAggregator(5))
	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	var s Stats
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if s.TopWords == nil {
		t.Error("top_words should encode as an empty list")
	}
}

func TestAggregatorIgnoresUncachedQueries(t *testing.T) {
	agg := NewAggregator(5)
	agg.RecordQuery(QueryEvent{Type: EventTopWords, K: 0})
	agg.RecordQuery(QueryEvent{Type: EventCloud, K: 4})
	agg.RecordQuery(QueryEvent{Type: EventTopWords, K: 4, Cached: true})

	s := agg.Stats()
	if s.TopWordsQueries != 2 || s.CloudQueries != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.CacheHits != 0 || s.CacheMisses != 1 {
		t.Errorf("cache hits=%d misses=%d, want 0/1", s.CacheHits, s.CacheMisses)
	}
}
