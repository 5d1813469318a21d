// Package analytics records what users ask of loaded documents. The
// Collector publishes query events to Kafka off the request path; the
// Aggregator consumes them and ranks the most-queried words with the same
// top-K engine that ranks document words.
package analytics

import "time"

type EventType string

const (
	EventFrequency      EventType = "frequency"
	EventTopWords       EventType = "top_words"
	EventCloud          EventType = "cloud"
	EventDocumentLoaded EventType = "document_loaded"
)

// QueryEvent describes one frequency, top-K or cloud request. CacheHit is
// only meaningful when Cached reports that the report cache was consulted.
type QueryEvent struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	Word       string    `json:"word,omitempty"`
	K          int       `json:"k,omitempty"`
	Returned   int       `json:"returned"`
	Cached     bool      `json:"cached,omitempty"`
	CacheHit   bool      `json:"cache_hit"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

// DocumentEvent is emitted when a document replaces the current one.
type DocumentEvent struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	Source     string    `json:"source"`
	Tokens     int       `json:"tokens"`
	Vocabulary int       `json:"vocabulary"`
	Filtered   int       `json:"filtered"`
	Timestamp  time.Time `json:"timestamp"`
}

// envelope is decoded first to pick the concrete event type.
type envelope struct {
	Type EventType `json:"type"`
}
