package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/resilience"
)

// Publisher is the subset of *kafka.Producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Add(float64)
}

// Collector buffers events in a channel and publishes them in batches
// behind a circuit breaker. Track never blocks: when the buffer is full,
// or the breaker is open, events are dropped and counted.
type Collector struct {
	publisher Publisher
	breaker   *resilience.CircuitBreaker
	batchSize int
	eventCh   chan kafka.Event
	dropped   Counter
	logger    *slog.Logger
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewCollector(publisher Publisher, bufferSize int, breaker *resilience.CircuitBreaker) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("analytics-publish", resilience.CircuitBreakerConfig{})
	}
	return &Collector{
		publisher: publisher,
		breaker:   breaker,
		batchSize: 100,
		eventCh:   make(chan kafka.Event, bufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

// OnDrop counts dropped events into c.
func (c *Collector) OnDrop(counter Counter) *Collector {
	c.dropped = counter
	return c
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, c.collect(event))
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues value under key, which Kafka uses for partitioning.
func (c *Collector) Track(key string, value any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- kafka.Event{Key: key, Value: value}:
	default:
		c.drop(1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the buffered ones to be
// published.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

// collect gathers first plus whatever is already buffered, up to batchSize.
func (c *Collector) collect(first kafka.Event) []kafka.Event {
	batch := []kafka.Event{first}
	for len(batch) < c.batchSize {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

func (c *Collector) publish(ctx context.Context, batch []kafka.Event) {
	err := c.breaker.Execute(func() error {
		return c.publisher.PublishBatch(ctx, batch)
	})
	if err == nil {
		return
	}
	c.drop(len(batch))
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Debug("analytics batch skipped (circuit open)", "events", len(batch))
		return
	}
	c.logger.Error("failed to publish analytics events", "events", len(batch), "error", err)
}

func (c *Collector) drainRemaining() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(ctx, c.collect(event))
		default:
			return
		}
	}
}

func (c *Collector) drop(n int) {
	if c.dropped != nil {
		c.dropped.Add(float64(n))
	}
}
