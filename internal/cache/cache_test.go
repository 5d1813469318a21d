package cache

import (
	"context"
	"errors"
	"path"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
)

type fakeStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

var ranking = frequency.Ranking{{Word: "do", Count: 18}, {Word: "baby", Count: 4}}

func TestGetOrCompute(t *testing.T) {
	c := New(newFakeStore(), time.Minute)
	ctx := context.Background()
	calls := 0
	compute := func() (frequency.Ranking, error) {
		calls++
		return ranking, nil
	}

	got, hit, err := c.GetOrCompute(ctx, "doc", 2, compute)
	if err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	if !reflect.DeepEqual(got, ranking) {
		t.Errorf("got %v", got)
	}

	got, hit, err = c.GetOrCompute(ctx, "doc", 2, compute)
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
	if !reflect.DeepEqual(got, ranking) {
		t.Errorf("cached %v", got)
	}
	if calls != 1 {
		t.Errorf("compute called %d times", calls)
	}

	if _, hit, _ := c.GetOrCompute(ctx, "doc", 3, compute); hit {
		t.Error("different k should miss")
	}
	if _, hit, _ := c.GetOrCompute(ctx, "other", 2, compute); hit {
		t.Error("different document should miss")
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 3 {
		t.Errorf("stats = %+v", s)
	}
}

func TestGetOrComputeError(t *testing.T) {
	c := New(newFakeStore(), time.Minute)
	want := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "doc", 1, func() (frequency.Ranking, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := c.Get(context.Background(), "doc", 1); ok {
		t.Error("failed computation was cached")
	}
}

func TestStoreFailureIsAMiss(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	c := New(store, time.Minute)
	if _, ok := c.Get(context.Background(), "doc", 1); ok {
		t.Fatal("expected miss")
	}
	if c.Stats().Misses != 1 {
		t.Error("miss not counted")
	}
}

func TestConcurrentMissesShareComputation(t *testing.T) {
	c := New(newFakeStore(), time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (frequency.Ranking, error) {
		calls.Add(1)
		<-release
		return ranking, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.GetOrCompute(context.Background(), "doc", 2, compute); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Errorf("compute ran %d times", n)
	}
}

func TestInvalidate(t *testing.T) {
	store := newFakeStore()
	store.data["unrelated"] = "x"
	c := New(store, time.Minute)
	c.Set(context.Background(), "a", 1, ranking)
	c.Set(context.Background(), "b", 1, ranking)
	n, err := c.Invalidate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted %d", n)
	}
	if _, ok := store.data["unrelated"]; !ok {
		t.Error("foreign key removed")
	}
}

func TestInstrument(t *testing.T) {
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "h"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "m"})
	c := New(newFakeStore(), time.Minute).Instrument(hits, misses)
	c.Get(context.Background(), "doc", 1)
	c.Set(context.Background(), "doc", 1, ranking)
	c.Get(context.Background(), "doc", 1)
	if testutil.ToFloat64(hits) != 1 || testutil.ToFloat64(misses) != 1 {
		t.Errorf("hits=%v misses=%v", testutil.ToFloat64(hits), testutil.ToFloat64(misses))
	}
}
