package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestIDPropagatesHeader(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/top", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" {
		t.Errorf("context request id = %q", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("response header = %q", got)
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 32 {
		t.Errorf("generated id %q should be 32 hex chars", seen)
	}
}

func TestMetricsRecordsStatus(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/top?k=0", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/top", "400")); got != 1 {
		t.Errorf("requests for /api/v1/top = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "other", "400")); got != 1 {
		t.Errorf("requests for other = %v, want 1", got)
	}
}

func TestTimeoutWritesGatewayTimeout(t *testing.T) {
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cloud", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestTimeoutLateHandlerDoesNotLeak(t *testing.T) {
	finished := make(chan struct{})
	h := Timeout(5 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(finished)
		<-r.Context().Done()
		w.WriteHeader(http.StatusOK)
		// Keep touching the response until the timeout path has claimed it.
		deadline := time.Now().Add(time.Second)
		for i := 0; time.Now().Before(deadline); i++ {
			w.Header().Set("X-Late", strconv.Itoa(i))
			if _, err := w.Write([]byte("late")); err == http.ErrHandlerTimeout {
				return
			}
			time.Sleep(time.Millisecond)
		}
		t.Error("late writes never failed with ErrHandlerTimeout")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cloud", nil))
	<-finished

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	if got := rec.Header().Get("X-Late"); got != "" {
		t.Errorf("late handler header reached the client: X-Late=%q", got)
	}
	if strings.Contains(rec.Body.String(), "late") {
		t.Errorf("late handler body reached the client: %q", rec.Body.String())
	}
}

func TestTimeoutPassesCompletedResponse(t *testing.T) {
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("baby - 4"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/document", nil))
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "text/plain" || rec.Body.String() != "baby - 4" {
		t.Errorf("response = %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}

func TestLimiterRefills(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("10.0.0.1") {
		t.Error("third request should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}
	now = now.Add(30 * time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("half a window should refill one token")
	}
	now = now.Add(10 * time.Minute)
	l.sweep()
	if len(l.buckets) != 0 {
		t.Errorf("idle buckets = %d, want 0", len(l.buckets))
	}
}

func TestRateLimitOnlyGivenMethods(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	h := RateLimit(l, http.MethodPost)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/v1/document", nil)
		req.RemoteAddr = "192.0.2.7:5123"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	if rec := do(http.MethodPost); rec.Code != http.StatusOK {
		t.Fatalf("first POST = %d", rec.Code)
	}
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	for i := 0; i < 3; i++ {
		if rec := do(http.MethodGet); rec.Code != http.StatusOK {
			t.Errorf("GET = %d, should not be limited", rec.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	var reached bool
	h := CORS(DefaultCORSConfig([]string{"http://localhost:3000"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/top", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || reached {
		t.Errorf("preflight: status %d, reached %v", rec.Code, reached)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/top", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !reached {
		t.Error("request from unknown origin should still be served")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for unknown origin = %q", got)
	}
}
