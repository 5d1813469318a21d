package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/archive"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/document"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/manager"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/metrics"
)

const babyShark = "Baby shark, do do do do do do\nBaby shark, do do do do do do\nBaby shark, do do do do do do\nBaby shark!\n"

func newTestServer(t *testing.T, clouds ArchiveReader) (*Handler, *httptest.Server) {
	t.Helper()
	cfg := config.CloudConfig{DefaultWords: 2, MaxWords: 3, MinFontSize: 12, MaxFontSize: 72}
	h := New(cfg, manager.Options{}, clouds)
	checker := health.NewChecker()
	checker.Register("document", h.DocumentCheck())
	serverCfg := config.ServerConfig{
		WriteTimeout:     5 * time.Second,
		UploadsPerMinute: 5,
		CORSOrigins:      []string{"http://localhost:3000"},
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := httptest.NewServer(NewRouter(ctx, h, checker, metrics.New(prometheus.NewRegistry()), serverCfg))
	t.Cleanup(srv.Close)
	return h, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("decoding %q: %v", body, err)
	}
	return v
}

func TestNoDocument(t *testing.T) {
	_, srv := newTestServer(t, nil)
	resp, _ := get(t, srv.URL+"/api/v1/top")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("top status = %d", resp.StatusCode)
	}
	resp, _ = get(t, srv.URL+"/health/ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d", resp.StatusCode)
	}
}

func TestLoadAndQuery(t *testing.T) {
	_, srv := newTestServer(t, nil)

	body := `{"text": ` + mustJSON(babyShark) + `, "filter": ["do"]}`
	resp, err := http.Post(srv.URL+"/api/v1/document", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("load status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	resp, out := get(t, srv.URL+"/api/v1/frequency?word=Baby")
	freq := decode[manager.FrequencyResult](t, out)
	if resp.StatusCode != http.StatusOK || freq.Count != 4 || freq.Report != "The word (Baby) is contained in the text 4 times." {
		t.Errorf("frequency = %d %+v", resp.StatusCode, freq)
	}

	_, out = get(t, srv.URL+"/api/v1/frequency?word=do")
	if decode[manager.FrequencyResult](t, out).Count != 0 {
		t.Errorf("filtered word counted: %s", out)
	}

	_, out = get(t, srv.URL+"/api/v1/top")
	top := decode[topResponse](t, out)
	if top.K != 2 || len(top.Entries) != 2 || top.Report != "MostFrequentWords[\n   baby - 4\n   shark - 4\n]" {
		t.Errorf("top = %+v", top)
	}

	_, out = get(t, srv.URL+"/api/v1/top?k=100")
	if top := decode[topResponse](t, out); top.K != 3 {
		t.Errorf("k not clamped: %+v", top)
	}

	resp, out = get(t, srv.URL+"/api/v1/document")
	sum := decode[document.Summary](t, out)
	if resp.StatusCode != http.StatusOK || sum.Tokens != 26 || sum.Vocabulary != 3 || sum.Filtered != 1 {
		t.Errorf("summary = %+v", sum)
	}

	resp, _ = get(t, srv.URL+"/health/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d", resp.StatusCode)
	}
}

func TestTopValidation(t *testing.T) {
	h, srv := newTestServer(t, nil)
	h.Swap(manager.New(document.FromText("t", babyShark, nil), manager.Options{}))

	resp, out := get(t, srv.URL+"/api/v1/top?k=0")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
	got := decode[map[string]string](t, out)
	if got["report"] != "MostFrequentWords[\n   Number of words must be greater than 0.\n]" {
		t.Errorf("report = %q", got["report"])
	}

	resp, _ = get(t, srv.URL+"/api/v1/top?k=two")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-integer status = %d", resp.StatusCode)
	}

	resp, _ = get(t, srv.URL+"/api/v1/frequency")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing word status = %d", resp.StatusCode)
	}
}

func TestCloud(t *testing.T) {
	h, srv := newTestServer(t, nil)
	h.Swap(manager.New(document.FromText("t", babyShark, nil), manager.Options{}))

	resp, out := get(t, srv.URL+"/api/v1/cloud?k=1")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("status=%d type=%s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(out, ">do<") || strings.Contains(out, ">baby<") {
		t.Errorf("cloud body: %s", out)
	}

	resp, _ = get(t, srv.URL+"/api/v1/cloud?k=-1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid k status = %d", resp.StatusCode)
	}
}

func TestLoadDocumentRejectsBadBodies(t *testing.T) {
	_, srv := newTestServer(t, nil)
	for _, body := range []string{"{", `{"text": ""}`} {
		resp, err := http.Post(srv.URL+"/api/v1/document", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%q: status = %d", body, resp.StatusCode)
		}
	}
}

func TestUploadsAreRateLimited(t *testing.T) {
	_, srv := newTestServer(t, nil)
	var last int
	for i := 0; i < 6; i++ {
		resp, err := http.Post(srv.URL+"/api/v1/document", "application/json", strings.NewReader("{"))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth upload status = %d, want 429", last)
	}
	if resp, _ := get(t, srv.URL+"/health/live"); resp.StatusCode != http.StatusOK {
		t.Errorf("GET after limit = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/top", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestCacheDisabled(t *testing.T) {
	_, srv := newTestServer(t, nil)
	_, out := get(t, srv.URL+"/api/v1/cache/stats")
	if decode[map[string]string](t, out)["status"] != "disabled" {
		t.Errorf("stats = %s", out)
	}
	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("invalidate status = %d", resp.StatusCode)
	}
}

type fakeClouds struct {
	gotDoc string
}

func (f *fakeClouds) List(_ context.Context, documentID string, limit int) ([]archive.Record, error) {
	f.gotDoc = documentID
	return []archive.Record{{ID: 1, DocumentID: documentID, K: 2, Ranking: frequency.Ranking{{Word: "do", Count: 18}}}}, nil
}

func TestClouds(t *testing.T) {
	clouds := &fakeClouds{}
	h, srv := newTestServer(t, clouds)
	doc := document.FromText("t", babyShark, nil)
	h.Swap(manager.New(doc, manager.Options{}))

	resp, out := get(t, srv.URL+"/api/v1/clouds")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if clouds.gotDoc != doc.ID {
		t.Errorf("listed document %q, want %q", clouds.gotDoc, doc.ID)
	}
	if recs := decode[[]archive.Record](t, out); len(recs) != 1 {
		t.Errorf("records = %+v", recs)
	}

	resp, _ = get(t, srv.URL+"/api/v1/clouds?limit=0")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", resp.StatusCode)
	}
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
