package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ReportsTotal.WithLabelValues(KindTopWords, "ok").Inc()
	m.ReportsTotal.WithLabelValues(KindTopWords, "ok").Inc()
	m.VocabularySize.Set(17)

	if got := testutil.ToFloat64(m.ReportsTotal.WithLabelValues(KindTopWords, "ok")); got != 2 {
		t.Errorf("reports_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.VocabularySize); got != 17 {
		t.Errorf("vocabulary_size = %v, want 17", got)
	}

	// A second registry must accept a second set of collectors.
	New(prometheus.NewRegistry())
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.DocumentsLoadedTotal.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "wordcloud_documents_loaded_total 1") {
		t.Errorf("scrape output missing counter:\n%s", body)
	}
}
