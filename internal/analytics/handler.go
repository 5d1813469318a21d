package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/report"
)

type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves GET /api/v1/analytics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats())
}

// Words serves GET /api/v1/analytics/words?k=n: the n most-queried words as
// a text report.
func (h *Handler) Words(w http.ResponseWriter, r *http.Request) {
	k := h.aggregator.topN
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "k must be a whole number"})
			return
		}
		k = n
	}
	status := http.StatusOK
	if k <= 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(report.TopWordsReport(h.aggregator.QueriedWords(), nil, k))); err != nil {
		h.logger.Error("failed to write analytics report", "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
