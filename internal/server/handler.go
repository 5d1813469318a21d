// Package server exposes the word-cloud engine over HTTP. The current
// document is swapped atomically: a reload builds a new Manager while
// in-flight requests finish against the old one.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/archive"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/document"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/manager"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/report"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/logger"
)

const maxDocumentBytes = 10 << 20

var errNoDocument = apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "no document loaded")

// ArchiveReader lists archived clouds; *archive.Store implements it.
type ArchiveReader interface {
	List(ctx context.Context, documentID string, limit int) ([]archive.Record, error)
}

type Handler struct {
	current atomic.Pointer[manager.Manager]
	opts    manager.Options
	cfg     config.CloudConfig
	cache   *cache.ReportCache
	clouds  ArchiveReader
	logger  *slog.Logger
}

// New creates a Handler. opts is used for every Manager the handler builds;
// clouds may be nil.
func New(cfg config.CloudConfig, opts manager.Options, clouds ArchiveReader) *Handler {
	return &Handler{
		opts:   opts,
		cfg:    cfg,
		cache:  opts.Cache,
		clouds: clouds,
		logger: slog.Default().With("component", "wordcloud-handler"),
	}
}

// Swap installs m as the current document.
func (h *Handler) Swap(m *manager.Manager) {
	h.current.Store(m)
}

// Current returns the current Manager, or nil before the first load.
func (h *Handler) Current() *manager.Manager {
	return h.current.Load()
}

// LoadFiles builds a Manager from files and installs it.
func (h *Handler) LoadFiles(ctx context.Context, textPath, filterPath string) error {
	m, err := manager.Load(ctx, textPath, filterPath, h.opts)
	if err != nil {
		return err
	}
	h.Swap(m)
	return nil
}

func (h *Handler) Frequency(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w)
	if !ok {
		return
	}
	word := r.URL.Query().Get("word")
	if word == "" {
		h.writeError(w, apperrors.InvalidArgumentf("query parameter 'word' is required"))
		return
	}
	h.writeJSON(w, http.StatusOK, m.Frequency(r.Context(), word))
}

type topResponse struct {
	K       int               `json:"k"`
	Entries []frequency.Entry `json:"entries"`
	Report  string            `json:"report"`
}

func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w)
	if !ok {
		return
	}
	k, err := h.parseK(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	ranking, err := m.TopWords(r.Context(), k)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		h.writeJSON(w, status, map[string]string{"error": err.Error(), "report": report.FormatError(err)})
		return
	}
	entries := []frequency.Entry(ranking)
	if entries == nil {
		entries = []frequency.Entry{}
	}
	h.writeJSON(w, http.StatusOK, topResponse{K: k, Entries: entries, Report: report.FormatRanking(ranking)})
}

func (h *Handler) Cloud(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w)
	if !ok {
		return
	}
	k, err := h.parseK(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	html, _, err := m.WordCloud(r.Context(), k)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		h.logger.Error("failed to write cloud", "error", err)
	}
}

type loadRequest struct {
	Text   string   `json:"text"`
	Filter []string `json:"filter"`
	Source string   `json:"source"`
}

// LoadDocument replaces the current document with the posted text.
func (h *Handler) LoadDocument(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidArgumentf("invalid request body: %v", err))
		return
	}
	if req.Text == "" {
		h.writeError(w, apperrors.InvalidArgumentf("text is required"))
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}
	doc := document.FromText(req.Source, req.Text, req.Filter)
	h.Swap(manager.New(doc, h.opts))
	logger.FromContext(r.Context()).Info("document replaced", "document_id", doc.ID, "tokens", doc.Table.Total())
	h.writeJSON(w, http.StatusCreated, doc.Summary())
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, m.Document().Summary())
}

// Clouds lists archived word clouds for the current document, or for the
// document named by ?document_id=.
func (h *Handler) Clouds(w http.ResponseWriter, r *http.Request) {
	if h.clouds == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "archive is disabled"})
		return
	}
	docID := r.URL.Query().Get("document_id")
	if docID == "" {
		if m := h.Current(); m != nil {
			docID = m.Document().ID
		}
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, apperrors.InvalidArgumentf("limit must be a positive integer"))
			return
		}
		limit = min(n, 100)
	}
	records, err := h.clouds.List(r.Context(), docID, limit)
	if err != nil {
		h.logger.Error("listing archived clouds failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	s := h.cache.Stats()
	total := s.Hits + s.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(s.Hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     s.Hits,
		"misses":   s.Misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cache invalidation failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) manager(w http.ResponseWriter) (*manager.Manager, bool) {
	m := h.Current()
	if m == nil {
		h.writeError(w, errNoDocument)
		return nil, false
	}
	return m, true
}

// parseK reads ?k=, defaulting to cloud.defaultWords and clamping to
// cloud.maxWords. Non-positive values pass through so the engine reports
// them.
func (h *Handler) parseK(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("k")
	if raw == "" {
		return h.cfg.DefaultWords, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidArgumentf("k must be a whole number, got %q", raw)
	}
	if h.cfg.MaxWords > 0 && k > h.cfg.MaxWords {
		k = h.cfg.MaxWords
	}
	return k, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": msg})
}
