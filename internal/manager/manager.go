// Package manager answers frequency, top-K and word-cloud requests for one
// loaded document. A Manager is immutable; loading another document means
// building another Manager.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/archive"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/cloud"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/document"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/report"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/tracing"
)

// Tracker receives analytics events; *analytics.Collector implements it.
type Tracker interface {
	Track(key string, value any)
}

// Archiver stores rendered clouds; *archive.Store implements it.
type Archiver interface {
	Save(ctx context.Context, rec archive.Record) (int64, error)
}

// Options wires optional collaborators. Every field may be left zero.
type Options struct {
	Renderer *cloud.Renderer
	Title    string
	Cache    *cache.ReportCache
	Tracker  Tracker
	Archive  Archiver
	Metrics  *metrics.Metrics
}

type Manager struct {
	doc    *document.Document
	opts   Options
	logger *slog.Logger
}

// Load reads the document (and optional filter) and builds a Manager for it.
// Missing files surface as ErrNotFound.
func Load(ctx context.Context, textPath, filterPath string, opts Options) (*Manager, error) {
	doc, err := document.Load(ctx, textPath, filterPath)
	if err != nil {
		return nil, err
	}
	return New(doc, opts), nil
}

func New(doc *document.Document, opts Options) *Manager {
	if opts.Renderer == nil {
		opts.Renderer = cloud.NewRenderer(12, 72)
	}
	if opts.Title == "" {
		opts.Title = cloud.DefaultTitle
	}
	m := &Manager{
		doc:    doc,
		opts:   opts,
		logger: slog.Default().With("component", "manager", "document_id", doc.ID),
	}
	if opts.Metrics != nil {
		opts.Metrics.DocumentsLoadedTotal.Inc()
		opts.Metrics.TokensCountedTotal.Add(float64(doc.Table.Total()))
		opts.Metrics.VocabularySize.Set(float64(doc.Table.Len()))
	}
	if opts.Tracker != nil {
		s := doc.Summary()
		opts.Tracker.Track(doc.ID, analytics.DocumentEvent{
			Type:       analytics.EventDocumentLoaded,
			DocumentID: doc.ID,
			Source:     s.Source,
			Tokens:     s.Tokens,
			Vocabulary: s.Vocabulary,
			Filtered:   s.Filtered,
			Timestamp:  time.Now().UTC(),
		})
	}
	m.logger.Info("document loaded",
		"source", doc.Source,
		"tokens", doc.Table.Total(),
		"vocabulary", doc.Table.Len(),
		"filtered", doc.Filter.Len(),
	)
	return m
}

func (m *Manager) Document() *document.Document {
	return m.doc
}

// FrequencyResult is the answer to a single-word query.
type FrequencyResult struct {
	Word   string `json:"word"`
	Count  int    `json:"count"`
	Report string `json:"report"`
}

func (m *Manager) Frequency(ctx context.Context, word string) FrequencyResult {
	start := time.Now()
	count := report.Count(word, m.doc.Table, m.doc.Filter)
	res := FrequencyResult{Word: word, Count: count, Report: report.FormatFrequency(word, count)}
	m.observe(ctx, metrics.KindFrequency, analytics.QueryEvent{Type: analytics.EventFrequency, Word: word, Returned: count}, start, nil)
	return res
}

// FrequencyOfWord returns the frequency report line for word.
func (m *Manager) FrequencyOfWord(ctx context.Context, word string) string {
	return m.Frequency(ctx, word).Report
}

// TopWords returns the k most frequent unfiltered words, from the report
// cache when one is configured.
func (m *Manager) TopWords(ctx context.Context, k int) (frequency.Ranking, error) {
	start := time.Now()
	ranking, hit, err := m.rank(ctx, k)
	m.observe(ctx, metrics.KindTopWords, analytics.QueryEvent{Type: analytics.EventTopWords, K: k, Returned: len(ranking), Cached: m.cached(k), CacheHit: hit}, start, err)
	return ranking, err
}

// TopWordsReport formats TopWords. A non-positive k yields the validation
// report.
func (m *Manager) TopWordsReport(ctx context.Context, k int) string {
	ranking, err := m.TopWords(ctx, k)
	if err != nil {
		return report.FormatError(err)
	}
	return report.FormatRanking(ranking)
}

// WordCloud renders the k most frequent unfiltered words as HTML.
func (m *Manager) WordCloud(ctx context.Context, k int) (string, frequency.Ranking, error) {
	start := time.Now()
	html, ranking, hit, err := m.render(ctx, k)
	m.observe(ctx, metrics.KindCloud, analytics.QueryEvent{Type: analytics.EventCloud, K: k, Returned: len(ranking), Cached: m.cached(k), CacheHit: hit}, start, err)
	return html, ranking, err
}

// WriteWordCloud renders the cloud to path and archives it when an archive
// is configured. Archive failures are logged, not returned.
func (m *Manager) WriteWordCloud(ctx context.Context, k int, path string) error {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "write_word_cloud")
	defer func() {
		span.End()
		span.Log(ctx, m.logger)
	}()
	span.Set("k", k)

	html, ranking, hit, err := m.render(ctx, k)
	if err == nil {
		_, write := tracing.Start(ctx, "write_file")
		err = cloud.WriteHTML(ctx, path, html)
		write.End()
	}
	m.observe(ctx, metrics.KindCloud, analytics.QueryEvent{Type: analytics.EventCloud, K: k, Returned: len(ranking), Cached: m.cached(k), CacheHit: hit}, start, err)
	if err != nil {
		return err
	}
	m.archive(ctx, k, ranking, html)
	m.logger.Info("word cloud written", "path", path, "k", k, "words", len(ranking))
	return nil
}

func (m *Manager) render(ctx context.Context, k int) (string, frequency.Ranking, bool, error) {
	ranking, hit, err := m.rank(ctx, k)
	if err != nil {
		return "", nil, hit, err
	}
	_, span := tracing.Start(ctx, "render")
	html, err := m.opts.Renderer.Render(m.opts.Title, ranking)
	span.End()
	if err != nil {
		return "", nil, hit, err
	}
	return html, ranking, hit, nil
}

func (m *Manager) rank(ctx context.Context, k int) (frequency.Ranking, bool, error) {
	if parent := tracing.FromContext(ctx); parent != nil {
		var span *tracing.Span
		ctx, span = tracing.Start(ctx, "rank")
		defer span.End()
	}
	compute := func() (frequency.Ranking, error) {
		return frequency.Select(m.doc.Table, m.doc.Filter, k)
	}
	if !m.cached(k) {
		ranking, err := compute()
		return ranking, false, err
	}
	return m.opts.Cache.GetOrCompute(ctx, m.doc.ID, k, compute)
}

// cached reports whether a request for k goes through the report cache.
// Invalid counts never do.
func (m *Manager) cached(k int) bool {
	return m.opts.Cache != nil && k > 0
}

func (m *Manager) archive(ctx context.Context, k int, ranking frequency.Ranking, html string) {
	if m.opts.Archive == nil {
		return
	}
	ctx, span := tracing.Start(ctx, "archive")
	defer span.End()
	id, err := m.opts.Archive.Save(ctx, archive.Record{
		DocumentID: m.doc.ID,
		Title:      m.opts.Title,
		K:          k,
		Ranking:    ranking,
		HTML:       html,
	})
	if err != nil {
		m.logger.Warn("word cloud not archived", "error", err)
		return
	}
	m.logger.Debug("word cloud archived", "archive_id", id)
}

func (m *Manager) observe(ctx context.Context, kind string, event analytics.QueryEvent, start time.Time, err error) {
	elapsed := time.Since(start)
	if met := m.opts.Metrics; met != nil {
		met.ReportsTotal.WithLabelValues(kind, outcome(err)).Inc()
		met.ReportLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
	if err != nil && !errors.Is(err, frequency.ErrInvalidCount) {
		logger.FromContext(ctx).Error("report failed", "kind", kind, "k", event.K, "error", err)
	}
	if m.opts.Tracker == nil {
		return
	}
	event.DocumentID = m.doc.ID
	event.LatencyMs = elapsed.Milliseconds()
	event.Timestamp = time.Now().UTC()
	event.RequestID = logger.RequestIDFromContext(ctx)
	m.opts.Tracker.Track(m.doc.ID, event)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, frequency.ErrInvalidCount):
		return "invalid"
	default:
		return "error"
	}
}
