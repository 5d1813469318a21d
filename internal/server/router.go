package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/middleware"
)

// NewRouter mounts the API and health endpoints and wraps them in the
// shared middleware. Metrics are recorded only when m is non-nil.
// Document uploads are rate limited per client IP until ctx is done.
func NewRouter(ctx context.Context, h *Handler, checker *health.Checker, m *metrics.Metrics, cfg config.ServerConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/frequency", h.Frequency)
	mux.HandleFunc("GET /api/v1/top", h.Top)
	mux.HandleFunc("GET /api/v1/cloud", h.Cloud)
	mux.HandleFunc("GET /api/v1/document", h.Document)
	mux.HandleFunc("POST /api/v1/document", h.LoadDocument)
	mux.HandleFunc("GET /api/v1/clouds", h.Clouds)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if cfg.UploadsPerMinute > 0 {
		limiter := middleware.NewLimiter(cfg.UploadsPerMinute, time.Minute)
		go limiter.Run(ctx)
		chain = middleware.RateLimit(limiter, http.MethodPost)(chain)
	}
	if cfg.WriteTimeout > 0 {
		chain = middleware.Timeout(cfg.WriteTimeout)(chain)
	}
	if len(cfg.CORSOrigins) > 0 {
		chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins))(chain)
	}
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)
	return chain
}

// DocumentCheck reports down until a document has been loaded.
func (h *Handler) DocumentCheck() health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		m := h.Current()
		if m == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no document loaded"}
		}
		doc := m.Document()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%s: %d words", doc.ID, doc.Table.Len()),
		}
	}
}
