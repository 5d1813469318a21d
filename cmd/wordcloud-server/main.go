// Command wordcloud-server serves frequency, top-K and word-cloud queries
// over HTTP.
//
// A document named by cloud.textPath (and optional cloud.filterPath) is
// loaded at startup; POST /api/v1/document replaces it at runtime.
//
// Usage:
//
//	go run ./cmd/wordcloud-server [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/bootstrap"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/server"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting word cloud service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdownMetrics(context.Background())
	}

	backends := bootstrap.Connect(ctx, cfg, m)
	defer backends.Close()

	var clouds server.ArchiveReader
	if backends.Archive != nil {
		clouds = backends.Archive
	}
	h := server.New(cfg.Cloud, backends.ManagerOptions(cfg.Cloud, m), clouds)
	if cfg.Cloud.TextPath != "" {
		if err := h.LoadFiles(ctx, cfg.Cloud.TextPath, cfg.Cloud.FilterPath); err != nil {
			slog.Error("failed to load startup document", "text", cfg.Cloud.TextPath, "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("no startup document configured; POST /api/v1/document to load one")
	}

	checker := health.NewChecker()
	checker.Register("document", h.DocumentCheck())
	backends.RegisterHealth(checker)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(ctx, h, checker, m, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("word cloud service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("word cloud service stopped")
}
