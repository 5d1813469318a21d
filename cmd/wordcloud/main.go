// Command wordcloud is the interactive word-cloud prompt.
//
// It asks for an input file (relative to cloud.inputDir) and an optional
// filter file, then answers frequency, top-K and word-cloud requests until
// the user quits.
//
// Usage:
//
//	go run ./cmd/wordcloud [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/bootstrap"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/manager"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/shell"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/config"
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

	logger.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdown(ctx)
	}

	backends := bootstrap.Connect(ctx, cfg, m)
	defer backends.Close()
	opts := backends.ManagerOptions(cfg.Cloud, m)

	load := func(ctx context.Context, textPath, filterPath string) (*manager.Manager, error) {
		return manager.Load(ctx, textPath, filterPath, opts)
	}
	if err := shell.New(os.Stdin, os.Stdout, cfg.Cloud, load).Run(ctx); err != nil {
		slog.Error("session ended with error", "error", err)
		backends.Close()
		os.Exit(1)
	}
}
