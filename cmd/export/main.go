package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/export"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/metrics"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/store"
)

type exportConfig struct {
	DBPath string `long:"db-path" env:"MINING_ANALYTICS_DB_PATH" description:"SQLite database file path" default:"data/bitcoin_analytics.db"`
	OutDir string `long:"out-dir" env:"MINING_ANALYTICS_EXPORT_DIR" description:"CSV output directory" default:"exports"`
	Limit  int    `long:"limit" env:"MINING_ANALYTICS_EXPORT_LIMIT" description:"maximum rows per extract" default:"1000"`
}

func main() {
	cfg := exportConfig{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg exportConfig, logger *zap.Logger) error {
	st, err := store.New(cfg.DBPath, logger, metrics.NewStore())
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	metricRows, err := st.LatestMetrics(ctx, cfg.Limit)
	if err != nil {
		return fmt.Errorf("load metrics: %w", err)
	}
	metricsPath, err := export.WriteNetworkMetricsCSV(cfg.OutDir, metricRows)
	if err != nil {
		return fmt.Errorf("export metrics: %w", err)
	}
	logger.Info("network metrics exported",
		zap.Int("rows", len(metricRows)),
		zap.String("path", metricsPath))

	analysisRows, err := st.LatestProfitability(ctx, cfg.Limit)
	if err != nil {
		return fmt.Errorf("load profitability: %w", err)
	}
	analysisPath, err := export.WriteProfitabilityCSV(cfg.OutDir, analysisRows)
	if err != nil {
		return fmt.Errorf("export profitability: %w", err)
	}
	logger.Info("profitability exported",
		zap.Int("rows", len(analysisRows)),
		zap.String("path", analysisPath))

	return nil
}
