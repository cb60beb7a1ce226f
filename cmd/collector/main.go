package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/collector"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/config"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/economics"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/export"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/metrics"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/service"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/store"
)

type appConfig struct {
	DBPath      string        `long:"db-path" env:"MINING_ANALYTICS_DB_PATH" description:"SQLite database file path" default:"data/bitcoin_analytics.db"`
	DataSources string        `long:"data-sources" env:"MINING_ANALYTICS_DATA_SOURCES" description:"data sources YAML file" default:"config/data_sources.yaml"`
	Schedule    string        `long:"schedule" env:"MINING_ANALYTICS_SCHEDULE" description:"cron expression for scheduled runs; empty disables cron"`
	Interval    time.Duration `long:"interval" env:"MINING_ANALYTICS_INTERVAL" description:"fixed interval between runs; used when no schedule is set"`
	BackupDir   string        `long:"backup-dir" env:"MINING_ANALYTICS_BACKUP_DIR" description:"raw payload backup directory; empty disables backups" default:"data/backups"`
	MetricsAddr string        `long:"metrics-addr" env:"MINING_ANALYTICS_METRICS_ADDR" description:"prometheus listen address; empty disables the endpoint"`

	MinerModel    string  `long:"miner-model" env:"MINING_ANALYTICS_MINER_MODEL" description:"mining hardware model" default:"Antminer S19 XP"`
	MinerHashrate float64 `long:"miner-hashrate" env:"MINING_ANALYTICS_MINER_HASHRATE" description:"hardware hash rate in TH/s" default:"140"`
	MinerPower    float64 `long:"miner-power" env:"MINING_ANALYTICS_MINER_POWER" description:"hardware power draw in watts" default:"3010"`
	EnergyCost    float64 `long:"energy-cost" env:"MINING_ANALYTICS_ENERGY_COST" description:"energy price in USD per kWh" default:"0.08"`
	HardwareCost  float64 `long:"hardware-cost" env:"MINING_ANALYTICS_HARDWARE_COST" description:"hardware price in USD" default:"4500"`
}

func main() {
	cfg := appConfig{}

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
		logger.Fatal("collector failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg appConfig, logger *zap.Logger) error {
	sourceCfgs := config.LoadDataSources(cfg.DataSources, logger)
	sources, primary, err := collector.BuildSources(sourceCfgs, logger)
	if err != nil {
		return fmt.Errorf("build sources: %w", err)
	}

	col, err := collector.New(sources, primary, logger, metrics.NewSourceCollector())
	if err != nil {
		return fmt.Errorf("init collector: %w", err)
	}

	st, err := store.New(cfg.DBPath, logger, metrics.NewStore())
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	calc, err := economics.NewCalculator()
	if err != nil {
		return fmt.Errorf("init calculator: %w", err)
	}

	var backups service.Backup
	if cfg.BackupDir != "" {
		backups = export.NewBackup(cfg.BackupDir, logger)
	}

	hardware := model.HardwareProfile{
		Model:           cfg.MinerModel,
		HashrateTHS:     cfg.MinerHashrate,
		PowerW:          cfg.MinerPower,
		EnergyCostKWH:   cfg.EnergyCost,
		HardwareCostUSD: cfg.HardwareCost,
	}

	pipeline, err := service.NewPipeline(col, st, calc, hardware, backups, logger, metrics.NewPipeline())
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, logger)
	}

	switch {
	case cfg.Schedule != "":
		return runScheduled(ctx, pipeline, cfg.Schedule, logger)
	case cfg.Interval > 0:
		if err := pipeline.Run(ctx, cfg.Interval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	default:
		return pipeline.RunOnce(ctx)
	}
}

func runScheduled(ctx context.Context, pipeline *service.Pipeline, schedule string, logger *zap.Logger) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := pipeline.RunOnce(ctx); err != nil {
			logger.Error("scheduled cycle failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	logger.Info("scheduler started", zap.String("schedule", schedule))
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics endpoint failed", zap.Error(err))
	}
}
