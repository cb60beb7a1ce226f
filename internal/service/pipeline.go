// Package service orchestrates collection, derivation and persistence cycles.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/clock"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/collector"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/economics"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/normalize"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/store"
)

// SnapshotTypeDashboardRun tags snapshots produced by a full pipeline cycle.
const SnapshotTypeDashboardRun = "dashboard_run"

// Collector fetches one consolidated bundle from all configured sources.
type Collector interface {
	CollectFromAllSources(ctx context.Context) *collector.Bundle
}

// Store persists the outputs of one cycle.
type Store interface {
	SaveNetworkMetrics(ctx context.Context, m model.NetworkMetrics) (int64, error)
	SaveProfitabilityAnalysis(ctx context.Context, p model.ProfitabilityAnalysis, networkMetricsID int64) error
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	Info(ctx context.Context) (store.Info, error)
}

// Backup writes raw per-run payload backups.
type Backup interface {
	SaveRawBundle(payload any, source string) (string, error)
}

// CycleMetrics records metrics for full pipeline cycles.
type CycleMetrics interface {
	ObserveCycle(err error, started time.Time)
}

// Pipeline runs the collect, derive, persist cycle. Backups are optional; a
// nil Backup disables them.
type Pipeline struct {
	collector Collector
	store     Store
	calc      *economics.Calculator
	hardware  model.HardwareProfile
	backups   Backup
	logger    *zap.Logger
	metrics   CycleMetrics
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// NewPipeline constructs a Pipeline.
func NewPipeline(
	col Collector,
	st Store,
	calc *economics.Calculator,
	hardware model.HardwareProfile,
	backups Backup,
	logger *zap.Logger,
	metrics CycleMetrics,
) (*Pipeline, error) {
	if col == nil {
		return nil, errors.New("collector is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if calc == nil {
		return nil, errors.New("calculator is required")
	}
	if metrics == nil {
		return nil, errors.New("cycle metrics is required")
	}
	if hardware.Model == "" {
		hardware = economics.DefaultHardware
	}

	return &Pipeline{
		collector: col,
		store:     st,
		calc:      calc,
		hardware:  hardware,
		backups:   backups,
		logger:    logger.Named("pipeline"),
		metrics:   metrics,
		sleep:     clock.SleepWithContext,
		now:       time.Now,
	}, nil
}

// Run executes cycles until the context is canceled, pausing interval between
// cycle starts. A failed cycle is logged and does not stop the loop.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.logger.Info("pipeline started", zap.Duration("interval", interval))

	for {
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Error("cycle failed", zap.Error(err))
		}
		if err := p.sleep(ctx, interval); err != nil {
			p.logger.Info("pipeline stopped", zap.Error(err))
			return err
		}
	}
}

// RunOnce executes a single cycle: collect from all sources, normalize the
// primary payload, persist the metrics row, derive and persist profitability,
// snapshot the whole run. A failed metrics insert aborts the cycle before any
// dependent write.
func (p *Pipeline) RunOnce(ctx context.Context) (err error) {
	started := p.now()
	defer func() { p.metrics.ObserveCycle(err, started) }()

	bundle := p.collector.CollectFromAllSources(ctx)

	var payload map[string]any
	var source string
	if len(bundle.SuccessSources) == 0 {
		p.logger.Warn("all sources failed, using fallback snapshot")
		payload = collector.FallbackSnapshot()
		source = collector.FallbackSource
	} else {
		payload = bundle.PrimaryMetrics()
		source = bundle.PrimarySource
	}

	ts := p.now().UTC()
	m, err := normalize.NetworkMetrics(payload, ts, source)
	if err != nil {
		return fmt.Errorf("normalize metrics: %w", err)
	}

	metricsID, err := p.store.SaveNetworkMetrics(ctx, m)
	if err != nil {
		return fmt.Errorf("save network metrics: %w", err)
	}

	econ := p.calc.Network(m.HashrateEHS, m.MarketPriceUSD, m.Blocks24h)
	analysis := p.calc.Profitability(econ.HashPriceUSDPerTHPerDay, p.hardware, ts)
	analysis.NetworkMetricsID = metricsID

	if err = p.store.SaveProfitabilityAnalysis(ctx, analysis, metricsID); err != nil {
		return fmt.Errorf("save profitability analysis: %w", err)
	}

	if err = p.saveSnapshot(ctx, bundle, payload, econ, analysis, metricsID, ts, source); err != nil {
		return err
	}

	if p.backups != nil {
		if path, backupErr := p.backups.SaveRawBundle(payload, source); backupErr != nil {
			p.logger.Warn("raw backup failed", zap.Error(backupErr))
		} else {
			p.logger.Debug("raw backup written", zap.String("path", path))
		}
	}

	if info, infoErr := p.store.Info(ctx); infoErr != nil {
		p.logger.Warn("database info unavailable", zap.Error(infoErr))
	} else {
		p.logger.Info("cycle finished",
			zap.Int64("network_metrics_id", metricsID),
			zap.String("source", source),
			zap.String("status", string(analysis.Status)),
			zap.Int64("stored_metrics", info.NetworkMetrics),
			zap.Int64("stored_analyses", info.Profitability),
			zap.Int64("db_size_bytes", info.SizeBytes))
	}
	return nil
}

func (p *Pipeline) saveSnapshot(
	ctx context.Context,
	bundle *collector.Bundle,
	payload map[string]any,
	econ economics.NetworkEconomics,
	analysis model.ProfitabilityAnalysis,
	metricsID int64,
	ts time.Time,
	source string,
) error {
	blob, err := json.Marshal(map[string]any{
		"timestamp": ts.Format(time.RFC3339Nano),
		"source":    source,
		"metadata": map[string]any{
			"success_sources":    bundle.SuccessSources,
			"failed_sources":     bundle.FailedSources,
			"network_metrics_id": metricsID,
		},
		"network_data":   payload,
		"mining_metrics": econ,
		"profitability_analysis": map[string]any{
			"miner_model":           analysis.MinerModel,
			"daily_revenue_usd":     analysis.DailyRevenueUSD,
			"daily_energy_cost_usd": analysis.DailyEnergyCostUSD,
			"daily_profit_usd":      analysis.DailyProfitUSD,
			"profit_margin_pct":     analysis.ProfitMarginPct,
			"roi_days":              jsonROIDays(analysis.ROIDays),
			"status":                analysis.Status,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	snap := model.Snapshot{
		Timestamp:  ts,
		Type:       SnapshotTypeDashboardRun,
		DataSource: source,
		Data:       blob,
	}
	if err := p.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// jsonROIDays keeps infinite ROI representable in strict JSON.
func jsonROIDays(v float64) any {
	if math.IsInf(v, 0) {
		return "+Inf"
	}
	return v
}
