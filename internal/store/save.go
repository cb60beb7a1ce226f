package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

// SaveNetworkMetrics inserts one network snapshot and returns its assigned ID.
// IDs are allocated as max(id)+1 inside the insert transaction, so they stay
// dense and strictly increasing.
func (s *Store) SaveNetworkMetrics(ctx context.Context, m model.NetworkMetrics) (id int64, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe("save_network_metrics", err, started) }()

	db, err := s.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM bitcoin_network_metrics`).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate metrics id: %w", err)
	}

	const query = `
INSERT INTO bitcoin_network_metrics (
    id, timestamp, data_source, blocks_24h, transactions_24h, difficulty,
    hashrate_ehs, market_price_usd, mempool_transactions, average_fee_usd_24h,
    nodes, blockchain_size_bytes, raw_data
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		id,
		formatTime(m.Timestamp),
		m.DataSource,
		m.Blocks24h,
		m.Transactions24h,
		m.Difficulty,
		m.HashrateEHS,
		m.MarketPriceUSD,
		m.MempoolTransactions,
		m.AverageFeeUSD24h,
		m.Nodes,
		m.BlockchainSizeBytes,
		string(m.RawData),
	)
	if err != nil {
		return 0, fmt.Errorf("insert network metrics: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit network metrics: %w", err)
	}
	return id, nil
}

// SaveProfitabilityAnalysis inserts one derived analysis row. An infinite ROI
// is stored as NULL and restored as +Inf on read.
func (s *Store) SaveProfitabilityAnalysis(ctx context.Context, p model.ProfitabilityAnalysis, networkMetricsID int64) (err error) {
	started := time.Now()
	defer func() { s.metrics.Observe("save_profitability_analysis", err, started) }()

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM profitability_analysis`).Scan(&id); err != nil {
		return fmt.Errorf("allocate analysis id: %w", err)
	}

	roiDays := sql.NullFloat64{Float64: p.ROIDays, Valid: !math.IsInf(p.ROIDays, 0)}

	const query = `
INSERT INTO profitability_analysis (
    id, timestamp, network_metrics_id, miner_model, daily_revenue_usd,
    daily_energy_cost_usd, daily_profit_usd, profit_margin_pct, roi_days, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		id,
		formatTime(p.Timestamp),
		networkMetricsID,
		p.MinerModel,
		p.DailyRevenueUSD,
		p.DailyEnergyCostUSD,
		p.DailyProfitUSD,
		p.ProfitMarginPct,
		roiDays,
		string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("insert profitability analysis: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit profitability analysis: %w", err)
	}
	return nil
}

// SaveSnapshot inserts one opaque run snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) (err error) {
	started := time.Now()
	defer func() { s.metrics.Observe("save_snapshot", err, started) }()

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM bitcoin_snapshots`).Scan(&id); err != nil {
		return fmt.Errorf("allocate snapshot id: %w", err)
	}

	const query = `
INSERT INTO bitcoin_snapshots (id, timestamp, snapshot_type, data_source, data)
VALUES (?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		id,
		formatTime(snap.Timestamp),
		snap.Type,
		snap.DataSource,
		string(snap.Data),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
