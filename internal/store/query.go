package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

// Info summarizes the database contents. Oldest and Newest are zero when no
// metrics have been stored yet.
type Info struct {
	Path           string
	SizeBytes      int64
	NetworkMetrics int64
	Profitability  int64
	Snapshots      int64
	OldestMetric   time.Time
	NewestMetric   time.Time
}

// LatestMetrics returns up to limit metric rows, newest first. RawData is not
// loaded; use snapshots for the full payload.
func (s *Store) LatestMetrics(ctx context.Context, limit int) (rows []model.NetworkMetrics, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe("latest_metrics", err, started) }()

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	const query = `
SELECT id, timestamp, data_source, blocks_24h, transactions_24h, difficulty,
       hashrate_ehs, market_price_usd, mempool_transactions, average_fee_usd_24h,
       nodes, blockchain_size_bytes
FROM bitcoin_network_metrics
ORDER BY timestamp DESC, id DESC
LIMIT ?`

	result, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest metrics: %w", err)
	}
	defer result.Close()

	for result.Next() {
		var m model.NetworkMetrics
		var ts string
		if err := result.Scan(
			&m.ID, &ts, &m.DataSource, &m.Blocks24h, &m.Transactions24h,
			&m.Difficulty, &m.HashrateEHS, &m.MarketPriceUSD,
			&m.MempoolTransactions, &m.AverageFeeUSD24h, &m.Nodes,
			&m.BlockchainSizeBytes,
		); err != nil {
			return nil, fmt.Errorf("scan metrics row: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse metrics timestamp: %w", err)
		}
		rows = append(rows, m)
	}
	return rows, result.Err()
}

// LatestProfitability returns up to limit analysis rows, newest first.
func (s *Store) LatestProfitability(ctx context.Context, limit int) (rows []model.ProfitabilityAnalysis, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe("latest_profitability", err, started) }()

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	const query = `
SELECT id, timestamp, network_metrics_id, miner_model, daily_revenue_usd,
       daily_energy_cost_usd, daily_profit_usd, profit_margin_pct, roi_days, status
FROM profitability_analysis
ORDER BY timestamp DESC, id DESC
LIMIT ?`

	result, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest profitability: %w", err)
	}
	defer result.Close()

	for result.Next() {
		var p model.ProfitabilityAnalysis
		var ts string
		var roiDays sql.NullFloat64
		var status string
		if err := result.Scan(
			&p.ID, &ts, &p.NetworkMetricsID, &p.MinerModel, &p.DailyRevenueUSD,
			&p.DailyEnergyCostUSD, &p.DailyProfitUSD, &p.ProfitMarginPct,
			&roiDays, &status,
		); err != nil {
			return nil, fmt.Errorf("scan profitability row: %w", err)
		}
		if p.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse profitability timestamp: %w", err)
		}
		p.Status = model.Status(status)
		if roiDays.Valid {
			p.ROIDays = roiDays.Float64
		} else {
			p.ROIDays = math.Inf(1)
		}
		rows = append(rows, p)
	}
	return rows, result.Err()
}

// Info reports database location, size and row counts. An empty database is
// not an error.
func (s *Store) Info(ctx context.Context) (info Info, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe("info", err, started) }()

	info.Path = s.path
	if fi, statErr := os.Stat(s.path); statErr == nil {
		info.SizeBytes = fi.Size()
	}

	db, err := s.open()
	if err != nil {
		return info, err
	}
	defer db.Close()

	counts := []struct {
		table string
		dst   *int64
	}{
		{"bitcoin_network_metrics", &info.NetworkMetrics},
		{"profitability_analysis", &info.Profitability},
		{"bitcoin_snapshots", &info.Snapshots},
	}
	for _, c := range counts {
		if err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dst); err != nil {
			return info, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	var oldest, newest sql.NullString
	err = db.QueryRowContext(ctx, `SELECT MIN(timestamp), MAX(timestamp) FROM bitcoin_network_metrics`).
		Scan(&oldest, &newest)
	if err != nil {
		return info, fmt.Errorf("query metrics time range: %w", err)
	}
	if oldest.Valid {
		if info.OldestMetric, err = parseTime(oldest.String); err != nil {
			return info, fmt.Errorf("parse oldest timestamp: %w", err)
		}
	}
	if newest.Valid {
		if info.NewestMetric, err = parseTime(newest.String); err != nil {
			return info, fmt.Errorf("parse newest timestamp: %w", err)
		}
	}
	return info, nil
}

// Wipe deletes all stored rows in one transaction. The schema stays in place.
func (s *Store) Wipe(ctx context.Context) (err error) {
	started := time.Now()
	defer func() { s.metrics.Observe("wipe", err, started) }()

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

	for _, table := range []string{"profitability_analysis", "bitcoin_snapshots", "bitcoin_network_metrics"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit wipe: %w", err)
	}

	s.logger.Warn("database wiped", zap.String("path", s.path))
	return nil
}
