package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

type networkMetricsRow struct {
	ID                  int64   `csv:"id"`
	Timestamp           string  `csv:"timestamp"`
	DataSource          string  `csv:"data_source"`
	Blocks24h           int64   `csv:"blocks_24h"`
	Transactions24h     int64   `csv:"transactions_24h"`
	Difficulty          float64 `csv:"difficulty"`
	HashrateEHS         float64 `csv:"hashrate_ehs"`
	MarketPriceUSD      float64 `csv:"market_price_usd"`
	MempoolTransactions int64   `csv:"mempool_transactions"`
	AverageFeeUSD24h    float64 `csv:"average_fee_usd_24h"`
	Nodes               int64   `csv:"nodes"`
	BlockchainSizeBytes int64   `csv:"blockchain_size_bytes"`
}

type profitabilityRow struct {
	ID                 int64   `csv:"id"`
	Timestamp          string  `csv:"timestamp"`
	NetworkMetricsID   int64   `csv:"network_metrics_id"`
	MinerModel         string  `csv:"miner_model"`
	DailyRevenueUSD    float64 `csv:"daily_revenue_usd"`
	DailyEnergyCostUSD float64 `csv:"daily_energy_cost_usd"`
	DailyProfitUSD     float64 `csv:"daily_profit_usd"`
	ProfitMarginPct    float64 `csv:"profit_margin_pct"`
	ROIDays            float64 `csv:"roi_days"`
	Status             string  `csv:"status"`
}

// WriteNetworkMetricsCSV writes the metric rows into dir as a timestamped CSV
// file and returns its path.
func WriteNetworkMetricsCSV(dir string, metrics []model.NetworkMetrics) (string, error) {
	rows := make([]networkMetricsRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, networkMetricsRow{
			ID:                  m.ID,
			Timestamp:           m.Timestamp.UTC().Format(time.RFC3339),
			DataSource:          m.DataSource,
			Blocks24h:           m.Blocks24h,
			Transactions24h:     m.Transactions24h,
			Difficulty:          m.Difficulty,
			HashrateEHS:         m.HashrateEHS,
			MarketPriceUSD:      m.MarketPriceUSD,
			MempoolTransactions: m.MempoolTransactions,
			AverageFeeUSD24h:    m.AverageFeeUSD24h,
			Nodes:               m.Nodes,
			BlockchainSizeBytes: m.BlockchainSizeBytes,
		})
	}
	return writeCSV(dir, "network_metrics", rows)
}

// WriteProfitabilityCSV writes the analysis rows into dir as a timestamped CSV
// file and returns its path.
func WriteProfitabilityCSV(dir string, analyses []model.ProfitabilityAnalysis) (string, error) {
	rows := make([]profitabilityRow, 0, len(analyses))
	for _, p := range analyses {
		rows = append(rows, profitabilityRow{
			ID:                 p.ID,
			Timestamp:          p.Timestamp.UTC().Format(time.RFC3339),
			NetworkMetricsID:   p.NetworkMetricsID,
			MinerModel:         p.MinerModel,
			DailyRevenueUSD:    p.DailyRevenueUSD,
			DailyEnergyCostUSD: p.DailyEnergyCostUSD,
			DailyProfitUSD:     p.DailyProfitUSD,
			ProfitMarginPct:    p.ProfitMarginPct,
			ROIDays:            p.ROIDays,
			Status:             string(p.Status),
		})
	}
	return writeCSV(dir, "profitability", rows)
}

func writeCSV[T any](dir, prefix string, rows []T) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.csv", prefix, time.Now().UTC().Format(backupTimeLayout))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal(rows, f); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return path, nil
}
