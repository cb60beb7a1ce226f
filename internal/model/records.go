package model

import (
	"encoding/json"
	"time"
)

// Status classifies a profitability analysis result.
type Status string

const (
	StatusProfit Status = "PROFIT"
	StatusLoss   Status = "LOSS"
)

// NetworkMetrics describes one collected Bitcoin network snapshot.
// Records are immutable once inserted; the ID is assigned by the store.
type NetworkMetrics struct {
	ID                  int64
	Timestamp           time.Time
	DataSource          string
	Blocks24h           int64
	Transactions24h     int64
	Difficulty          float64
	HashrateEHS         float64
	MarketPriceUSD      float64
	MempoolTransactions int64
	AverageFeeUSD24h    float64
	Nodes               int64
	BlockchainSizeBytes int64
	// RawData preserves the original payload for audit and debugging.
	RawData json.RawMessage
}

// ProfitabilityAnalysis describes derived mining economics for one hardware
// profile against one network snapshot. NetworkMetricsID links to the
// NetworkMetrics row the analysis was derived from; the link is advisory and
// not enforced by the store.
type ProfitabilityAnalysis struct {
	ID                 int64
	Timestamp          time.Time
	NetworkMetricsID   int64
	MinerModel         string
	DailyRevenueUSD    float64
	DailyEnergyCostUSD float64
	DailyProfitUSD     float64
	ProfitMarginPct    float64
	ROIDays            float64
	Status             Status
}

// Snapshot is an opaque point-in-time capture of everything collected and
// derived in one run, retained for audit and export only.
type Snapshot struct {
	ID         int64
	Timestamp  time.Time
	Type       string
	DataSource string
	Data       json.RawMessage
}

// HardwareProfile describes a mining device used for profitability analysis.
type HardwareProfile struct {
	Model           string
	HashrateTHS     float64
	PowerW          float64
	EnergyCostKWH   float64
	HardwareCostUSD float64
}

// DataSourceConfig describes one external API the collector fetches from.
// Loaded once at collector construction and immutable afterwards.
type DataSourceConfig struct {
	Name           string
	BaseURL        string
	Endpoints      map[string]string
	RateLimit      int
	Timeout        time.Duration
	APIKeyRequired bool
	APIKey         string
	Headers        map[string]string
}
