// Package economics derives mining-economics metrics from normalized network
// snapshots and a hardware profile.
package economics

import (
	"fmt"
	"math"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

const (
	// BlockRewardBTC is the current coinbase subsidy. Treated as a constant;
	// the calculator is not halving-aware.
	BlockRewardBTC = 6.25

	// DefaultDailyBlocks is the expected block count for a 24h window at the
	// 10-minute target.
	DefaultDailyBlocks = 144

	// networkEfficiencyJPerTH is a conservative fleet-wide efficiency estimate
	// used for the network energy consumption figure.
	networkEfficiencyJPerTH = 30
)

// DefaultHardware is the reference mining device used when no profile is
// configured.
var DefaultHardware = model.HardwareProfile{
	Model:           "Antminer S19 XP",
	HashrateTHS:     140,
	PowerW:          3010,
	EnergyCostKWH:   0.08,
	HardwareCostUSD: 4500,
}

// NetworkEconomics holds network-wide derived metrics for one snapshot.
type NetworkEconomics struct {
	HashrateEHS             float64 `json:"hashrate_ehs"`
	DailyBlocks             int64   `json:"daily_blocks"`
	DailyNetworkRevenueUSD  float64 `json:"daily_network_revenue_usd"`
	HashPriceUSDPerTHPerDay float64 `json:"hash_price_usd_per_th_per_day"`
	EstimatedDailyEnergyGWH float64 `json:"estimated_daily_energy_consumption_gwh"`
}

// Calculator derives economic metrics from network snapshots.
type Calculator struct {
	blockReward btcutil.Amount
}

// NewCalculator constructs a Calculator with the current block reward.
func NewCalculator() (*Calculator, error) {
	reward, err := btcutil.NewAmount(BlockRewardBTC)
	if err != nil {
		return nil, fmt.Errorf("block reward amount: %w", err)
	}
	return &Calculator{blockReward: reward}, nil
}

// Network derives network-wide economics from the hash rate (EH/s), the market
// price (USD) and the observed daily block count. A non-positive block count
// falls back to DefaultDailyBlocks; a zero hash rate yields a zero hash price
// rather than a division error.
func (c *Calculator) Network(hashrateEHS, priceUSD float64, dailyBlocks int64) NetworkEconomics {
	if dailyBlocks <= 0 {
		dailyBlocks = DefaultDailyBlocks
	}

	dailyRevenue := float64(dailyBlocks) * c.blockReward.ToBTC() * priceUSD

	networkTHS := hashrateEHS * 1e6
	hashPrice := 0.0
	if networkTHS > 0 {
		hashPrice = dailyRevenue / networkTHS
	}

	return NetworkEconomics{
		HashrateEHS:             hashrateEHS,
		DailyBlocks:             dailyBlocks,
		DailyNetworkRevenueUSD:  dailyRevenue,
		HashPriceUSDPerTHPerDay: hashPrice,
		EstimatedDailyEnergyGWH: networkTHS * networkEfficiencyJPerTH * 24 / 1e9,
	}
}

// Profitability derives per-device economics for one hardware profile given
// the hash price. ROI is +Inf when the device never pays itself back; the
// value stays comparable and formattable downstream.
func (c *Calculator) Profitability(hashPriceUSD float64, hw model.HardwareProfile, ts time.Time) model.ProfitabilityAnalysis {
	dailyRevenue := hashPriceUSD * hw.HashrateTHS
	dailyEnergyCost := hw.PowerW * 24 / 1000 * hw.EnergyCostKWH
	dailyProfit := dailyRevenue - dailyEnergyCost

	margin := 0.0
	if dailyRevenue > 0 {
		margin = dailyProfit / dailyRevenue * 100
	}

	roiDays := math.Inf(1)
	if dailyProfit > 0 {
		roiDays = hw.HardwareCostUSD / dailyProfit
	}

	return model.ProfitabilityAnalysis{
		Timestamp:          ts.UTC(),
		MinerModel:         hw.Model,
		DailyRevenueUSD:    dailyRevenue,
		DailyEnergyCostUSD: dailyEnergyCost,
		DailyProfitUSD:     dailyProfit,
		ProfitMarginPct:    margin,
		ROIDays:            roiDays,
		Status:             StatusFor(dailyProfit),
	}
}

// StatusFor classifies a daily profit figure. Displays re-derive the status
// from the stored profit instead of trusting a persisted flag.
func StatusFor(dailyProfitUSD float64) model.Status {
	if dailyProfitUSD > 0 {
		return model.StatusProfit
	}
	return model.StatusLoss
}
