package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
	"github.com/goodnatureofminers/mining-analytics-backend/pkg/safe"
)

// NetworkMetrics maps a raw primary payload into the canonical record. The
// caller supplies the capture timestamp and source tag; given the same inputs
// the output is identical, so normalization can be replayed for audits. The
// full payload is serialized into RawData for fields the schema does not model.
func NetworkMetrics(payload map[string]any, ts time.Time, source string) (model.NetworkMetrics, error) {
	if source == "" {
		return model.NetworkMetrics{}, fmt.Errorf("source tag is required")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return model.NetworkMetrics{}, fmt.Errorf("marshal raw payload: %w", err)
	}

	return model.NetworkMetrics{
		Timestamp:           ts.UTC(),
		DataSource:          source,
		Blocks24h:           safe.Int64(payload["blocks_24h"], 0),
		Transactions24h:     safe.Int64(payload["transactions_24h"], 0),
		Difficulty:          safe.Float64(payload["difficulty"], 0),
		HashrateEHS:         ParseHashRate(payload["hashrate_24h"]).EHS(),
		MarketPriceUSD:      safe.Float64(payload["market_price_usd"], 0),
		MempoolTransactions: safe.Int64(payload["mempool_transactions"], 0),
		AverageFeeUSD24h:    safe.Float64(payload["average_transaction_fee_usd_24h"], 0),
		Nodes:               safe.Int64(payload["nodes"], 0),
		BlockchainSizeBytes: safe.Int64(payload["blockchain_size"], 0),
		RawData:             raw,
	}, nil
}
