package collector

import "encoding/json"

// FallbackSource is the provenance tag for synthetic payloads.
const FallbackSource = "fallback"

// FallbackSnapshot returns the last-known-good default payload used when every
// configured source fails, so downstream persistence and display code never
// see a fully empty record. The payload is tagged so consumers can tell
// synthetic data from live data.
func FallbackSnapshot() map[string]any {
	return map[string]any{
		"blocks":               json.Number("820000"),
		"transactions":         json.Number("850000000"),
		"blocks_24h":           json.Number("144"),
		"difficulty":           json.Number("80000000000"),
		"hashrate_24h":         "450000000000000000000", // 450 EH/s
		"market_price_usd":     json.Number("102966.0"),
		"price_24h_change":     json.Number("2.1"),
		"mempool_transactions": json.Number("12500"),
		"mempool_size":         json.Number("85000000"),
		"source":               FallbackSource,
		"realtime":             false,
	}
}
