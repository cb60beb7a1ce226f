package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/config"
	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
	"github.com/goodnatureofminers/mining-analytics-backend/pkg/gather"
)

// criticalFields lists the payload fields the primary source must deliver for
// its data to be considered valid.
var criticalFields = []string{"blocks", "transactions", "difficulty", "hashrate_24h"}

// primaryMetricFields is the allow-list Bundle.PrimaryMetrics extracts from
// the primary payload.
var primaryMetricFields = []string{
	"blocks", "transactions", "outputs", "circulation",
	"blocks_24h", "transactions_24h", "difficulty", "volume_24h",
	"mempool_transactions", "mempool_size", "mempool_tps",
	"best_block_height", "best_block_hash", "best_block_time",
	"blockchain_size", "average_transaction_fee_24h",
	"average_transaction_fee_usd_24h", "median_transaction_fee_24h",
	"suggested_transaction_fee_per_byte_sat", "nodes", "hashrate_24h",
	"market_price_usd", "market_cap_usd", "market_dominance_percentage",
	"next_difficulty_estimate", "hodling_addresses",
}

// Validation is the data-quality verdict for one source payload.
type Validation struct {
	Source                string   `json:"source"`
	IsValid               bool     `json:"is_valid"`
	FieldsCount           int      `json:"fields_count"`
	MissingCriticalFields []string `json:"missing_critical_fields,omitempty"`
	Warnings              []string `json:"warnings,omitempty"`
}

// SourceResult is the per-source slot of a collection bundle. Data is nil for
// a source that failed outright.
type SourceResult struct {
	Data        map[string]any `json:"data"`
	Validation  Validation     `json:"validation"`
	DataHash    string         `json:"data_hash"`
	CollectedAt time.Time      `json:"collection_timestamp"`
}

// Bundle consolidates one collection cycle across all configured sources.
// PrimaryData carries the primary source's parsed payload; callers must check
// SuccessSources before trusting it.
type Bundle struct {
	CollectionStart time.Time                `json:"collection_start"`
	CollectionEnd   time.Time                `json:"collection_end"`
	Duration        time.Duration            `json:"duration"`
	Sources         map[string]*SourceResult `json:"sources"`
	SuccessSources  []string                 `json:"success_sources"`
	FailedSources   []string                 `json:"failed_sources"`
	PrimarySource   string                   `json:"primary_source"`
	PrimaryData     map[string]any           `json:"primary_data"`
}

// FetchMetrics records metrics for source fetches.
type FetchMetrics interface {
	Observe(source string, err error, started time.Time)
}

// Collector fans out to all configured sources and consolidates the results.
// It holds no persistent state beyond the last collected bundle.
type Collector struct {
	sources []Source
	primary string
	logger  *zap.Logger
	metrics FetchMetrics
	now     func() time.Time

	lastBundle *Bundle
}

// New constructs a Collector. The primary source must be among the given
// sources; its payload becomes the bundle's PrimaryData.
func New(sources []Source, primary string, logger *zap.Logger, metrics FetchMetrics) (*Collector, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	if metrics == nil {
		return nil, errors.New("fetch metrics is required")
	}
	if primary == "" {
		primary = sources[0].Name()
	}
	found := false
	for _, src := range sources {
		if src.Name() == primary {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("primary source %q is not configured", primary)
	}

	return &Collector{
		sources: sources,
		primary: primary,
		logger:  logger.Named("collector"),
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// BuildSources instantiates the known source fetchers from configuration in a
// deterministic order, primary first. Unknown source names are skipped with a
// warning. Returns the sources and the primary source name.
func BuildSources(cfgs map[string]model.DataSourceConfig, logger *zap.Logger) ([]Source, string, error) {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	// Fixed preference order keeps blockchair primary when present.
	ordered := make([]string, 0, len(names))
	for _, preferred := range []string{"blockchair", "mempool_space", "coingecko"} {
		if _, ok := cfgs[preferred]; ok {
			ordered = append(ordered, preferred)
		}
	}
	for _, name := range names {
		switch name {
		case "blockchair", "mempool_space", "coingecko":
		default:
			ordered = append(ordered, name)
		}
	}

	sources := make([]Source, 0, len(ordered))
	for _, name := range ordered {
		cfg := cfgs[name]
		if err := config.Validate(cfg); err != nil {
			return nil, "", err
		}
		switch name {
		case "blockchair":
			sources = append(sources, NewBlockchair(cfg, logger))
		case "mempool_space":
			sources = append(sources, NewMempoolSpace(cfg, logger))
		case "coingecko":
			sources = append(sources, NewCoinGecko(cfg, logger))
		default:
			logger.Warn("no fetcher for configured source, skipping", zap.String("source", name))
		}
	}
	if len(sources) == 0 {
		return nil, "", errors.New("no usable sources configured")
	}
	return sources, sources[0].Name(), nil
}

// CollectFromAllSources fetches from every source concurrently and returns the
// consolidated bundle. Individual failures never abort the batch; when every
// source fails the bundle is still returned with all entries nil.
func (c *Collector) CollectFromAllSources(ctx context.Context) *Bundle {
	start := c.now()
	c.logger.Info("starting collection cycle", zap.Int("sources", len(c.sources)))

	outcomes := gather.Map(ctx, c.sources, func(ctx context.Context, src Source) (*SourceResult, error) {
		started := time.Now()
		data, err := src.Fetch(ctx)
		c.metrics.Observe(src.Name(), err, started)
		if err != nil {
			c.logger.Warn("source fetch failed", zap.String("source", src.Name()), zap.Error(err))
			return nil, err
		}

		validation := c.ValidateDataQuality(data, src.Name())
		return &SourceResult{
			Data:        data,
			Validation:  validation,
			DataHash:    hashPayload(data),
			CollectedAt: c.now(),
		}, nil
	})

	bundle := &Bundle{
		CollectionStart: start,
		Sources:         make(map[string]*SourceResult, len(c.sources)),
		PrimarySource:   c.primary,
	}
	for i, src := range c.sources {
		name := src.Name()
		result := outcomes[i].Value
		bundle.Sources[name] = result

		switch {
		case result == nil:
			bundle.FailedSources = append(bundle.FailedSources, name)
		case !result.Validation.IsValid:
			c.logger.Warn("source data failed validation",
				zap.String("source", name),
				zap.Strings("missing", result.Validation.MissingCriticalFields))
			bundle.FailedSources = append(bundle.FailedSources, name)
		default:
			bundle.SuccessSources = append(bundle.SuccessSources, name)
		}
	}

	if primary := bundle.Sources[c.primary]; primary != nil {
		bundle.PrimaryData = primary.Data
	}

	bundle.CollectionEnd = c.now()
	bundle.Duration = bundle.CollectionEnd.Sub(bundle.CollectionStart)
	c.logger.Info("collection cycle finished",
		zap.Strings("success_sources", bundle.SuccessSources),
		zap.Strings("failed_sources", bundle.FailedSources),
		zap.Duration("duration", bundle.Duration))

	c.lastBundle = bundle
	return bundle
}

// LastBundle returns the most recent bundle, or nil before the first cycle.
func (c *Collector) LastBundle() *Bundle {
	return c.lastBundle
}

// ValidateDataQuality checks a payload against the quality rules for its
// source. The primary source must carry every critical field; secondary
// sources only need a non-empty payload.
func (c *Collector) ValidateDataQuality(data map[string]any, source string) Validation {
	v := Validation{Source: source, FieldsCount: len(data)}

	if len(data) == 0 {
		v.Warnings = append(v.Warnings, "empty payload")
		return v
	}

	if source == c.primary {
		for _, field := range criticalFields {
			if _, ok := data[field]; !ok {
				v.MissingCriticalFields = append(v.MissingCriticalFields, field)
			}
		}
		if len(v.MissingCriticalFields) > 0 {
			v.Warnings = append(v.Warnings, fmt.Sprintf("missing critical fields: %v", v.MissingCriticalFields))
		} else {
			v.IsValid = true
		}
	} else {
		v.IsValid = true
	}

	if len(data) < 3 {
		v.Warnings = append(v.Warnings, "few fields collected")
	}
	return v
}

// PrimaryMetrics extracts the canonical flat metric set from the primary
// payload, dropping absent and null fields. Pure: no I/O, no clock reads.
func (b *Bundle) PrimaryMetrics() map[string]any {
	metrics := make(map[string]any, len(primaryMetricFields))
	for _, field := range primaryMetricFields {
		if v, ok := b.PrimaryData[field]; ok && v != nil {
			metrics[field] = v
		}
	}
	return metrics
}

// hashPayload produces a content hash for deduplication and audit. Map keys
// are sorted by json.Marshal, so equal payloads hash equally.
func hashPayload(data map[string]any) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
