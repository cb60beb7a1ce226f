// Package config loads the data-source configuration for the collector.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

const (
	defaultUserAgent = "Bitcoin-Mining-Analytics/1.0"
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 1
)

// sourceSpec mirrors one entry of the blockchain_data section in
// data_sources.yaml.
type sourceSpec struct {
	BaseURL        string            `mapstructure:"base_url"`
	Endpoints      map[string]string `mapstructure:"endpoints"`
	RateLimit      int               `mapstructure:"rate_limit"`
	TimeoutSeconds int               `mapstructure:"timeout"`
	APIKeyRequired bool              `mapstructure:"api_key_required"`
	APIKey         string            `mapstructure:"api_key"`
}

// LoadDataSources reads the data-source configuration from a YAML file. An
// absent or malformed file falls back to the hard-coded default set so that a
// collector can always be constructed.
func LoadDataSources(path string, logger *zap.Logger) map[string]model.DataSourceConfig {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("data sources config not readable, using defaults",
			zap.String("path", path), zap.Error(err))
		return DefaultDataSources()
	}

	specs := map[string]sourceSpec{}
	if err := v.UnmarshalKey("blockchain_data", &specs); err != nil {
		logger.Warn("data sources config malformed, using defaults",
			zap.String("path", path), zap.Error(err))
		return DefaultDataSources()
	}
	if len(specs) == 0 {
		logger.Warn("data sources config has no blockchain_data entries, using defaults",
			zap.String("path", path))
		return DefaultDataSources()
	}

	sources := make(map[string]model.DataSourceConfig, len(specs))
	for name, spec := range specs {
		sources[name] = newSourceConfig(name, spec)
	}
	logger.Info("data sources config loaded", zap.String("path", path), zap.Int("sources", len(sources)))
	return sources
}

func newSourceConfig(name string, spec sourceSpec) model.DataSourceConfig {
	timeout := defaultTimeout
	if spec.TimeoutSeconds > 0 {
		timeout = time.Duration(spec.TimeoutSeconds) * time.Second
	}
	rateLimit := spec.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	return model.DataSourceConfig{
		Name:           name,
		BaseURL:        spec.BaseURL,
		Endpoints:      spec.Endpoints,
		RateLimit:      rateLimit,
		Timeout:        timeout,
		APIKeyRequired: spec.APIKeyRequired,
		APIKey:         spec.APIKey,
		Headers:        map[string]string{"User-Agent": defaultUserAgent},
	}
}

// DefaultDataSources returns the built-in three-source configuration covering
// network stats, mempool/fee stats and market price.
func DefaultDataSources() map[string]model.DataSourceConfig {
	defaults := map[string]model.DataSourceConfig{
		"blockchair": {
			Name:    "blockchair",
			BaseURL: "https://api.blockchair.com/bitcoin",
			Endpoints: map[string]string{
				"stats":        "/stats",
				"blocks":       "/blocks",
				"transactions": "/transactions",
				"mempool":      "/mempool",
			},
			RateLimit: 10,
		},
		"mempool_space": {
			Name:    "mempool_space",
			BaseURL: "https://mempool.space/api",
			Endpoints: map[string]string{
				"stats":   "/v1/blocks",
				"fees":    "/v1/fees/recommended",
				"mempool": "/mempool",
			},
			RateLimit: 15,
		},
		"coingecko": {
			Name:    "coingecko",
			BaseURL: "https://api.coingecko.com/api/v3",
			Endpoints: map[string]string{
				"price": "/simple/price?ids=bitcoin&vs_currencies=usd&include_24hr_change=true",
			},
			RateLimit: 5,
		},
	}

	for name, cfg := range defaults {
		cfg.Timeout = defaultTimeout
		cfg.Headers = map[string]string{"User-Agent": defaultUserAgent}
		defaults[name] = cfg
	}
	return defaults
}

// Validate checks a source config for the fields the collector cannot work
// without.
func Validate(cfg model.DataSourceConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("source %s: base_url is required", cfg.Name)
	}
	return nil
}
