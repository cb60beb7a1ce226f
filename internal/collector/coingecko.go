package collector

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

// CoinGecko supplies the BTC market price.
type CoinGecko struct {
	client *apiClient
	logger *zap.Logger
}

// NewCoinGecko constructs the CoinGecko source from its configuration.
func NewCoinGecko(cfg model.DataSourceConfig, logger *zap.Logger) *CoinGecko {
	return &CoinGecko{
		client: newAPIClient(cfg),
		logger: logger.Named("coingecko"),
	}
}

func (c *CoinGecko) Name() string { return c.client.cfg.Name }

// Fetch collects the simple price payload for bitcoin.
func (c *CoinGecko) Fetch(ctx context.Context) (map[string]any, error) {
	var resp map[string]map[string]any
	path := c.client.endpoint("price", "/simple/price?ids=bitcoin&vs_currencies=usd&include_24hr_change=true")
	if err := c.client.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	btc, ok := resp["bitcoin"]
	if !ok || len(btc) == 0 {
		return nil, errors.New("coingecko: response has no bitcoin entry")
	}

	return map[string]any{
		"price_usd":        btc["usd"],
		"price_24h_change": btc["usd_24h_change"],
	}, nil
}
