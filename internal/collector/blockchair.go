package collector

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

// Blockchair is the primary data source. Its /stats payload carries the full
// set of network metrics the pipeline persists.
type Blockchair struct {
	client *apiClient
	logger *zap.Logger
}

// NewBlockchair constructs the Blockchair source from its configuration.
func NewBlockchair(cfg model.DataSourceConfig, logger *zap.Logger) *Blockchair {
	return &Blockchair{
		client: newAPIClient(cfg),
		logger: logger.Named("blockchair"),
	}
}

func (b *Blockchair) Name() string { return b.client.cfg.Name }

type blockchairStatsResponse struct {
	Data map[string]any `json:"data"`
}

type blockchairBlocksResponse struct {
	Data []any `json:"data"`
}

// Fetch collects the /stats payload and, best effort, attaches the most
// recent blocks. A missing stats payload fails the source; a failing blocks
// request only loses the extra field.
func (b *Blockchair) Fetch(ctx context.Context) (map[string]any, error) {
	var stats blockchairStatsResponse
	if err := b.client.getJSON(ctx, b.client.endpoint("stats", "/stats"), &stats); err != nil {
		return nil, err
	}
	if len(stats.Data) == 0 {
		return nil, errors.New("blockchair: stats payload has no data")
	}

	var blocks blockchairBlocksResponse
	if err := b.client.getJSON(ctx, b.client.endpoint("blocks", "/blocks?limit=1"), &blocks); err != nil {
		b.logger.Debug("recent blocks not collected", zap.Error(err))
	} else if len(blocks.Data) > 0 {
		stats.Data["recent_blocks"] = blocks.Data
	}

	return stats.Data, nil
}
