package collector

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

// MempoolSpace supplies mempool depth and recommended fee rates.
type MempoolSpace struct {
	client *apiClient
	logger *zap.Logger
}

// NewMempoolSpace constructs the mempool.space source from its configuration.
func NewMempoolSpace(cfg model.DataSourceConfig, logger *zap.Logger) *MempoolSpace {
	return &MempoolSpace{
		client: newAPIClient(cfg),
		logger: logger.Named("mempool_space"),
	}
}

func (m *MempoolSpace) Name() string { return m.client.cfg.Name }

// Fetch collects recommended fees and mempool stats. Either request may fail
// on its own; the source only fails when both do.
func (m *MempoolSpace) Fetch(ctx context.Context) (map[string]any, error) {
	payload := map[string]any{}

	var fees map[string]any
	feesErr := m.client.getJSON(ctx, m.client.endpoint("fees", "/v1/fees/recommended"), &fees)
	if feesErr != nil {
		m.logger.Debug("recommended fees not collected", zap.Error(feesErr))
	} else {
		payload["recommended_fees"] = fees
	}

	var mempool map[string]any
	mempoolErr := m.client.getJSON(ctx, m.client.endpoint("mempool", "/mempool"), &mempool)
	if mempoolErr != nil {
		m.logger.Debug("mempool stats not collected", zap.Error(mempoolErr))
	} else {
		payload["mempool_size"] = mempool["vsize"]
		payload["mempool_transactions"] = mempool["count"]
		payload["mempool"] = mempool
	}

	if len(payload) == 0 {
		return nil, errors.Join(feesErr, mempoolErr)
	}
	return payload, nil
}
