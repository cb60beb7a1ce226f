package store

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

type nopStoreMetrics struct{}

func (nopStoreMetrics) Observe(string, error, time.Time) {}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "analytics.db"), zap.NewNop(), nopStoreMetrics{})
	require.NoError(t, err)
	return s
}

func sampleMetrics(ts time.Time) model.NetworkMetrics {
	return model.NetworkMetrics{
		Timestamp:           ts,
		DataSource:          "blockchair",
		Blocks24h:           144,
		Transactions24h:     420000,
		Difficulty:          8e10,
		HashrateEHS:         450,
		MarketPriceUSD:      65000.5,
		MempoolTransactions: 12500,
		AverageFeeUSD24h:    2.35,
		Nodes:               17000,
		BlockchainSizeBytes: 520_000_000_000,
		RawData:             json.RawMessage(`{"blocks": 820000}`),
	}
}

func TestStore_New_RequiresPathAndMetrics(t *testing.T) {
	_, err := New("", zap.NewNop(), nopStoreMetrics{})
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "x.db"), zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestStore_New_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")
	_, err := New(path, zap.NewNop(), nopStoreMetrics{})
	require.NoError(t, err)

	// Reopening an already migrated database must not fail.
	_, err = New(path, zap.NewNop(), nopStoreMetrics{})
	require.NoError(t, err)
}

func TestStore_SaveNetworkMetrics_AssignsDenseIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		id, err := s.SaveNetworkMetrics(ctx, sampleMetrics(base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}
}

func TestStore_SaveNetworkMetrics_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 27, 10, 30, 45, 123_000_000, time.UTC)

	want := sampleMetrics(ts)
	id, err := s.SaveNetworkMetrics(ctx, want)
	require.NoError(t, err)

	rows, err := s.LatestMetrics(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "blockchair", got.DataSource)
	assert.Equal(t, want.HashrateEHS, got.HashrateEHS)
	assert.Equal(t, want.MarketPriceUSD, got.MarketPriceUSD)
	assert.Equal(t, want.BlockchainSizeBytes, got.BlockchainSizeBytes)
	// Timestamps survive with millisecond precision.
	assert.True(t, got.Timestamp.Equal(ts))
	// RawData is deliberately excluded from listing queries.
	assert.Nil(t, got.RawData)
}

func TestStore_LatestMetrics_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := s.SaveNetworkMetrics(ctx, sampleMetrics(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	rows, err := s.LatestMetrics(ctx, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(5), rows[0].ID)
	assert.Equal(t, int64(4), rows[1].ID)
	assert.Equal(t, int64(3), rows[2].ID)
	assert.True(t, rows[0].Timestamp.After(rows[1].Timestamp))
}

func TestStore_SaveProfitabilityAnalysis_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 27, 11, 0, 0, 0, time.UTC)

	want := model.ProfitabilityAnalysis{
		Timestamp:          ts,
		MinerModel:         "Antminer S19 XP",
		DailyRevenueUSD:    16.38,
		DailyEnergyCostUSD: 5.7792,
		DailyProfitUSD:     10.6008,
		ProfitMarginPct:    64.71,
		ROIDays:            424.5,
		Status:             model.StatusProfit,
	}
	require.NoError(t, s.SaveProfitabilityAnalysis(ctx, want, 7))

	rows, err := s.LatestProfitability(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, int64(7), got.NetworkMetricsID)
	assert.Equal(t, want.MinerModel, got.MinerModel)
	assert.Equal(t, want.DailyProfitUSD, got.DailyProfitUSD)
	assert.Equal(t, want.ROIDays, got.ROIDays)
	assert.Equal(t, model.StatusProfit, got.Status)
	assert.True(t, got.Timestamp.Equal(ts))
}

func TestStore_SaveProfitabilityAnalysis_InfiniteROI(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := model.ProfitabilityAnalysis{
		Timestamp:      time.Now(),
		MinerModel:     "Antminer S19 XP",
		DailyProfitUSD: -1.5,
		ROIDays:        math.Inf(1),
		Status:         model.StatusLoss,
	}
	require.NoError(t, s.SaveProfitabilityAnalysis(ctx, p, 1))

	rows, err := s.LatestProfitability(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, math.IsInf(rows[0].ROIDays, 1))
}

func TestStore_SaveSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := model.Snapshot{
		Timestamp:  time.Now(),
		Type:       "dashboard_run",
		DataSource: "blockchair",
		Data:       json.RawMessage(`{"network_data": {"blocks": 820000}}`),
	}
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Snapshots)
}

func TestStore_Info_EmptyDatabase(t *testing.T) {
	s := newTestStore(t)

	info, err := s.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, s.Path(), info.Path)
	assert.Positive(t, info.SizeBytes)
	assert.Zero(t, info.NetworkMetrics)
	assert.Zero(t, info.Profitability)
	assert.Zero(t, info.Snapshots)
	assert.True(t, info.OldestMetric.IsZero())
	assert.True(t, info.NewestMetric.IsZero())
}

func TestStore_Info_TimeRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	oldest := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	newest := time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)

	_, err := s.SaveNetworkMetrics(ctx, sampleMetrics(oldest))
	require.NoError(t, err)
	_, err = s.SaveNetworkMetrics(ctx, sampleMetrics(newest))
	require.NoError(t, err)

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.NetworkMetrics)
	assert.True(t, info.OldestMetric.Equal(oldest))
	assert.True(t, info.NewestMetric.Equal(newest))
}

func TestStore_Wipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveNetworkMetrics(ctx, sampleMetrics(time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.SaveProfitabilityAnalysis(ctx, model.ProfitabilityAnalysis{Timestamp: time.Now(), Status: model.StatusLoss, ROIDays: math.Inf(1)}, id))

	require.NoError(t, s.Wipe(ctx))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.NetworkMetrics)
	assert.Zero(t, info.Profitability)

	// IDs restart after a wipe.
	id, err = s.SaveNetworkMetrics(ctx, sampleMetrics(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}
