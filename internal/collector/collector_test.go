package collector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	name    string
	payload map[string]any
	err     error
	delay   time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) (map[string]any, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type nopFetchMetrics struct{}

func (nopFetchMetrics) Observe(string, error, time.Time) {}

func validPrimaryPayload() map[string]any {
	return map[string]any{
		"blocks":           json.Number("820000"),
		"transactions":     json.Number("850000000"),
		"difficulty":       json.Number("80000000000"),
		"hashrate_24h":     "720000000000000000000",
		"market_price_usd": json.Number("65000"),
		"nodes":            nil,
	}
}

func newTestCollector(t *testing.T, sources ...Source) *Collector {
	t.Helper()
	c, err := New(sources, "blockchair", zap.NewNop(), nopFetchMetrics{})
	require.NoError(t, err)
	return c
}

func TestCollectFromAllSources_AllSucceed(t *testing.T) {
	c := newTestCollector(t,
		&fakeSource{name: "blockchair", payload: validPrimaryPayload()},
		&fakeSource{name: "mempool_space", payload: map[string]any{"recommended_fees": map[string]any{}, "mempool_size": json.Number("1"), "mempool_transactions": json.Number("2")}},
		&fakeSource{name: "coingecko", payload: map[string]any{"price_usd": json.Number("65000"), "price_24h_change": json.Number("1.2")}},
	)

	b := c.CollectFromAllSources(context.Background())

	assert.Equal(t, []string{"blockchair", "mempool_space", "coingecko"}, b.SuccessSources)
	assert.Empty(t, b.FailedSources)
	assert.Equal(t, "blockchair", b.PrimarySource)
	assert.NotNil(t, b.PrimaryData)
	assert.NotEmpty(t, b.Sources["blockchair"].DataHash)
	assert.False(t, b.CollectionEnd.Before(b.CollectionStart))
	assert.Same(t, b, c.LastBundle())
}

func TestCollectFromAllSources_TwoOfThreeFail(t *testing.T) {
	c := newTestCollector(t,
		&fakeSource{name: "blockchair", err: errors.New("timeout"), delay: 30 * time.Millisecond},
		&fakeSource{name: "mempool_space", err: errors.New("status 500")},
		&fakeSource{name: "coingecko", payload: map[string]any{"price_usd": json.Number("65000"), "price_24h_change": json.Number("1.2")}},
	)

	started := time.Now()
	b := c.CollectFromAllSources(context.Background())

	assert.Equal(t, []string{"coingecko"}, b.SuccessSources)
	assert.ElementsMatch(t, []string{"blockchair", "mempool_space"}, b.FailedSources)
	assert.Nil(t, b.Sources["blockchair"])
	assert.Nil(t, b.PrimaryData)
	// Batch completes once the slowest source resolves, not cumulatively.
	assert.Less(t, time.Since(started), time.Second)
}

func TestCollectFromAllSources_AllFail(t *testing.T) {
	c := newTestCollector(t,
		&fakeSource{name: "blockchair", err: errors.New("down")},
		&fakeSource{name: "mempool_space", err: errors.New("down")},
		&fakeSource{name: "coingecko", err: errors.New("down")},
	)

	b := c.CollectFromAllSources(context.Background())

	require.NotNil(t, b)
	assert.Empty(t, b.SuccessSources)
	assert.Len(t, b.FailedSources, 3)
	for _, result := range b.Sources {
		assert.Nil(t, result)
	}
	assert.Nil(t, b.PrimaryData)
}

func TestCollectFromAllSources_PrimaryMissingCriticalFields(t *testing.T) {
	payload := map[string]any{"blocks": json.Number("820000"), "market_price_usd": json.Number("65000")}
	c := newTestCollector(t,
		&fakeSource{name: "blockchair", payload: payload},
		&fakeSource{name: "coingecko", payload: map[string]any{"price_usd": json.Number("65000"), "price_24h_change": json.Number("2")}},
	)

	b := c.CollectFromAllSources(context.Background())

	// Invalid primary data counts as failed but is still returned for audit.
	assert.Equal(t, []string{"coingecko"}, b.SuccessSources)
	assert.Equal(t, []string{"blockchair"}, b.FailedSources)
	require.NotNil(t, b.Sources["blockchair"])
	assert.False(t, b.Sources["blockchair"].Validation.IsValid)
	assert.ElementsMatch(t, []string{"transactions", "difficulty", "hashrate_24h"},
		b.Sources["blockchair"].Validation.MissingCriticalFields)
	// PrimaryData stays available for logging even though the source failed
	// validation.
	assert.Equal(t, payload, b.PrimaryData)
}

func TestValidateDataQuality(t *testing.T) {
	c := newTestCollector(t, &fakeSource{name: "blockchair"})

	t.Run("empty payload", func(t *testing.T) {
		v := c.ValidateDataQuality(nil, "blockchair")
		assert.False(t, v.IsValid)
		assert.Contains(t, v.Warnings, "empty payload")
	})

	t.Run("secondary source needs only data", func(t *testing.T) {
		v := c.ValidateDataQuality(map[string]any{"price_usd": 1.0}, "coingecko")
		assert.True(t, v.IsValid)
		assert.Contains(t, v.Warnings, "few fields collected")
	})

	t.Run("primary with all critical fields", func(t *testing.T) {
		v := c.ValidateDataQuality(validPrimaryPayload(), "blockchair")
		assert.True(t, v.IsValid)
		assert.Empty(t, v.MissingCriticalFields)
	})
}

func TestBundle_PrimaryMetrics(t *testing.T) {
	b := &Bundle{PrimaryData: map[string]any{
		"blocks":           json.Number("820000"),
		"market_price_usd": json.Number("65000"),
		"nodes":            nil,              // dropped: null value
		"recent_blocks":    []any{},          // dropped: not in allow-list
		"hashrate_24h":     "7.2e20 garbage", // kept: extraction does not coerce
	}}

	m := b.PrimaryMetrics()

	assert.Equal(t, json.Number("820000"), m["blocks"])
	assert.Equal(t, json.Number("65000"), m["market_price_usd"])
	assert.NotContains(t, m, "nodes")
	assert.NotContains(t, m, "recent_blocks")
	assert.Contains(t, m, "hashrate_24h")
}

func TestHashPayload_Deterministic(t *testing.T) {
	a := map[string]any{"blocks": 820000, "difficulty": 8e10}
	b := map[string]any{"difficulty": 8e10, "blocks": 820000}

	require.NotEmpty(t, hashPayload(a))
	assert.Equal(t, hashPayload(a), hashPayload(b))
	assert.NotEqual(t, hashPayload(a), hashPayload(map[string]any{"blocks": 820001, "difficulty": 8e10}))
}

func TestFallbackSnapshot(t *testing.T) {
	snap := FallbackSnapshot()

	assert.Equal(t, FallbackSource, snap["source"])
	assert.Equal(t, false, snap["realtime"])
	assert.Equal(t, json.Number("102966.0"), snap["market_price_usd"])
	assert.Equal(t, "450000000000000000000", snap["hashrate_24h"])
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "", zap.NewNop(), nopFetchMetrics{})
	assert.Error(t, err)

	_, err = New([]Source{&fakeSource{name: "blockchair"}}, "", zap.NewNop(), nil)
	assert.Error(t, err)

	_, err = New([]Source{&fakeSource{name: "coingecko"}}, "blockchair", zap.NewNop(), nopFetchMetrics{})
	assert.Error(t, err)

	c, err := New([]Source{&fakeSource{name: "coingecko"}}, "", zap.NewNop(), nopFetchMetrics{})
	require.NoError(t, err)
	assert.Equal(t, "coingecko", c.primary)
}
