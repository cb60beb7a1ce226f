package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDataSources_MissingFileUsesDefaults(t *testing.T) {
	sources := LoadDataSources(filepath.Join(t.TempDir(), "nope.yaml"), zap.NewNop())

	require.Len(t, sources, 3)
	assert.Contains(t, sources, "blockchair")
	assert.Contains(t, sources, "mempool_space")
	assert.Contains(t, sources, "coingecko")
	assert.Equal(t, "https://api.blockchair.com/bitcoin", sources["blockchair"].BaseURL)
	assert.Equal(t, 30*time.Second, sources["blockchair"].Timeout)
	assert.Equal(t, "Bitcoin-Mining-Analytics/1.0", sources["blockchair"].Headers["User-Agent"])
}

func TestLoadDataSources_MalformedFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	sources := LoadDataSources(path, zap.NewNop())
	require.Len(t, sources, 3)
	assert.Contains(t, sources, "blockchair")
}

func TestLoadDataSources_ParsesFile(t *testing.T) {
	const doc = `
blockchain_data:
  blockchair:
    base_url: https://example.test/bitcoin
    endpoints:
      stats: /stats
    rate_limit: 7
    timeout: 12
  custom_source:
    base_url: https://custom.test
    api_key_required: true
    api_key: secret
`
	path := filepath.Join(t.TempDir(), "data_sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	sources := LoadDataSources(path, zap.NewNop())
	require.Len(t, sources, 2)

	bc := sources["blockchair"]
	assert.Equal(t, "https://example.test/bitcoin", bc.BaseURL)
	assert.Equal(t, "/stats", bc.Endpoints["stats"])
	assert.Equal(t, 7, bc.RateLimit)
	assert.Equal(t, 12*time.Second, bc.Timeout)

	custom := sources["custom_source"]
	assert.True(t, custom.APIKeyRequired)
	assert.Equal(t, "secret", custom.APIKey)
	// Unset fields get defaults.
	assert.Equal(t, 1, custom.RateLimit)
	assert.Equal(t, 30*time.Second, custom.Timeout)
}

func TestValidate(t *testing.T) {
	valid := DefaultDataSources()["blockchair"]
	assert.NoError(t, Validate(valid))

	noName := valid
	noName.Name = ""
	assert.Error(t, Validate(noName))

	noURL := valid
	noURL.BaseURL = ""
	assert.Error(t, Validate(noURL))
}
