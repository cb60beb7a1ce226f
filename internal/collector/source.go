// Package collector fetches Bitcoin network and market data from configured
// public APIs and consolidates the results of one collection cycle.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/ratelimit"

	"github.com/goodnatureofminers/mining-analytics-backend/internal/model"
)

// Source is one external data source the collector can fetch from. Fetch
// returns the parsed top-level payload for the source; implementations map
// their API shape into flat, source-specific field names.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (map[string]any, error)
}

// apiClient wraps an HTTP client with the per-source timeout, rate limit and
// default headers from the source configuration.
type apiClient struct {
	cfg     model.DataSourceConfig
	http    *http.Client
	limiter ratelimit.Limiter
}

func newAPIClient(cfg model.DataSourceConfig) *apiClient {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1
	}
	return &apiClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.New(rps),
	}
}

// endpoint resolves a named endpoint path, falling back when the config does
// not override it.
func (c *apiClient) endpoint(name, fallback string) string {
	if p, ok := c.cfg.Endpoints[name]; ok && p != "" {
		return p
	}
	return fallback
}

// getJSON issues a rate-limited GET and decodes the JSON body into out.
// Numbers are decoded as json.Number so arbitrarily large hash rates survive
// untouched.
func (c *apiClient) getJSON(ctx context.Context, path string, out any) error {
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.cfg.Name, err)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request: %w", c.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", c.cfg.Name, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.cfg.Name, err)
	}
	return nil
}
