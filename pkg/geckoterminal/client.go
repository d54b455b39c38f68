// Package geckoterminal provides a client for the GeckoTerminal API.
package geckoterminal

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/solscout/scout-cli/internal/fetcher"
)

// Client defines the GeckoTerminal operations the scanner uses.
type Client interface {
	// TrendingPools returns the trending pools for a network.
	TrendingPools(ctx context.Context, network string) ([]Pool, error)
	// NewPools returns the most recently created pools for a network.
	NewPools(ctx context.Context, network string) ([]Pool, error)
}

// Pool is one pool from the pools endpoints, flattened from the JSON:API
// envelope GeckoTerminal wraps everything in.
type Pool struct {
	ID         string         `json:"id"`
	Attributes PoolAttributes `json:"attributes"`
	Relations  poolRelations  `json:"relationships"`
}

// PoolAttributes carries the pool metrics.
type PoolAttributes struct {
	Name              string            `json:"name"`
	BaseTokenPriceUSD string            `json:"base_token_price_usd"`
	ReserveInUSD      string            `json:"reserve_in_usd"`
	PoolCreatedAt     string            `json:"pool_created_at"`
	VolumeUSD         map[string]string `json:"volume_usd"`
	PriceChangePct    map[string]string `json:"price_change_percentage"`
}

type poolRelations struct {
	BaseToken struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"base_token"`
}

// BaseTokenAddress extracts the raw token address from the relationship id,
// which GeckoTerminal prefixes with the network name ("solana_<address>").
func (p Pool) BaseTokenAddress() string {
	id := p.Relations.BaseToken.Data.ID
	if i := strings.IndexByte(id, '_'); i >= 0 {
		return id[i+1:]
	}
	return id
}

type poolsResponse struct {
	Data []Pool `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

type httpClient struct {
	baseURL string
	fetch   *fetcher.Client
}

// NewClient creates a GeckoTerminal client on top of the given fetcher.
func NewClient(f *fetcher.Client, opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.geckoterminal.com/api/v2",
		fetch:   f,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) TrendingPools(ctx context.Context, network string) ([]Pool, error) {
	url := fmt.Sprintf("%s/networks/%s/trending_pools", c.baseURL, network)
	var out poolsResponse
	if err := c.fetch.GetJSON(ctx, url, &out); err != nil {
		return nil, eris.Wrapf(err, "geckoterminal: trending pools on %s", network)
	}
	return out.Data, nil
}

func (c *httpClient) NewPools(ctx context.Context, network string) ([]Pool, error) {
	url := fmt.Sprintf("%s/networks/%s/new_pools", c.baseURL, network)
	var out poolsResponse
	if err := c.fetch.GetJSON(ctx, url, &out); err != nil {
		return nil, eris.Wrapf(err, "geckoterminal: new pools on %s", network)
	}
	return out.Data, nil
}
