// Package dexscreener provides a client for the DexScreener public API.
package dexscreener

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/solscout/scout-cli/internal/fetcher"
)

// Client defines the DexScreener operations the scanner uses.
type Client interface {
	// TopBoosted returns the currently boosted token list.
	TopBoosted(ctx context.Context) ([]BoostedToken, error)
	// Pairs returns the trading pairs for a token address on a chain.
	Pairs(ctx context.Context, chainID, tokenAddress string) ([]Pair, error)
}

// BoostedToken is one entry from the token-boosts endpoint.
type BoostedToken struct {
	URL          string  `json:"url"`
	ChainID      string  `json:"chainId"`
	TokenAddress string  `json:"tokenAddress"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	TotalAmount  float64 `json:"totalAmount"`
}

// Pair is a single trading pair from the pairs endpoint.
type Pair struct {
	ChainID     string    `json:"chainId"`
	DexID       string    `json:"dexId"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   TokenInfo `json:"baseToken"`
	PriceUSD    string    `json:"priceUsd"`
	Volume      Window    `json:"volume"`
	PriceChange Window    `json:"priceChange"`
	Liquidity   Liquidity `json:"liquidity"`
	FDV         float64   `json:"fdv"`
}

// TokenInfo identifies the base token of a pair.
type TokenInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Window holds the 24h slice of a windowed metric.
type Window struct {
	H24 float64 `json:"h24"`
}

// Liquidity is the pooled liquidity of a pair.
type Liquidity struct {
	USD float64 `json:"usd"`
}

type pairsResponse struct {
	Pairs []Pair `json:"pairs"`
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

// NewClient creates a DexScreener client on top of the given fetcher.
func NewClient(f *fetcher.Client, opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.dexscreener.com",
		fetch:   f,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) TopBoosted(ctx context.Context) ([]BoostedToken, error) {
	var out []BoostedToken
	if err := c.fetch.GetJSON(ctx, c.baseURL+"/token-boosts/top/v1", &out); err != nil {
		return nil, eris.Wrap(err, "dexscreener: top boosted")
	}
	return out, nil
}

func (c *httpClient) Pairs(ctx context.Context, chainID, tokenAddress string) ([]Pair, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, tokenAddress)
	var out pairsResponse
	if err := c.fetch.GetJSON(ctx, url, &out); err != nil {
		return nil, eris.Wrapf(err, "dexscreener: pairs for %s", tokenAddress)
	}

	// The endpoint is cross-chain; keep only the requested chain.
	pairs := make([]Pair, 0, len(out.Pairs))
	for _, p := range out.Pairs {
		if chainID == "" || p.ChainID == chainID {
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}
