// Package birdeye provides a client for the Birdeye DeFi API.
package birdeye

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/solscout/scout-cli/internal/fetcher"
)

// Client defines the Birdeye operations the scanner uses.
type Client interface {
	// TokenList returns tokens sorted by 24h volume, highest first.
	TokenList(ctx context.Context, offset, limit int) ([]Token, error)
}

// Token is one entry from the tokenlist endpoint.
type Token struct {
	Address       string  `json:"address"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Decimals      int     `json:"decimals"`
	Liquidity     float64 `json:"liquidity"`
	MarketCap     float64 `json:"mc"`
	VolumeUSD24h  float64 `json:"v24hUSD"`
	VolumeChange  float64 `json:"v24hChangePercent"`
	LastTradeUnix int64   `json:"lastTradeUnixTime"`
}

type tokenListResponse struct {
	Success bool `json:"success"`
	Data    struct {
		UpdateUnixTime int64   `json:"updateUnixTime"`
		Tokens         []Token `json:"tokens"`
	} `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithChain sets the chain passed in the x-chain header. Defaults to solana.
func WithChain(chain string) Option {
	return func(c *httpClient) {
		c.chain = chain
	}
}

type httpClient struct {
	baseURL string
	chain   string
	fetch   *fetcher.Client
}

// NewClient creates a Birdeye client on top of the given fetcher. The API
// key goes on the fetcher as an X-API-KEY header.
func NewClient(f *fetcher.Client, opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://public-api.birdeye.so",
		chain:   "solana",
		fetch:   f,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) TokenList(ctx context.Context, offset, limit int) ([]Token, error) {
	url := fmt.Sprintf("%s/defi/tokenlist?sort_by=v24hUSD&sort_type=desc&offset=%d&limit=%d&x_chain=%s",
		c.baseURL, offset, limit, c.chain)

	var out tokenListResponse
	if err := c.fetch.GetJSON(ctx, url, &out); err != nil {
		return nil, eris.Wrap(err, "birdeye: token list")
	}
	if !out.Success {
		return nil, eris.New("birdeye: token list request unsuccessful")
	}
	return out.Data.Tokens, nil
}
