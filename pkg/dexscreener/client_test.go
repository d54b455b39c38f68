package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solscout/scout-cli/internal/fetcher"
)

func testFetcher() *fetcher.Client {
	return fetcher.New(fetcher.Options{MaxRetries: 1, RateLimit: 1000, Burst: 1000})
}

func TestTopBoosted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-boosts/top/v1", r.URL.Path)
		w.Write([]byte(`[
			{"url":"https://dexscreener.com/solana/abc","chainId":"solana","tokenAddress":"abc","amount":500,"totalAmount":1000},
			{"url":"https://dexscreener.com/solana/def","chainId":"solana","tokenAddress":"def","amount":100,"totalAmount":100}
		]`))
	}))
	defer srv.Close()

	c := NewClient(testFetcher(), WithBaseURL(srv.URL))
	tokens, err := c.TopBoosted(context.Background())
	require.NoError(t, err)

	require.Len(t, tokens, 2)
	assert.Equal(t, "abc", tokens[0].TokenAddress)
	assert.Equal(t, 1000.0, tokens[0].TotalAmount)
}

func TestPairsFiltersByChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/abc", r.URL.Path)
		w.Write([]byte(`{"pairs":[
			{"chainId":"solana","dexId":"raydium","pairAddress":"p1",
			 "baseToken":{"address":"abc","symbol":"WIF"},
			 "priceUsd":"2.31","volume":{"h24":2000000},"priceChange":{"h24":15.2},
			 "liquidity":{"usd":400000},"fdv":12000000},
			{"chainId":"ethereum","dexId":"uniswap","pairAddress":"p2",
			 "baseToken":{"address":"abc","symbol":"WIF"},
			 "volume":{"h24":50}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(testFetcher(), WithBaseURL(srv.URL))
	pairs, err := c.Pairs(context.Background(), "solana", "abc")
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, "raydium", pairs[0].DexID)
	assert.Equal(t, 2_000_000.0, pairs[0].Volume.H24)
	assert.Equal(t, 400_000.0, pairs[0].Liquidity.USD)
	assert.Equal(t, 15.2, pairs[0].PriceChange.H24)
}

func TestPairsEmptyChainKeepsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[{"chainId":"solana"},{"chainId":"ethereum"}]}`))
	}))
	defer srv.Close()

	c := NewClient(testFetcher(), WithBaseURL(srv.URL))
	pairs, err := c.Pairs(context.Background(), "", "abc")
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}

func TestTopBoostedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(testFetcher(), WithBaseURL(srv.URL))
	_, err := c.TopBoosted(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dexscreener")
}
