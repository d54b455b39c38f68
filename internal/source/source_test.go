package source

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solscout/scout-cli/pkg/birdeye"
	"github.com/solscout/scout-cli/pkg/dexscreener"
	"github.com/solscout/scout-cli/pkg/geckoterminal"
)

func TestNarrativeMatches(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  int
	}{
		{"no match", []string{"serious finance protocol"}, 0},
		{"single keyword", []string{"dogwifhat"}, 1},
		{"keyword counted once", []string{"dog dog dog"}, 1},
		{"across fragments", []string{"AI agent", "cat coin"}, 3},
		{"case insensitive", []string{"PEPE CLASSIC"}, 1},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NarrativeMatches(tt.texts...))
		})
	}
}

type stubDex struct {
	boosted []dexscreener.BoostedToken
	pairs   map[string][]dexscreener.Pair
	pairErr error
}

func (s *stubDex) TopBoosted(ctx context.Context) ([]dexscreener.BoostedToken, error) {
	return s.boosted, nil
}

func (s *stubDex) Pairs(ctx context.Context, chainID, addr string) ([]dexscreener.Pair, error) {
	if s.pairErr != nil {
		return nil, s.pairErr
	}
	return s.pairs[addr], nil
}

func TestDexScreenerFetch(t *testing.T) {
	stub := &stubDex{
		boosted: []dexscreener.BoostedToken{
			{ChainID: "solana", TokenAddress: "abc", Description: "dog themed"},
			{ChainID: "ethereum", TokenAddress: "skip-me"},
		},
		pairs: map[string][]dexscreener.Pair{
			"abc": {
				{ChainID: "solana", Liquidity: dexscreener.Liquidity{USD: 100}},
				{
					ChainID:     "solana",
					BaseToken:   dexscreener.TokenInfo{Symbol: "WIF", Name: "dogwifhat"},
					PriceUSD:    "2.31",
					Volume:      dexscreener.Window{H24: 2_000_000},
					Liquidity:   dexscreener.Liquidity{USD: 400_000},
					PriceChange: dexscreener.Window{H24: 15.2},
				},
			},
		},
	}

	conn := NewDexScreener(stub, "solana", 0)
	records, err := conn.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1, "off-chain tokens are filtered out")
	r := records[0]
	assert.Equal(t, SourceDexScreener, r.SourceID)
	assert.Equal(t, "abc", r.EntityKey)
	assert.Equal(t, 2_000_000.0, r.Attributes[FieldVolumeUSD24h], "deepest pair wins")
	assert.Equal(t, 400_000.0, r.Attributes[FieldLiquidityUSD])
	assert.Equal(t, "WIF", r.Attributes[FieldSymbol])
	assert.Equal(t, 1, r.Attributes[FieldNarrative])
}

func TestDexScreenerPairFailureSkipsToken(t *testing.T) {
	stub := &stubDex{
		boosted: []dexscreener.BoostedToken{{ChainID: "solana", TokenAddress: "abc"}},
		pairErr: eris.New("rate limited"),
	}

	records, err := NewDexScreener(stub, "solana", 0).Fetch(context.Background())
	require.NoError(t, err, "a single bad token never fails the source")
	assert.Empty(t, records)
}

func TestDexScreenerMaxTokens(t *testing.T) {
	stub := &stubDex{
		boosted: []dexscreener.BoostedToken{
			{ChainID: "solana", TokenAddress: "a"},
			{ChainID: "solana", TokenAddress: "b"},
			{ChainID: "solana", TokenAddress: "c"},
		},
	}
	records, err := NewDexScreener(stub, "solana", 2).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

type stubBirdeye struct {
	tokens []birdeye.Token
	err    error
}

func (s *stubBirdeye) TokenList(ctx context.Context, offset, limit int) ([]birdeye.Token, error) {
	return s.tokens, s.err
}

func TestBirdeyeFetch(t *testing.T) {
	stub := &stubBirdeye{tokens: []birdeye.Token{
		{Address: "abc", Symbol: "WIF", Name: "dogwifhat", VolumeUSD24h: 2_000_000, Liquidity: 400_000, MarketCap: 12_000_000},
		{Address: "", Symbol: "BAD"}, // no address, unusable as an entity key
	}}

	records, err := NewBirdeye(stub, 50).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, SourceBirdeye, records[0].SourceID)
	assert.Equal(t, "abc", records[0].EntityKey)
	assert.Equal(t, 400_000.0, records[0].Attributes[FieldLiquidityUSD])
	assert.Equal(t, 12_000_000.0, records[0].Attributes[FieldMarketCap])
}

func TestBirdeyeFetchError(t *testing.T) {
	stub := &stubBirdeye{err: eris.New("401 unauthorized")}
	_, err := NewBirdeye(stub, 50).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "birdeye source")
}

type stubGecko struct {
	trending []geckoterminal.Pool
	fresh    []geckoterminal.Pool
	freshErr error
}

func (s *stubGecko) TrendingPools(ctx context.Context, network string) ([]geckoterminal.Pool, error) {
	return s.trending, nil
}

func (s *stubGecko) NewPools(ctx context.Context, network string) ([]geckoterminal.Pool, error) {
	return s.fresh, s.freshErr
}

func geckoPool(addr, name, vol, change string) geckoterminal.Pool {
	var p geckoterminal.Pool
	p.Attributes.Name = name
	p.Attributes.VolumeUSD = map[string]string{"h24": vol}
	p.Attributes.PriceChangePct = map[string]string{"h24": change}
	p.Relations.BaseToken.Data.ID = "solana_" + addr
	return p
}

func TestGeckoTerminalFetch(t *testing.T) {
	stub := &stubGecko{
		trending: []geckoterminal.Pool{geckoPool("abc", "WIF / SOL", "2000000", "15.2")},
		fresh: []geckoterminal.Pool{
			geckoPool("abc", "WIF / SOL old", "1", "1"), // duplicate, trending wins
			geckoPool("def", "BONK / SOL", "150000", "-3.1"),
		},
	}

	records, err := NewGeckoTerminal(stub, "solana", 0).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "abc", records[0].EntityKey)
	assert.Equal(t, "WIF / SOL", records[0].Attributes[FieldName], "trending entry wins the dedupe")
	assert.Equal(t, "2000000", records[0].Attributes[FieldVolumeUSD24h], "string values flow through untouched")
	assert.Equal(t, "def", records[1].EntityKey)
}

func TestGeckoTerminalNewPoolsBestEffort(t *testing.T) {
	stub := &stubGecko{
		trending: []geckoterminal.Pool{geckoPool("abc", "WIF / SOL", "2000000", "15.2")},
		freshErr: eris.New("503"),
	}

	records, err := NewGeckoTerminal(stub, "solana", 0).Fetch(context.Background())
	require.NoError(t, err, "trending alone is a valid fetch")
	assert.Len(t, records, 1)
}
