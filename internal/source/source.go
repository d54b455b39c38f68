// Package source adapts the provider API clients into scan connectors,
// flattening each provider's payload into attribute maps keyed by the
// canonical signal field names.
package source

import "strings"

// Canonical attribute field names shared across connectors. Scoring tables
// reference these, so connectors must agree on them.
const (
	FieldSymbol         = "symbol"
	FieldName           = "name"
	FieldChain          = "chain"
	FieldPriceUSD       = "price_usd"
	FieldVolumeUSD24h   = "volume_usd_24h"
	FieldLiquidityUSD   = "liquidity_usd"
	FieldPriceChange24h = "price_change_pct_24h"
	FieldMarketCap      = "market_cap"
	FieldNarrative      = "narrative_matches"
)

// defaultNarratives are the themes counted into the narrative bonus signal.
var defaultNarratives = []string{
	"ai", "agent", "dog", "cat", "pepe", "frog", "meme", "trump", "elon", "moon",
}

// NarrativeMatches counts how many narrative keywords appear across the
// given text fragments. Each keyword counts once no matter how often it
// repeats.
func NarrativeMatches(texts ...string) int {
	joined := strings.ToLower(strings.Join(texts, " "))
	var n int
	for _, kw := range defaultNarratives {
		if strings.Contains(joined, kw) {
			n++
		}
	}
	return n
}

// capTokens bounds a slice length to the per-source token limit. Zero or
// negative means unbounded.
func capTokens[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
