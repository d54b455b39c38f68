package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/solscout/scout-cli/internal/model"
	"github.com/solscout/scout-cli/pkg/dexscreener"
)

// SourceDexScreener is the connector id for DexScreener.
const SourceDexScreener = "dexscreener"

// DexScreener discovers tokens from the DexScreener boost list and enriches
// each with its deepest trading pair.
type DexScreener struct {
	client    dexscreener.Client
	chain     string
	maxTokens int
}

// NewDexScreener creates the DexScreener connector.
func NewDexScreener(client dexscreener.Client, chain string, maxTokens int) *DexScreener {
	return &DexScreener{client: client, chain: chain, maxTokens: maxTokens}
}

func (d *DexScreener) ID() string { return SourceDexScreener }

// Fetch lists boosted tokens and resolves pair metrics for each. A token
// whose pair lookup fails is skipped rather than failing the whole source.
func (d *DexScreener) Fetch(ctx context.Context) ([]model.SourceRecord, error) {
	boosted, err := d.client.TopBoosted(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "dexscreener source: list boosted tokens")
	}
	boosted = capTokens(boosted, d.maxTokens)

	now := time.Now().UTC()
	records := make([]model.SourceRecord, 0, len(boosted))
	for _, token := range boosted {
		if d.chain != "" && token.ChainID != d.chain {
			continue
		}

		pairs, err := d.client.Pairs(ctx, token.ChainID, token.TokenAddress)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			zap.L().Warn("dexscreener source: pair lookup failed",
				zap.String("token", token.TokenAddress),
				zap.Error(err),
			)
			continue
		}
		best := deepestPair(pairs)

		attrs := map[string]any{
			FieldChain:     token.ChainID,
			FieldNarrative: NarrativeMatches(token.Description),
		}
		if best != nil {
			attrs[FieldSymbol] = best.BaseToken.Symbol
			attrs[FieldName] = best.BaseToken.Name
			attrs[FieldPriceUSD] = best.PriceUSD
			attrs[FieldVolumeUSD24h] = best.Volume.H24
			attrs[FieldLiquidityUSD] = best.Liquidity.USD
			attrs[FieldPriceChange24h] = best.PriceChange.H24
			attrs[FieldMarketCap] = best.FDV
			attrs[FieldNarrative] = NarrativeMatches(token.Description, best.BaseToken.Name, best.BaseToken.Symbol)
		}

		records = append(records, model.SourceRecord{
			SourceID:   SourceDexScreener,
			EntityKey:  token.TokenAddress,
			Attributes: attrs,
			ObservedAt: now,
		})
	}
	return records, nil
}

// deepestPair picks the pair with the most pooled liquidity.
func deepestPair(pairs []dexscreener.Pair) *dexscreener.Pair {
	var best *dexscreener.Pair
	for i := range pairs {
		if best == nil || pairs[i].Liquidity.USD > best.Liquidity.USD {
			best = &pairs[i]
		}
	}
	return best
}
