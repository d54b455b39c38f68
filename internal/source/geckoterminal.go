package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/solscout/scout-cli/internal/model"
	"github.com/solscout/scout-cli/pkg/geckoterminal"
)

// SourceGeckoTerminal is the connector id for GeckoTerminal.
const SourceGeckoTerminal = "geckoterminal"

// GeckoTerminal combines trending and newly created pools into one token
// stream. Trending wins when a token shows up in both lists.
type GeckoTerminal struct {
	client    geckoterminal.Client
	network   string
	maxTokens int
}

// NewGeckoTerminal creates the GeckoTerminal connector.
func NewGeckoTerminal(client geckoterminal.Client, network string, maxTokens int) *GeckoTerminal {
	return &GeckoTerminal{client: client, network: network, maxTokens: maxTokens}
}

func (g *GeckoTerminal) ID() string { return SourceGeckoTerminal }

func (g *GeckoTerminal) Fetch(ctx context.Context) ([]model.SourceRecord, error) {
	trending, err := g.client.TrendingPools(ctx, g.network)
	if err != nil {
		return nil, eris.Wrap(err, "geckoterminal source: trending pools")
	}

	// New pools are best effort; trending alone is a valid result.
	fresh, err := g.client.NewPools(ctx, g.network)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zap.L().Warn("geckoterminal source: new pools unavailable", zap.Error(err))
	}

	now := time.Now().UTC()
	seen := make(map[string]bool)
	var records []model.SourceRecord
	for _, pool := range append(trending, fresh...) {
		addr := pool.BaseTokenAddress()
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true

		records = append(records, model.SourceRecord{
			SourceID:  SourceGeckoTerminal,
			EntityKey: addr,
			Attributes: map[string]any{
				FieldName: pool.Attributes.Name,
				FieldChain: g.network,
				// GeckoTerminal serves numbers as strings; the merge layer
				// coerces them when scoring reads the field.
				FieldPriceUSD:       pool.Attributes.BaseTokenPriceUSD,
				FieldLiquidityUSD:   pool.Attributes.ReserveInUSD,
				FieldVolumeUSD24h:   pool.Attributes.VolumeUSD["h24"],
				FieldPriceChange24h: pool.Attributes.PriceChangePct["h24"],
				FieldNarrative:      NarrativeMatches(pool.Attributes.Name),
			},
			ObservedAt: now,
		})
	}
	return capTokens(records, g.maxTokens), nil
}
