package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/solscout/scout-cli/internal/model"
	"github.com/solscout/scout-cli/pkg/birdeye"
)

// SourceBirdeye is the connector id for Birdeye.
const SourceBirdeye = "birdeye"

// Birdeye pulls the volume-sorted token list from Birdeye.
type Birdeye struct {
	client    birdeye.Client
	maxTokens int
}

// NewBirdeye creates the Birdeye connector.
func NewBirdeye(client birdeye.Client, maxTokens int) *Birdeye {
	return &Birdeye{client: client, maxTokens: maxTokens}
}

func (b *Birdeye) ID() string { return SourceBirdeye }

func (b *Birdeye) Fetch(ctx context.Context) ([]model.SourceRecord, error) {
	limit := b.maxTokens
	if limit <= 0 {
		limit = 50
	}
	tokens, err := b.client.TokenList(ctx, 0, limit)
	if err != nil {
		return nil, eris.Wrap(err, "birdeye source: token list")
	}

	now := time.Now().UTC()
	records := make([]model.SourceRecord, 0, len(tokens))
	for _, token := range tokens {
		if token.Address == "" {
			continue
		}
		records = append(records, model.SourceRecord{
			SourceID:  SourceBirdeye,
			EntityKey: token.Address,
			Attributes: map[string]any{
				FieldSymbol:       token.Symbol,
				FieldName:         token.Name,
				FieldVolumeUSD24h: token.VolumeUSD24h,
				FieldLiquidityUSD: token.Liquidity,
				FieldMarketCap:    token.MarketCap,
				FieldNarrative:    NarrativeMatches(token.Name, token.Symbol),
			},
			ObservedAt: now,
		})
	}
	return records, nil
}
