package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/solscout/scout-cli/internal/config"
	"github.com/solscout/scout-cli/internal/engine"
	"github.com/solscout/scout-cli/internal/fetcher"
	"github.com/solscout/scout-cli/internal/source"
	"github.com/solscout/scout-cli/internal/store"
	"github.com/solscout/scout-cli/pkg/birdeye"
	"github.com/solscout/scout-cli/pkg/dexscreener"
	"github.com/solscout/scout-cli/pkg/geckoterminal"
)

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

func loadAnalysis() (*config.AnalysisConfig, error) {
	if cfg.AnalysisFile == "" {
		return config.DefaultAnalysis(), nil
	}
	return config.LoadAnalysis(cfg.AnalysisFile)
}

// buildConnectors wires one connector per enabled source, each on its own
// rate-limited fetcher.
func buildConnectors() []engine.Connector {
	var connectors []engine.Connector
	maxTokens := cfg.Scan.MaxTokensPerSource

	if sc := cfg.Sources.DexScreener; sc.Enabled {
		f := fetcher.New(fetcher.Options{
			RateLimit: sc.RateLimit,
			Burst:     sc.Burst,
		})
		client := dexscreener.NewClient(f, dexscreener.WithBaseURL(sc.BaseURL))
		connectors = append(connectors, source.NewDexScreener(client, "solana", maxTokens))
	}

	if sc := cfg.Sources.Birdeye; sc.Enabled {
		f := fetcher.New(fetcher.Options{
			RateLimit: sc.RateLimit,
			Burst:     sc.Burst,
			Headers:   map[string]string{"X-API-KEY": sc.APIKey},
		})
		client := birdeye.NewClient(f, birdeye.WithBaseURL(sc.BaseURL))
		connectors = append(connectors, source.NewBirdeye(client, maxTokens))
	}

	if sc := cfg.Sources.GeckoTerminal; sc.Enabled {
		f := fetcher.New(fetcher.Options{
			RateLimit: sc.RateLimit,
			Burst:     sc.Burst,
		})
		client := geckoterminal.NewClient(f, geckoterminal.WithBaseURL(sc.BaseURL))
		connectors = append(connectors, source.NewGeckoTerminal(client, "solana", maxTokens))
	}

	return connectors
}

func buildEngine() (*engine.Engine, error) {
	analysis, err := loadAnalysis()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Scan.FetchTimeoutSecs) * time.Second
	return engine.New(analysis, buildConnectors(), timeout), nil
}
