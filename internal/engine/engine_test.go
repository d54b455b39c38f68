package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solscout/scout-cli/internal/config"
	"github.com/solscout/scout-cli/internal/model"
)

type stubConnector struct {
	id      string
	records []model.SourceRecord
	err     error
	delay   time.Duration
}

func (s *stubConnector) ID() string { return s.id }

func (s *stubConnector) Fetch(ctx context.Context) ([]model.SourceRecord, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.records, s.err
}

func rec(source, key string, attrs map[string]any) model.SourceRecord {
	return model.SourceRecord{
		SourceID:   source,
		EntityKey:  key,
		Attributes: attrs,
		ObservedAt: time.Now().UTC(),
	}
}

func TestRunCycleMergesAcrossSources(t *testing.T) {
	connectors := []Connector{
		&stubConnector{id: "dexscreener", records: []model.SourceRecord{
			rec("dexscreener", "T1", map[string]any{"volume_usd_24h": 2_000_000.0}),
			rec("dexscreener", "T2", map[string]any{"volume_usd_24h": 150_000.0}),
			rec("dexscreener", "T3", nil),
		}},
		&stubConnector{id: "birdeye", records: []model.SourceRecord{
			rec("birdeye", "T2", map[string]any{"liquidity_usd": 400_000.0}),
			rec("birdeye", "T3", nil),
			rec("birdeye", "T4", nil),
		}},
	}

	eng := New(config.DefaultAnalysis(), connectors, time.Second)
	report, err := eng.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalEntities)
	assert.Equal(t, map[int]int{1: 2, 2: 2}, report.PlatformDistribution)
	assert.InDelta(t, 0.5, report.CrossValidationRate, 1e-9)
	assert.InDelta(t, 0.5, report.OverlapMatrix["dexscreener"]["birdeye"], 1e-9)
	assert.Equal(t, 1.0, report.OverlapMatrix["dexscreener"]["dexscreener"])
	assert.Empty(t, report.Diagnostics.SourceFailures)
	assert.NotEmpty(t, report.Insights)
	assert.NotEmpty(t, report.RunID)
}

func TestRunCycleSurvivesSourceFailure(t *testing.T) {
	connectors := []Connector{
		&stubConnector{id: "dexscreener", records: []model.SourceRecord{
			rec("dexscreener", "T1", map[string]any{"volume_usd_24h": 2_000_000.0}),
		}},
		&stubConnector{id: "birdeye", err: eris.New("api returned 503")},
	}

	eng := New(config.DefaultAnalysis(), connectors, time.Second)
	report, err := eng.RunCycle(context.Background())
	require.NoError(t, err, "partial failure is not a cycle failure")

	assert.Equal(t, 1, report.TotalEntities)
	require.Contains(t, report.Diagnostics.SourceFailures, "birdeye")
	assert.Contains(t, report.Diagnostics.SourceFailures["birdeye"], "503")

	// The failed source still appears in the performance ranking with zeros.
	var birdeye *model.SourcePerformance
	for i := range report.SourcePerformance {
		if report.SourcePerformance[i].SourceID == "birdeye" {
			birdeye = &report.SourcePerformance[i]
		}
	}
	require.NotNil(t, birdeye)
	assert.Zero(t, birdeye.EntitiesFound)
	assert.Equal(t, 0.0, birdeye.UniquenessScore)
}

func TestRunCycleFetchTimeout(t *testing.T) {
	connectors := []Connector{
		&stubConnector{id: "slow", delay: 500 * time.Millisecond},
		&stubConnector{id: "fast", records: []model.SourceRecord{rec("fast", "T1", nil)}},
	}

	eng := New(config.DefaultAnalysis(), connectors, 20*time.Millisecond)
	report, err := eng.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Contains(t, report.Diagnostics.SourceFailures, "slow")
	assert.Equal(t, 1, report.TotalEntities, "fast source unaffected by the slow one")
}

func TestRunCycleCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(config.DefaultAnalysis(), []Connector{
		&stubConnector{id: "dexscreener", records: []model.SourceRecord{rec("dexscreener", "T1", nil)}},
	}, time.Second)

	report, err := eng.RunCycle(ctx)
	assert.Error(t, err, "a cancelled cycle is discarded, never returned")
	assert.Nil(t, report)
}

func TestAnalyzeCountsSkippedRecords(t *testing.T) {
	eng := New(config.DefaultAnalysis(), nil, 0)

	report := eng.Analyze([]FetchResult{
		{SourceID: "dexscreener", Records: []model.SourceRecord{
			rec("dexscreener", "", nil),
			rec("dexscreener", "T1", nil),
		}},
	})

	assert.Equal(t, 1, report.Diagnostics.SkippedRecords)
	assert.Equal(t, 1, report.TotalEntities)
}

func TestAnalyzeHighConvictionSorted(t *testing.T) {
	cfg := config.DefaultAnalysis()
	cfg.Scoring.ConvictionThreshold = 10

	eng := New(cfg, nil, 0)
	report := eng.Analyze([]FetchResult{
		{SourceID: "dexscreener", Duration: time.Second, Records: []model.SourceRecord{
			rec("dexscreener", "big", map[string]any{"volume_usd_24h": 30_000_000.0}),
			rec("dexscreener", "mid", map[string]any{"volume_usd_24h": 2_000_000.0}),
		}},
		{SourceID: "birdeye", Duration: time.Second, Records: []model.SourceRecord{
			rec("birdeye", "mid", map[string]any{"liquidity_usd": 100_000.0}),
		}},
	})

	require.Len(t, report.HighConviction, 2)
	assert.Equal(t, "big", report.HighConviction[0].EntityKey) // 5 + 25 = 30
	assert.Equal(t, "mid", report.HighConviction[1].EntityKey) // 10 + 8 + 4 = 22
	assert.GreaterOrEqual(t, report.HighConviction[0].CompositeScore, report.HighConviction[1].CompositeScore)

	for _, e := range report.HighConviction {
		assert.True(t, e.Conviction)
		assert.GreaterOrEqual(t, e.CompositeScore, 0.0)
		assert.LessOrEqual(t, e.CompositeScore, 100.0)
	}
}

func TestAnalyzeTruncatesComplementarityPairs(t *testing.T) {
	cfg := config.DefaultAnalysis()
	cfg.ComplementarityTopN = 1
	// Priority only constrains merge order; unknown sources still analyze.
	eng := New(cfg, nil, 0)

	report := eng.Analyze([]FetchResult{
		{SourceID: "a", Records: []model.SourceRecord{rec("a", "T1", nil)}},
		{SourceID: "b", Records: []model.SourceRecord{rec("b", "T2", nil)}},
		{SourceID: "c", Records: []model.SourceRecord{rec("c", "T3", nil)}},
	})

	assert.Len(t, report.ComplementarityPairs, 1, "three sources make three pairs, truncated to top-N")
}

func TestAnalyzeEmptyCycle(t *testing.T) {
	eng := New(config.DefaultAnalysis(), nil, 0)
	report := eng.Analyze(nil)

	assert.Zero(t, report.TotalEntities)
	assert.Equal(t, 0.0, report.CrossValidationRate)
	assert.Empty(t, report.HighConviction)
	assert.NotEmpty(t, report.Insights)
}
