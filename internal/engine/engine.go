// Package engine orchestrates one scan cycle: concurrent source fetches,
// normalization, overlap, scoring, and ranking into a single report.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solscout/scout-cli/internal/analyze"
	"github.com/solscout/scout-cli/internal/config"
	"github.com/solscout/scout-cli/internal/model"
	"github.com/solscout/scout-cli/internal/normalize"
	"github.com/solscout/scout-cli/internal/overlap"
	"github.com/solscout/scout-cli/internal/ranking"
	"github.com/solscout/scout-cli/internal/scoring"
)

// Connector produces one source's records for the current cycle.
type Connector interface {
	ID() string
	Fetch(ctx context.Context) ([]model.SourceRecord, error)
}

// FetchResult is the explicit per-source outcome of the fan-out stage.
// A failed source carries its error here instead of aborting the cycle;
// partial failure is normal, not exceptional.
type FetchResult struct {
	SourceID string
	Records  []model.SourceRecord
	Duration time.Duration
	Err      error
}

// Engine runs scan cycles. It holds no state across cycles: every run
// operates on a fresh canonical map.
type Engine struct {
	cfg          *config.AnalysisConfig
	connectors   []Connector
	fetchTimeout time.Duration
	now          func() time.Time // injectable for testing
}

// New creates an engine over the given connectors.
func New(cfg *config.AnalysisConfig, connectors []Connector, fetchTimeout time.Duration) *Engine {
	return &Engine{
		cfg:          cfg,
		connectors:   connectors,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RunCycle fans out one fetch per connector, joins, and runs the analysis
// pipeline over whatever arrived. If the caller cancels, the partial cycle
// is discarded and never returned.
func (e *Engine) RunCycle(ctx context.Context) (*model.Report, error) {
	results := e.fetchAll(ctx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.Analyze(results), nil
}

// fetchAll starts every connector concurrently and waits for all of them.
// Each fetch is isolated: an error or timeout in one source never corrupts
// the others.
func (e *Engine) fetchAll(ctx context.Context) []FetchResult {
	results := make([]FetchResult, len(e.connectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, conn := range e.connectors {
		g.Go(func() error {
			fctx := gctx
			if e.fetchTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, e.fetchTimeout)
				defer cancel()
			}

			start := time.Now()
			records, err := conn.Fetch(fctx)
			results[i] = FetchResult{
				SourceID: conn.ID(),
				Records:  records,
				Duration: time.Since(start),
				Err:      err,
			}
			if err != nil {
				zap.L().Warn("engine: source fetch failed",
					zap.String("source", conn.ID()),
					zap.Error(err),
				)
			}
			// Fetch errors are diagnostics, not cycle failures.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Analyze runs the single-threaded post-join pipeline over fetch results.
// Exposed separately from RunCycle so the pipeline is testable with fixed
// inputs and no connectors.
func (e *Engine) Analyze(results []FetchResult) *model.Report {
	recordsBySource := make(map[string][]model.SourceRecord, len(results))
	durations := make(map[string]time.Duration, len(results))
	diagnostics := model.Diagnostics{}

	sources := make([]string, 0, len(results))
	for _, r := range results {
		sources = append(sources, r.SourceID)
		durations[r.SourceID] = r.Duration
		if r.Err != nil {
			// Substitute an empty record list; scoring must remain
			// computable from the sources that did respond.
			recordsBySource[r.SourceID] = nil
			if diagnostics.SourceFailures == nil {
				diagnostics.SourceFailures = make(map[string]string)
			}
			diagnostics.SourceFailures[r.SourceID] = r.Err.Error()
			continue
		}
		recordsBySource[r.SourceID] = r.Records
	}

	norm := normalize.Normalize(recordsBySource, e.cfg.Priority)
	diagnostics.SkippedRecords = norm.Skipped

	scoring.NewEngine(e.cfg).ScoreAll(norm.Entities)

	matrix, _ := overlap.Compute(norm.Entities, sources)

	analysis := analyze.Run(norm.Entities, matrix, e.cfg.Scoring.HighQualityThreshold)
	for src, perf := range analysis.PerSource {
		perf.ExecutionTime = durations[src]
	}

	ranked := ranking.Rank(analysis.PerSource, e.cfg.Ranking)

	pairs := analysis.Pairs
	if topN := e.cfg.ComplementarityTopN; topN > 0 && len(pairs) > topN {
		pairs = pairs[:topN]
	}

	report := e.assembleReport(norm.Entities, matrix, ranked, pairs, diagnostics)

	zap.L().Info("engine: cycle complete",
		zap.String("run_id", report.RunID),
		zap.Int("total_entities", report.TotalEntities),
		zap.Int("high_conviction", len(report.HighConviction)),
		zap.Int("skipped_records", diagnostics.SkippedRecords),
		zap.Int("failed_sources", len(diagnostics.SourceFailures)),
	)

	return report
}

// assembleReport builds the externally-consumed report object. The engine
// performs no I/O; persistence and formatting are the caller's concern.
func (e *Engine) assembleReport(canonical map[string]*model.CanonicalEntity, matrix *overlap.Matrix, ranked []model.SourcePerformance, pairs []model.ComplementarityPair, diagnostics model.Diagnostics) *model.Report {
	distribution := make(map[int]int)
	var multiSource int
	var highConviction []*model.CanonicalEntity

	for _, entity := range canonical {
		owners := len(entity.OwningSources)
		distribution[owners]++
		if owners >= 2 {
			multiSource++
		}
		if entity.Conviction {
			highConviction = append(highConviction, entity)
		}
	}

	// Composite descending, key ascending for a stable order.
	sort.Slice(highConviction, func(i, j int) bool {
		if highConviction[i].CompositeScore != highConviction[j].CompositeScore {
			return highConviction[i].CompositeScore > highConviction[j].CompositeScore
		}
		return highConviction[i].EntityKey < highConviction[j].EntityKey
	})

	total := len(canonical)
	var crossValidation float64
	if total > 0 {
		crossValidation = float64(multiSource) / float64(total)
	}

	return &model.Report{
		RunID:                uuid.New().String(),
		GeneratedAt:          e.now().UTC(),
		TotalEntities:        total,
		PlatformDistribution: distribution,
		CrossValidationRate:  crossValidation,
		OverlapMatrix:        matrix.ToMap(),
		HighConviction:       highConviction,
		SourcePerformance:    ranked,
		ComplementarityPairs: pairs,
		Insights:             ranking.Insights(ranked, pairs, total, len(highConviction), crossValidation),
		Diagnostics:          diagnostics,
	}
}
