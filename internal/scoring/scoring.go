// Package scoring computes the 0-100 composite conviction score per entity.
package scoring

import (
	"math"

	"github.com/solscout/scout-cli/internal/config"
	"github.com/solscout/scout-cli/internal/model"
)

// Engine scores canonical entities against a validated analysis config.
type Engine struct {
	cfg    *config.AnalysisConfig
	majors []string
}

// NewEngine creates a scoring engine. The priority list doubles as the set
// of major sources for the UNIVERSAL tier.
func NewEngine(cfg *config.AnalysisConfig) *Engine {
	return &Engine{cfg: cfg, majors: cfg.Priority}
}

// ScoreAll scores every entity in the canonical map in place.
func (e *Engine) ScoreAll(canonical map[string]*model.CanonicalEntity) {
	for _, entity := range canonical {
		e.Score(entity)
	}
}

// Score populates an entity's sub-scores, composite score, tier, and
// conviction flag. Missing data for a source contributes exactly 0 to that
// sub-score and never blocks the other sub-scores.
func (e *Engine) Score(entity *model.CanonicalEntity) {
	entity.SubScores = make(map[string]float64, len(e.cfg.Scoring.Sources)+2)

	var total float64

	// Platform presence: points per owning source, capped.
	presence := float64(len(entity.OwningSources)) * e.cfg.Scoring.Presence.PointsPerSource
	presence = math.Min(presence, e.cfg.Scoring.Presence.Cap)
	entity.SubScores["presence"] = presence
	total += presence

	// Per-source signal sub-scores via tiered bucket lookup, each capped so
	// no single source can saturate the composite alone.
	for sourceID, table := range e.cfg.Scoring.Sources {
		var pts float64
		if entity.OwnedBy(sourceID) {
			if value, ok := entity.SourceNumeric(sourceID, table.Field); ok {
				pts = math.Min(BucketPoints(value, table.Buckets), table.Cap)
			}
		}
		entity.SubScores[sourceID] = pts
		total += pts
	}

	// Flat bonuses read from the merged view.
	for _, bonus := range e.cfg.Scoring.Bonuses {
		var pts float64
		if value, ok := entity.MergedNumeric(bonus.Field); ok {
			pts = math.Min(BucketPoints(value, bonus.Buckets), bonus.Cap)
		}
		entity.SubScores["bonus_"+bonus.Name] = pts
		total += pts
	}

	entity.CompositeScore = clamp(total, 0, 100)
	entity.Tier = e.tierFor(entity)
	entity.Conviction = entity.CompositeScore >= e.cfg.Scoring.ConvictionThreshold
}

// BucketPoints performs the tiered threshold lookup: the points of the
// highest threshold the value meets or exceeds, or 0 below all thresholds.
// A monotonic step function — never interpolated.
func BucketPoints(value float64, buckets []config.Bucket) float64 {
	var pts float64
	for _, b := range buckets {
		if value < b.Threshold {
			break
		}
		pts = b.Points
	}
	return pts
}

// tierFor classifies an entity by corroboration. Tier and conviction are
// independent: a single-source entity with strong raw signals can still
// carry conviction.
func (e *Engine) tierFor(entity *model.CanonicalEntity) model.Tier {
	if e.coversMajors(entity) {
		return model.TierUniversal
	}
	switch n := len(entity.OwningSources); {
	case n >= 3:
		return model.TierHighOverlap
	case n >= 2:
		return model.TierMultiSource
	default:
		return model.TierSingleSource
	}
}

func (e *Engine) coversMajors(entity *model.CanonicalEntity) bool {
	if len(e.majors) == 0 {
		return false
	}
	for _, src := range e.majors {
		if !entity.OwnedBy(src) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
