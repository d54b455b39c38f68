// Package ranking orders sources by a weighted performance composite.
package ranking

import (
	"math"
	"sort"

	"github.com/solscout/scout-cli/internal/config"
	"github.com/solscout/scout-cli/internal/model"
)

// componentCap bounds each normalized performance component at 100 so a
// runaway count cannot dominate the weighted sum.
const componentCap = 100.0

// highQualityScale converts a high-quality entity count into the 0-100
// component range (20 high-quality finds saturate the component).
const highQualityScale = 5.0

// Rank computes each source's weighted performance score, sorts descending,
// and assigns 1-based ranks. Weights were validated at configuration time;
// this function assumes they sum to 1.0. Ties break by higher average
// quality, then source id.
func Rank(perSource map[string]*model.SourcePerformance, weights config.RankingWeights) []model.SourcePerformance {
	ranked := make([]model.SourcePerformance, 0, len(perSource))
	for _, perf := range perSource {
		p := *perf
		p.PerformanceScore = performanceScore(p, weights)
		ranked = append(ranked, p)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].PerformanceScore != ranked[j].PerformanceScore {
			return ranked[i].PerformanceScore > ranked[j].PerformanceScore
		}
		if ranked[i].AvgQualityScore != ranked[j].AvgQualityScore {
			return ranked[i].AvgQualityScore > ranked[j].AvgQualityScore
		}
		return ranked[i].SourceID < ranked[j].SourceID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// performanceScore combines the five normalized components under the
// configured weights. Every component lives on a 0-100 scale.
func performanceScore(p model.SourcePerformance, w config.RankingWeights) float64 {
	tokenComponent := math.Min(float64(p.EntitiesFound), componentCap)
	qualityComponent := p.AvgQualityScore
	highQualityComponent := math.Min(float64(p.HighQualityCount)*highQualityScale, componentCap)
	uniquenessComponent := p.UniquenessScore * 100
	efficiencyComponent := efficiency(p)

	score := w.TokenCount*tokenComponent +
		w.AvgQuality*qualityComponent +
		w.HighQualityCount*highQualityComponent +
		w.Uniqueness*uniquenessComponent +
		w.ExecutionEfficiency*efficiencyComponent

	return math.Round(score*100) / 100
}

// efficiency is entities discovered per second of fetch time, capped at 100.
// A source with no recorded execution time scores 0 rather than dividing by
// zero.
func efficiency(p model.SourcePerformance) float64 {
	secs := p.ExecutionTime.Seconds()
	if secs <= 0 {
		return 0
	}
	return math.Min(float64(p.EntitiesFound)/secs, componentCap)
}
