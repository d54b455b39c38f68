package ranking

import (
	"fmt"

	"github.com/solscout/scout-cli/internal/model"
)

// Insights renders short textual observations from already-computed numbers.
// Purely derivative: no new computation happens here.
func Insights(ranked []model.SourcePerformance, pairs []model.ComplementarityPair, totalEntities, highConviction int, crossValidationRate float64) []string {
	var out []string

	if totalEntities == 0 {
		return []string{"No entities discovered this cycle."}
	}

	if len(ranked) > 0 {
		best := ranked[0]
		out = append(out, fmt.Sprintf("Best performer: %s (performance score %.1f, %d tokens found)",
			best.SourceID, best.PerformanceScore, best.EntitiesFound))
	}

	out = append(out, fmt.Sprintf("Cross-validation rate: %.1f%% of entities confirmed by 2+ sources",
		crossValidationRate*100))

	if mostUnique := maxUniqueness(ranked); mostUnique != nil && mostUnique.UniquenessScore > 0 {
		out = append(out, fmt.Sprintf("Most unique discoveries: %s (%.0f%% found by no other source)",
			mostUnique.SourceID, mostUnique.UniquenessScore*100))
	}

	if len(pairs) > 0 {
		top := pairs[0]
		out = append(out, fmt.Sprintf("Best complementary pair: %s + %s (overlap %.2f, combined coverage %d)",
			top.SourceA, top.SourceB, top.Overlap, top.CombinedCoverage))
	}

	out = append(out, fmt.Sprintf("High conviction: %d of %d entities above threshold",
		highConviction, totalEntities))

	return out
}

func maxUniqueness(ranked []model.SourcePerformance) *model.SourcePerformance {
	var best *model.SourcePerformance
	for i := range ranked {
		if best == nil || ranked[i].UniquenessScore > best.UniquenessScore {
			best = &ranked[i]
		}
	}
	return best
}
