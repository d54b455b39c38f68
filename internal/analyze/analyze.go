// Package analyze computes per-source uniqueness and pairwise complementarity.
package analyze

import (
	"sort"

	"github.com/solscout/scout-cli/internal/model"
	"github.com/solscout/scout-cli/internal/overlap"
)

// Analysis is the output of one uniqueness/complementarity pass.
type Analysis struct {
	// PerSource holds partial performance records keyed by source id.
	// Ranking fills in execution time, performance score, and rank later.
	PerSource map[string]*model.SourcePerformance

	// Pairs is sorted descending by complementarity score and truncated to
	// the configured top-N by the caller.
	Pairs []model.ComplementarityPair
}

// Run derives uniqueness ratios and complementarity pairs from the scored
// canonical map and the overlap matrix. highQualityThreshold is the
// composite score above which an entity counts as high quality.
func Run(canonical map[string]*model.CanonicalEntity, matrix *overlap.Matrix, highQualityThreshold float64) Analysis {
	sources := matrix.Sources()
	sets := overlap.EntitySets(canonical, sources)

	perSource := make(map[string]*model.SourcePerformance, len(sources))
	for _, src := range sources {
		perSource[src] = measureSource(src, sets[src], canonical, highQualityThreshold)
	}

	pairs := complementarityPairs(sources, sets, perSource, matrix)

	return Analysis{PerSource: perSource, Pairs: pairs}
}

// measureSource computes found/unique/shared counts and quality stats for
// one source. unique + shared == found always holds; an empty source yields
// a zero uniqueness score instead of dividing by zero.
func measureSource(sourceID string, set map[string]struct{}, canonical map[string]*model.CanonicalEntity, highQualityThreshold float64) *model.SourcePerformance {
	perf := &model.SourcePerformance{
		SourceID:      sourceID,
		EntitiesFound: len(set),
	}

	var qualitySum float64
	for key := range set {
		entity := canonical[key]
		if entity == nil {
			continue
		}
		if len(entity.OwningSources) == 1 {
			perf.UniqueEntities++
		}
		qualitySum += entity.CompositeScore
		if entity.CompositeScore >= highQualityThreshold {
			perf.HighQualityCount++
		}
	}

	perf.SharedEntities = perf.EntitiesFound - perf.UniqueEntities
	if perf.EntitiesFound > 0 {
		perf.UniquenessScore = float64(perf.UniqueEntities) / float64(perf.EntitiesFound)
		perf.AvgQualityScore = qualitySum / float64(perf.EntitiesFound)
	}
	return perf
}

// complementarityPairs scores every unordered source pair by
// (1 - overlap) * combined coverage * combined quality / 200. High coverage
// with low mutual overlap ranks first.
func complementarityPairs(sources []string, sets map[string]map[string]struct{}, perSource map[string]*model.SourcePerformance, matrix *overlap.Matrix) []model.ComplementarityPair {
	var pairs []model.ComplementarityPair
	for i, a := range sources {
		for _, b := range sources[i+1:] {
			ov := matrix.At(a, b)
			countA := len(sets[a])
			countB := len(sets[b])
			qualA := perSource[a].AvgQualityScore
			qualB := perSource[b].AvgQualityScore

			pairs = append(pairs, model.ComplementarityPair{
				SourceA:              a,
				SourceB:              b,
				Overlap:              ov,
				CombinedCoverage:     countA + countB,
				CombinedQuality:      qualA + qualB,
				ComplementarityScore: (1 - ov) * float64(countA+countB) * ((qualA + qualB) / 200),
			})
		}
	}

	// Descending by score, ties broken by higher combined coverage, then
	// lexicographic pair for determinism.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].ComplementarityScore != pairs[j].ComplementarityScore {
			return pairs[i].ComplementarityScore > pairs[j].ComplementarityScore
		}
		if pairs[i].CombinedCoverage != pairs[j].CombinedCoverage {
			return pairs[i].CombinedCoverage > pairs[j].CombinedCoverage
		}
		if pairs[i].SourceA != pairs[j].SourceA {
			return pairs[i].SourceA < pairs[j].SourceA
		}
		return pairs[i].SourceB < pairs[j].SourceB
	})

	return pairs
}
