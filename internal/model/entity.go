package model

import "sort"

// Tier classifies an entity by how many independent sources corroborate it.
type Tier string

const (
	// TierUniversal means every configured major source reported the entity.
	TierUniversal Tier = "UNIVERSAL"
	// TierHighOverlap means three or more sources reported the entity.
	TierHighOverlap Tier = "HIGH_OVERLAP"
	// TierMultiSource means at least two sources reported the entity.
	TierMultiSource Tier = "MULTI_SOURCE"
	// TierSingleSource means exactly one source reported the entity.
	TierSingleSource Tier = "SINGLE_SOURCE"
)

// CanonicalEntity is the merged view of one entity key across all sources
// that reported it in the current cycle. Entities live for a single cycle;
// nothing is carried across cycles.
type CanonicalEntity struct {
	EntityKey string `json:"entity_key"`

	// OwningSources is kept sorted and deduplicated; it is never empty for
	// an entity that exists in the canonical map.
	OwningSources []string `json:"owning_sources"`

	// MergedAttributes is populated by priority merge: the first source in
	// the configured priority order that supplies a non-empty value wins,
	// later sources only fill gaps.
	MergedAttributes map[string]any `json:"merged_attributes"`

	// SourceAttributes preserves each source's raw attributes so the scoring
	// engine can read a source's own numbers even when another source won
	// the merge for that field.
	SourceAttributes map[string]map[string]any `json:"source_attributes,omitempty"`

	SubScores      map[string]float64 `json:"sub_scores,omitempty"`
	CompositeScore float64            `json:"composite_score"`
	Tier           Tier               `json:"tier,omitempty"`
	Conviction     bool               `json:"conviction"`
}

// OwnedBy reports whether the given source reported this entity.
func (e *CanonicalEntity) OwnedBy(sourceID string) bool {
	for _, s := range e.OwningSources {
		if s == sourceID {
			return true
		}
	}
	return false
}

// AddSource records a source as an owner, keeping the slice sorted and
// deduplicated.
func (e *CanonicalEntity) AddSource(sourceID string) {
	if e.OwnedBy(sourceID) {
		return
	}
	e.OwningSources = append(e.OwningSources, sourceID)
	sort.Strings(e.OwningSources)
}

// SourceNumeric returns a numeric attribute as reported by one specific
// source, independent of what won the priority merge.
func (e *CanonicalEntity) SourceNumeric(sourceID, field string) (float64, bool) {
	attrs, ok := e.SourceAttributes[sourceID]
	if !ok {
		return 0, false
	}
	return ToFloat(attrs[field])
}

// MergedNumeric returns a numeric attribute from the merged view.
func (e *CanonicalEntity) MergedNumeric(field string) (float64, bool) {
	if e.MergedAttributes == nil {
		return 0, false
	}
	return ToFloat(e.MergedAttributes[field])
}
