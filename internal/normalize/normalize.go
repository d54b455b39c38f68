// Package normalize merges raw per-source records into canonical entities.
package normalize

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/solscout/scout-cli/internal/model"
)

// Result is the output of one normalization pass.
type Result struct {
	// Entities maps entity key to its merged canonical record. Exactly one
	// entity exists per key within a cycle.
	Entities map[string]*model.CanonicalEntity

	// Skipped counts records dropped for a missing or empty entity key.
	// Dropping is silent: many sources report partial rows.
	Skipped int
}

// Normalize merges the cycle's records into a canonical entity map. The merge
// is a pure function of its inputs: no state survives between calls.
//
// Field conflicts resolve by priority: sources are processed in the given
// priority order, and a field already holding a non-empty value from an
// earlier (higher-priority) source is never overwritten — later sources only
// fill gaps. Sources absent from the priority list are processed after it,
// in lexicographic order, so unknown sources still contribute records
// deterministically.
func Normalize(recordsBySource map[string][]model.SourceRecord, priority []string) Result {
	res := Result{Entities: make(map[string]*model.CanonicalEntity)}

	for _, sourceID := range mergeOrder(recordsBySource, priority) {
		for _, rec := range recordsBySource[sourceID] {
			if strings.TrimSpace(rec.EntityKey) == "" {
				res.Skipped++
				continue
			}

			entity, ok := res.Entities[rec.EntityKey]
			if !ok {
				entity = &model.CanonicalEntity{
					EntityKey:        rec.EntityKey,
					MergedAttributes: make(map[string]any),
					SourceAttributes: make(map[string]map[string]any),
				}
				res.Entities[rec.EntityKey] = entity
			}

			entity.AddSource(sourceID)
			mergeAttributes(entity, sourceID, rec.Attributes)
		}
	}

	if res.Skipped > 0 {
		zap.L().Debug("normalize: skipped records without entity keys",
			zap.Int("skipped", res.Skipped),
		)
	}

	return res
}

// mergeOrder returns the source processing order: the configured priority
// list first, then any remaining sources sorted lexicographically.
func mergeOrder(recordsBySource map[string][]model.SourceRecord, priority []string) []string {
	order := make([]string, 0, len(recordsBySource))
	listed := make(map[string]bool, len(priority))
	for _, src := range priority {
		listed[src] = true
		if _, ok := recordsBySource[src]; ok {
			order = append(order, src)
		}
	}

	var extra []string
	for src := range recordsBySource {
		if !listed[src] {
			extra = append(extra, src)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// mergeAttributes writes a record's attributes into the entity. The merged
// view keeps the first non-empty value per field; the per-source view keeps
// everything so scoring can read a source's own numbers.
func mergeAttributes(entity *model.CanonicalEntity, sourceID string, attrs map[string]any) {
	if len(attrs) == 0 {
		return
	}

	perSource := entity.SourceAttributes[sourceID]
	if perSource == nil {
		perSource = make(map[string]any, len(attrs))
		entity.SourceAttributes[sourceID] = perSource
	}

	for field, value := range attrs {
		if isEmpty(value) {
			continue
		}
		perSource[field] = value
		if existing, ok := entity.MergedAttributes[field]; !ok || isEmpty(existing) {
			entity.MergedAttributes[field] = value
		}
	}
}

// isEmpty reports whether a value counts as absent for merge purposes.
// Zero numbers are real data (a token can have zero holders); only nil,
// blank strings, and empty containers are gaps.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
