// Package overlap measures cross-source agreement as Jaccard similarity.
package overlap

import (
	"sort"

	"github.com/solscout/scout-cli/internal/model"
)

// Matrix is a symmetric source×source similarity matrix backed by a fixed
// 2D slice indexed through a stable source enumeration. Unknown source ids
// read as 0.0 rather than panicking, so a key typo can never invent overlap.
type Matrix struct {
	sources []string
	index   map[string]int
	values  [][]float64
}

// NewMatrix creates a zero matrix over the given sources, sorted for a
// stable enumeration. The diagonal is pinned to 1.0 by convention, even for
// sources with empty entity sets.
func NewMatrix(sources []string) *Matrix {
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	m := &Matrix{
		sources: sorted,
		index:   make(map[string]int, len(sorted)),
		values:  make([][]float64, len(sorted)),
	}
	for i, src := range sorted {
		m.index[src] = i
		m.values[i] = make([]float64, len(sorted))
		m.values[i][i] = 1.0
	}
	return m
}

// Sources returns the stable source enumeration.
func (m *Matrix) Sources() []string {
	out := make([]string, len(m.sources))
	copy(out, m.sources)
	return out
}

// At returns the similarity between two sources.
func (m *Matrix) At(a, b string) float64 {
	i, ok := m.index[a]
	if !ok {
		return 0
	}
	j, ok := m.index[b]
	if !ok {
		return 0
	}
	return m.values[i][j]
}

// Set writes both (a,b) and (b,a) so symmetry holds by construction.
// Unknown ids are ignored.
func (m *Matrix) Set(a, b string, v float64) {
	i, ok := m.index[a]
	if !ok {
		return
	}
	j, ok := m.index[b]
	if !ok {
		return
	}
	m.values[i][j] = v
	m.values[j][i] = v
}

// ToMap renders the matrix as a map-of-maps for JSON serialization.
func (m *Matrix) ToMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m.sources))
	for _, a := range m.sources {
		row := make(map[string]float64, len(m.sources))
		for _, b := range m.sources {
			row[b] = m.At(a, b)
		}
		out[a] = row
	}
	return out
}

// EntitySets derives each source's discovered-entity set from the canonical
// map. Sources in the given list always get a set, possibly empty.
func EntitySets(canonical map[string]*model.CanonicalEntity, sources []string) map[string]map[string]struct{} {
	sets := make(map[string]map[string]struct{}, len(sources))
	for _, src := range sources {
		sets[src] = make(map[string]struct{})
	}
	for key, entity := range canonical {
		for _, src := range entity.OwningSources {
			if _, ok := sets[src]; !ok {
				sets[src] = make(map[string]struct{})
			}
			sets[src][key] = struct{}{}
		}
	}
	return sets
}

// Compute builds the pairwise Jaccard matrix over the given sources from the
// canonical entity map. Deterministic: the same map yields the same matrix.
// Full pairwise computation is fine here — source counts are single digits
// and entity counts low hundreds per cycle.
func Compute(canonical map[string]*model.CanonicalEntity, sources []string) (*Matrix, map[string]map[string]struct{}) {
	sets := EntitySets(canonical, sources)

	ids := make([]string, 0, len(sets))
	for src := range sets {
		ids = append(ids, src)
	}
	m := NewMatrix(ids)

	for i, a := range m.sources {
		for _, b := range m.sources[i+1:] {
			m.Set(a, b, jaccard(sets[a], sets[b]))
		}
	}
	return m, sets
}

// jaccard returns |a∩b| / |a∪b|, with an empty union defined as 0.0.
func jaccard(a, b map[string]struct{}) float64 {
	union := len(a) + len(b)
	if union == 0 {
		return 0
	}
	var inter int
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for key := range small {
		if _, ok := large[key]; ok {
			inter++
		}
	}
	return float64(inter) / float64(union-inter)
}
