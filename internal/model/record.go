package model

import (
	"strconv"
	"strings"
	"time"
)

// SourceRecord is a single observation of a token reported by one source
// during one scan cycle. Records are immutable: connectors create them and
// the normalizer consumes them exactly once.
type SourceRecord struct {
	SourceID   string         `json:"source_id"`
	EntityKey  string         `json:"entity_key"`
	Attributes map[string]any `json:"attributes"`
	ObservedAt time.Time      `json:"observed_at"`
}

// NumericAttr extracts a numeric attribute by name. Sources report numbers
// in whatever shape their API returns (float, int, or a formatted string),
// so all of those coerce. Returns false for missing or non-numeric values.
func (r SourceRecord) NumericAttr(name string) (float64, bool) {
	if r.Attributes == nil {
		return 0, false
	}
	return ToFloat(r.Attributes[name])
}

// ToFloat coerces a loosely-typed attribute value into a float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		cleaned := strings.ReplaceAll(n, ",", "")
		cleaned = strings.TrimPrefix(cleaned, "$")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
