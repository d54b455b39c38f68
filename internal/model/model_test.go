package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  float64
		valid bool
	}{
		{"float64", 1.5, 1.5, true},
		{"int", 42, 42, true},
		{"int64", int64(7), 7, true},
		{"plain string", "1200", 1200, true},
		{"string with commas", "1,200,000", 1_200_000, true},
		{"string with dollar sign", "$99.50", 99.5, true},
		{"garbage string", "n/a", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEntityAddSource(t *testing.T) {
	e := &CanonicalEntity{EntityKey: "T1"}
	e.AddSource("zeta")
	e.AddSource("alpha")
	e.AddSource("zeta") // duplicate ignored

	assert.Equal(t, []string{"alpha", "zeta"}, e.OwningSources)
	assert.True(t, e.OwnedBy("alpha"))
	assert.False(t, e.OwnedBy("beta"))
}

func TestSourceNumeric(t *testing.T) {
	e := &CanonicalEntity{
		SourceAttributes: map[string]map[string]any{
			"dexscreener": {"volume_usd_24h": "2,000,000"},
		},
	}

	v, ok := e.SourceNumeric("dexscreener", "volume_usd_24h")
	assert.True(t, ok)
	assert.Equal(t, 2_000_000.0, v)

	_, ok = e.SourceNumeric("birdeye", "liquidity_usd")
	assert.False(t, ok)
}
