package config

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Bucket is one step of a tiered threshold table. A value scores the points
// of the highest threshold it meets or exceeds, or 0 below all thresholds.
// Step function, never interpolated.
type Bucket struct {
	Threshold float64 `yaml:"threshold"`
	Points    float64 `yaml:"points"`
}

// SourceScoring configures one source's sub-score: which numeric field it
// reads and the bucket table applied to it. Cap bounds the contribution.
type SourceScoring struct {
	Field   string   `yaml:"field"`
	Cap     float64  `yaml:"cap"`
	Buckets []Bucket `yaml:"buckets"`
}

// BonusScoring configures a flat bonus signal read from the merged view.
type BonusScoring struct {
	Name    string   `yaml:"name"`
	Field   string   `yaml:"field"`
	Cap     float64  `yaml:"cap"`
	Buckets []Bucket `yaml:"buckets"`
}

// PresenceScoring awards points for each source that reported the entity.
type PresenceScoring struct {
	PointsPerSource float64 `yaml:"points_per_source"`
	Cap             float64 `yaml:"cap"`
}

// ScoringConfig is the full composite scoring table.
type ScoringConfig struct {
	ConvictionThreshold  float64                  `yaml:"conviction_threshold"`
	HighQualityThreshold float64                  `yaml:"high_quality_threshold"`
	Presence             PresenceScoring          `yaml:"presence"`
	Sources              map[string]SourceScoring `yaml:"sources"`
	Bonuses              []BonusScoring           `yaml:"bonuses"`
}

// RankingWeights weight the components of a source's performance score.
// They must sum to 1.0; this is enforced at load time, not at scoring time.
type RankingWeights struct {
	TokenCount          float64 `yaml:"token_count"`
	AvgQuality          float64 `yaml:"avg_quality"`
	HighQualityCount    float64 `yaml:"high_quality_count"`
	Uniqueness          float64 `yaml:"uniqueness"`
	ExecutionEfficiency float64 `yaml:"execution_efficiency"`
}

// Sum returns the total of all weights.
func (w RankingWeights) Sum() float64 {
	return w.TokenCount + w.AvgQuality + w.HighQualityCount + w.Uniqueness + w.ExecutionEfficiency
}

// AnalysisConfig is the configuration surface consumed by the correlation
// and scoring core. Everything tunable lives here so that threshold tuning
// is a config swap, not a code fork.
type AnalysisConfig struct {
	// Priority is the source priority order for field-merge resolution.
	// It doubles as the set of "major" sources for the UNIVERSAL tier.
	Priority []string `yaml:"priority"`

	Scoring ScoringConfig  `yaml:"scoring"`
	Ranking RankingWeights `yaml:"ranking"`

	ComplementarityTopN int `yaml:"complementarity_top_n"`
}

// weightEpsilon is the tolerance for the weights-sum-to-one check.
const weightEpsilon = 1e-9

// DefaultAnalysis returns the built-in analysis configuration. Caps sum to
// 100 across presence, per-source tables, and bonuses.
func DefaultAnalysis() *AnalysisConfig {
	return &AnalysisConfig{
		Priority: []string{"dexscreener", "birdeye", "geckoterminal"},
		Scoring: ScoringConfig{
			ConvictionThreshold:  70,
			HighQualityThreshold: 50,
			Presence: PresenceScoring{
				PointsPerSource: 5,
				Cap:             15,
			},
			Sources: map[string]SourceScoring{
				"dexscreener": {
					Field: "volume_usd_24h",
					Cap:   25,
					Buckets: []Bucket{
						{Threshold: 100_000, Points: 4},
						{Threshold: 500_000, Points: 6},
						{Threshold: 1_000_000, Points: 8},
						{Threshold: 5_000_000, Points: 12},
						{Threshold: 20_000_000, Points: 25},
					},
				},
				"birdeye": {
					Field: "liquidity_usd",
					Cap:   25,
					Buckets: []Bucket{
						{Threshold: 50_000, Points: 4},
						{Threshold: 250_000, Points: 8},
						{Threshold: 1_000_000, Points: 15},
						{Threshold: 5_000_000, Points: 25},
					},
				},
				"geckoterminal": {
					Field: "price_change_pct_24h",
					Cap:   25,
					Buckets: []Bucket{
						{Threshold: 5, Points: 5},
						{Threshold: 15, Points: 10},
						{Threshold: 40, Points: 18},
						{Threshold: 100, Points: 25},
					},
				},
			},
			Bonuses: []BonusScoring{
				{
					Name:  "narrative",
					Field: "narrative_matches",
					Cap:   10,
					Buckets: []Bucket{
						{Threshold: 1, Points: 2},
						{Threshold: 3, Points: 5},
						{Threshold: 5, Points: 10},
					},
				},
			},
		},
		Ranking: RankingWeights{
			TokenCount:          0.20,
			AvgQuality:          0.30,
			HighQualityCount:    0.20,
			Uniqueness:          0.15,
			ExecutionEfficiency: 0.15,
		},
		ComplementarityTopN: 5,
	}
}

// LoadAnalysis reads an analysis config from a YAML file and validates it.
func LoadAnalysis(path string) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: read config %s", path)
	}

	// The YAML has a top-level "analysis" key.
	var wrapper struct {
		Analysis AnalysisConfig `yaml:"analysis"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "analysis: parse config")
	}

	cfg := &wrapper.Analysis
	if cfg.ComplementarityTopN == 0 {
		cfg.ComplementarityTopN = 5
	}
	if cfg.Scoring.ConvictionThreshold == 0 {
		cfg.Scoring.ConvictionThreshold = 70
	}
	if cfg.Scoring.HighQualityThreshold == 0 {
		cfg.Scoring.HighQualityThreshold = 50
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would silently corrupt every score.
// These are the only fatal errors in the system; everything downstream of a
// valid config recovers locally.
func (c *AnalysisConfig) Validate() error {
	if len(c.Priority) == 0 {
		return eris.New("analysis: source priority order is empty")
	}
	seen := make(map[string]bool, len(c.Priority))
	for _, src := range c.Priority {
		if src == "" {
			return eris.New("analysis: empty source id in priority order")
		}
		if seen[src] {
			return eris.Errorf("analysis: duplicate source %q in priority order", src)
		}
		seen[src] = true
	}

	if sum := c.Ranking.Sum(); math.Abs(sum-1.0) > weightEpsilon {
		return eris.Errorf("analysis: ranking weights sum to %.4f, want 1.0", sum)
	}

	if t := c.Scoring.ConvictionThreshold; t < 0 || t > 100 {
		return eris.Errorf("analysis: conviction threshold %.1f outside [0,100]", t)
	}

	capTotal := c.Scoring.Presence.Cap
	for src, sc := range c.Scoring.Sources {
		if !seen[src] {
			return eris.Errorf("analysis: scoring table for unknown source %q", src)
		}
		if err := validateBuckets(src, sc.Buckets, sc.Cap); err != nil {
			return err
		}
		capTotal += sc.Cap
	}
	for _, b := range c.Scoring.Bonuses {
		if err := validateBuckets("bonus "+b.Name, b.Buckets, b.Cap); err != nil {
			return err
		}
		capTotal += b.Cap
	}
	if math.Abs(capTotal-100) > weightEpsilon {
		return eris.Errorf("analysis: score caps sum to %.1f, want 100", capTotal)
	}

	return nil
}

func validateBuckets(name string, buckets []Bucket, maxPoints float64) error {
	if len(buckets) == 0 {
		return eris.Errorf("analysis: %s has no buckets", name)
	}
	prev := math.Inf(-1)
	for _, b := range buckets {
		if b.Threshold <= prev {
			return eris.Errorf("analysis: %s bucket thresholds not ascending", name)
		}
		if b.Points < 0 {
			return eris.Errorf("analysis: %s has negative bucket points", name)
		}
		if b.Points > maxPoints {
			return eris.Errorf("analysis: %s bucket points %.1f exceed cap %.1f", name, b.Points, maxPoints)
		}
		prev = b.Threshold
	}
	return nil
}
