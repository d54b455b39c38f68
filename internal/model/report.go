package model

import "time"

// Diagnostics records non-fatal problems encountered during a scan cycle.
// Partial failure is normal: a failed source still produces a usable report.
type Diagnostics struct {
	SkippedRecords int               `json:"skipped_records"`
	SourceFailures map[string]string `json:"source_failures,omitempty"`
}

// SourcePerformance summarizes one source's effectiveness for one cycle.
type SourcePerformance struct {
	SourceID         string        `json:"source_id"`
	EntitiesFound    int           `json:"entities_found"`
	UniqueEntities   int           `json:"unique_entities"`
	SharedEntities   int           `json:"shared_entities"`
	UniquenessScore  float64       `json:"uniqueness_score"`
	AvgQualityScore  float64       `json:"avg_quality_score"`
	HighQualityCount int           `json:"high_quality_count"`
	ExecutionTime    time.Duration `json:"execution_time"`
	PerformanceScore float64       `json:"performance_score"`
	Rank             int           `json:"rank"`
}

// ComplementarityPair ranks a pair of sources by how well they complement
// each other: high combined coverage with low mutual overlap.
type ComplementarityPair struct {
	SourceA              string  `json:"source_a"`
	SourceB              string  `json:"source_b"`
	Overlap              float64 `json:"overlap"`
	CombinedCoverage     int     `json:"combined_coverage"`
	CombinedQuality      float64 `json:"combined_quality"`
	ComplementarityScore float64 `json:"complementarity_score"`
}

// Report is the full output of one scan cycle. Persistence and formatting
// happen outside the engine; the report itself is a plain value.
type Report struct {
	RunID                string      `json:"run_id"`
	GeneratedAt          time.Time   `json:"generated_at"`
	TotalEntities        int         `json:"total_entities"`
	PlatformDistribution map[int]int `json:"platform_distribution"`
	CrossValidationRate  float64     `json:"cross_validation_rate"`

	OverlapMatrix map[string]map[string]float64 `json:"overlap_matrix"`

	// HighConviction holds entities with conviction == true, sorted by
	// composite score descending.
	HighConviction []*CanonicalEntity `json:"high_conviction_entities"`

	SourcePerformance    []SourcePerformance   `json:"source_performance_ranking"`
	ComplementarityPairs []ComplementarityPair `json:"complementarity_pairs"`
	Insights             []string              `json:"insights"`
	Diagnostics          Diagnostics           `json:"diagnostics"`
}

// ScanStatus tracks the lifecycle of a persisted scan run.
type ScanStatus string

const (
	ScanStatusRunning  ScanStatus = "running"
	ScanStatusComplete ScanStatus = "complete"
	ScanStatusFailed   ScanStatus = "failed"
)

// Scan is a persisted scan run with its report, stored by internal/store.
type Scan struct {
	ID        string     `json:"id"`
	Status    ScanStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Report    *Report    `json:"report,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
