// Package report renders scan reports to markdown, JSON, and XLSX.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/solscout/scout-cli/internal/model"
)

// maxMarkdownEntities bounds the high-conviction table in the markdown view.
const maxMarkdownEntities = 25

// Markdown renders a report as a markdown document.
func Markdown(r *model.Report) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "# Token Scan Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	p.Fprintf(&b, "- Total entities: %d\n", r.TotalEntities)
	fmt.Fprintf(&b, "- Cross-validation rate: %.1f%%\n\n", r.CrossValidationRate*100)

	writeDistribution(&b, r.PlatformDistribution)
	writeOverlapMatrix(&b, r.OverlapMatrix)
	writeHighConviction(&b, p, r.HighConviction)
	writePerformance(&b, p, r.SourcePerformance)
	writePairs(&b, r.ComplementarityPairs)
	writeInsights(&b, r.Insights)
	writeDiagnostics(&b, r.Diagnostics)

	return b.String()
}

func writeDistribution(b *strings.Builder, dist map[int]int) {
	if len(dist) == 0 {
		return
	}
	b.WriteString("## Source Distribution\n\n")

	counts := make([]int, 0, len(dist))
	for n := range dist {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	for _, n := range counts {
		label := "sources"
		if n == 1 {
			label = "source"
		}
		fmt.Fprintf(b, "- Seen by %d %s: %d\n", n, label, dist[n])
	}
	b.WriteString("\n")
}

func writeOverlapMatrix(b *strings.Builder, matrix map[string]map[string]float64) {
	if len(matrix) == 0 {
		return
	}
	b.WriteString("## Overlap Matrix\n\n")

	sources := make([]string, 0, len(matrix))
	for src := range matrix {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	b.WriteString("| |")
	for _, src := range sources {
		fmt.Fprintf(b, " %s |", src)
	}
	b.WriteString("\n|---|")
	for range sources {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range sources {
		fmt.Fprintf(b, "| **%s** |", row)
		for _, col := range sources {
			fmt.Fprintf(b, " %.2f |", matrix[row][col])
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeHighConviction(b *strings.Builder, p *message.Printer, entities []*model.CanonicalEntity) {
	b.WriteString("## High Conviction Entities\n\n")
	if len(entities) == 0 {
		b.WriteString("None this cycle.\n\n")
		return
	}

	b.WriteString("| Token | Score | Tier | Sources | Volume 24h | Liquidity |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	shown := entities
	if len(shown) > maxMarkdownEntities {
		shown = shown[:maxMarkdownEntities]
	}
	for _, e := range shown {
		volume := "-"
		if v, ok := e.MergedNumeric("volume_usd_24h"); ok {
			volume = p.Sprintf("$%.0f", v)
		}
		liquidity := "-"
		if v, ok := e.MergedNumeric("liquidity_usd"); ok {
			liquidity = p.Sprintf("$%.0f", v)
		}
		fmt.Fprintf(b, "| `%s` | %.1f | %s | %s | %s | %s |\n",
			displayKey(e), e.CompositeScore, e.Tier,
			strings.Join(e.OwningSources, ", "), volume, liquidity)
	}
	if len(entities) > maxMarkdownEntities {
		fmt.Fprintf(b, "\n%d more not shown.\n", len(entities)-maxMarkdownEntities)
	}
	b.WriteString("\n")
}

func writePerformance(b *strings.Builder, p *message.Printer, ranked []model.SourcePerformance) {
	if len(ranked) == 0 {
		return
	}
	b.WriteString("## Source Performance\n\n")
	b.WriteString("| Rank | Source | Score | Found | Unique | Avg Quality | Time |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, perf := range ranked {
		p.Fprintf(b, "| %d | %s | %.1f | %d | %d | %.1f | %s |\n",
			perf.Rank, perf.SourceID, perf.PerformanceScore,
			perf.EntitiesFound, perf.UniqueEntities, perf.AvgQualityScore,
			perf.ExecutionTime.Round(10*time.Millisecond))
	}
	b.WriteString("\n")
}

func writePairs(b *strings.Builder, pairs []model.ComplementarityPair) {
	if len(pairs) == 0 {
		return
	}
	b.WriteString("## Complementary Source Pairs\n\n")
	for _, pair := range pairs {
		fmt.Fprintf(b, "- **%s + %s**: score %.2f, overlap %.2f, combined coverage %d\n",
			pair.SourceA, pair.SourceB, pair.ComplementarityScore, pair.Overlap, pair.CombinedCoverage)
	}
	b.WriteString("\n")
}

func writeInsights(b *strings.Builder, insights []string) {
	if len(insights) == 0 {
		return
	}
	b.WriteString("## Insights\n\n")
	for _, s := range insights {
		fmt.Fprintf(b, "- %s\n", s)
	}
	b.WriteString("\n")
}

func writeDiagnostics(b *strings.Builder, d model.Diagnostics) {
	if d.SkippedRecords == 0 && len(d.SourceFailures) == 0 {
		return
	}
	b.WriteString("## Diagnostics\n\n")
	if d.SkippedRecords > 0 {
		fmt.Fprintf(b, "- Skipped records: %d\n", d.SkippedRecords)
	}
	failed := make([]string, 0, len(d.SourceFailures))
	for src := range d.SourceFailures {
		failed = append(failed, src)
	}
	sort.Strings(failed)
	for _, src := range failed {
		fmt.Fprintf(b, "- Source `%s` failed: %s\n", src, d.SourceFailures[src])
	}
	b.WriteString("\n")
}

// displayKey prefers the merged symbol over the raw address.
func displayKey(e *model.CanonicalEntity) string {
	if sym, ok := e.MergedAttributes["symbol"].(string); ok && sym != "" {
		return sym
	}
	return e.EntityKey
}
