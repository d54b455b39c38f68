package report

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/solscout/scout-cli/internal/model"
)

// WriteXLSX writes the report as a workbook with one sheet per section.
func WriteXLSX(r *model.Report, path string) error {
	f := xlsx.NewFile()

	if err := addEntitiesSheet(f, r.HighConviction); err != nil {
		return err
	}
	if err := addPerformanceSheet(f, r.SourcePerformance); err != nil {
		return err
	}
	if err := addPairsSheet(f, r.ComplementarityPairs); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save xlsx %s", path)
	}
	return nil
}

func addEntitiesSheet(f *xlsx.File, entities []*model.CanonicalEntity) error {
	sheet, err := f.AddSheet("High Conviction")
	if err != nil {
		return eris.Wrap(err, "report: add entities sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Token", "Address", "Score", "Tier", "Sources", "Volume 24h", "Liquidity"} {
		header.AddCell().Value = h
	}

	for _, e := range entities {
		row := sheet.AddRow()
		row.AddCell().Value = displayKey(e)
		row.AddCell().Value = e.EntityKey
		row.AddCell().SetFloat(e.CompositeScore)
		row.AddCell().Value = string(e.Tier)
		row.AddCell().Value = strings.Join(e.OwningSources, ", ")
		addNumericCell(row, e, "volume_usd_24h")
		addNumericCell(row, e, "liquidity_usd")
	}
	return nil
}

func addNumericCell(row *xlsx.Row, e *model.CanonicalEntity, field string) {
	cell := row.AddCell()
	if v, ok := e.MergedNumeric(field); ok {
		cell.SetFloat(v)
	}
}

func addPerformanceSheet(f *xlsx.File, ranked []model.SourcePerformance) error {
	sheet, err := f.AddSheet("Source Performance")
	if err != nil {
		return eris.Wrap(err, "report: add performance sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Rank", "Source", "Score", "Found", "Unique", "Shared", "Uniqueness", "Avg Quality", "High Quality", "Seconds"} {
		header.AddCell().Value = h
	}

	for _, perf := range ranked {
		row := sheet.AddRow()
		row.AddCell().SetInt(perf.Rank)
		row.AddCell().Value = perf.SourceID
		row.AddCell().SetFloat(perf.PerformanceScore)
		row.AddCell().SetInt(perf.EntitiesFound)
		row.AddCell().SetInt(perf.UniqueEntities)
		row.AddCell().SetInt(perf.SharedEntities)
		row.AddCell().SetFloat(perf.UniquenessScore)
		row.AddCell().SetFloat(perf.AvgQualityScore)
		row.AddCell().SetInt(perf.HighQualityCount)
		row.AddCell().SetFloat(perf.ExecutionTime.Seconds())
	}
	return nil
}

func addPairsSheet(f *xlsx.File, pairs []model.ComplementarityPair) error {
	sheet, err := f.AddSheet("Complementarity")
	if err != nil {
		return eris.Wrap(err, "report: add pairs sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Source A", "Source B", "Score", "Overlap", "Combined Coverage", "Combined Quality"} {
		header.AddCell().Value = h
	}

	for _, pair := range pairs {
		row := sheet.AddRow()
		row.AddCell().Value = pair.SourceA
		row.AddCell().Value = pair.SourceB
		row.AddCell().SetFloat(pair.ComplementarityScore)
		row.AddCell().SetFloat(pair.Overlap)
		row.AddCell().SetInt(pair.CombinedCoverage)
		row.AddCell().SetFloat(pair.CombinedQuality)
	}
	return nil
}
