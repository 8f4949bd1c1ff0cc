package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/simonsteiger/strix/domain/contrast"
	"github.com/simonsteiger/strix/domain/run"
	"github.com/simonsteiger/strix/ports"
)

// Writer exports a contrast run to an xlsx workbook: one summary sheet with
// per-covariate point summaries, plus one sheet per credible-interval band.
// The workbook is the hand-off artifact for external plotting tools.
type Writer struct{}

// NewWriter creates an xlsx exporter
func NewWriter() *Writer {
	return &Writer{}
}

// Export writes the run result to path
func (w *Writer) Export(_ context.Context, result *run.Result, path string) error {
	if result == nil || result.Summary == nil {
		return fmt.Errorf("nothing to export: empty run result")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummarySheet(f, result); err != nil {
		return err
	}
	for _, band := range result.Summary.Bands {
		if err := w.writeBandSheet(f, band); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func (w *Writer) writeSummarySheet(f *excelize.File, result *run.Result) error {
	const sheet = "summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	meta := [][]interface{}{
		{"run_id", result.Manifest.RunID.String()},
		{"contrast", fmt.Sprintf("%s - %s", result.Manifest.GroupA, result.Manifest.GroupB)},
		{"seed", result.Manifest.Seed},
		{"draw_count", result.Manifest.DrawCount},
		{"reference_offset", result.Manifest.ReferenceOffset},
		{"fingerprint", result.Manifest.Fingerprint.String()},
	}
	for i, row := range meta {
		if err := writeRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}

	header := i2s("covariate", "mean_diff", "min_diff", "max_diff", "p_positive", "p_negative")
	start := len(meta) + 2
	if err := writeRow(f, sheet, start, header); err != nil {
		return err
	}
	for i, p := range result.Points {
		row := []interface{}{p.Covariate, p.Mean, p.Min, p.Max, p.Sign.PPositive, p.Sign.PNegative}
		if err := writeRow(f, sheet, start+1+i, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeBandSheet(f *excelize.File, band contrast.ContrastBand) error {
	// Raw quantiles keep names unique when two pairs round to the same percent.
	sheet := fmt.Sprintf("interval_%.4g_%.4g", band.Pair.Lo, band.Pair.Hi)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	if err := writeRow(f, sheet, 1, i2s("covariate", "lower", "upper")); err != nil {
		return err
	}
	for i, b := range band.Bands {
		if err := writeRow(f, sheet, i+2, []interface{}{b.Covariate, b.Lower, b.Upper}); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("bad cell coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func i2s(values ...string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

var _ ports.ExporterPort = (*Writer)(nil)
