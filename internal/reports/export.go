package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"openlabel-backend/internal/shared/telemetry"
)

const exportSheet = "Reports"

var exportHeaders = []string{
	"Report ID",
	"Saved At",
	"Recommendation",
	"Health Grade",
	"Total Ingredients",
	"Overall Score",
	"Warnings",
	"Decision",
	"Decided At",
	"Notes",
	"Image URL",
}

// ExportXLSX renders every report as one row of a workbook, newest first.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()
	list, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	for n, rep := range list {
		row := n + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
		view := viewOf(rep.Analysis)

		write(1, rep.ID)
		write(2, rep.SavedAt.Format(time.RFC3339))
		write(3, view.recommendation())
		write(4, view.ProductRecommendation.HealthGrade)
		write(5, rep.Summary.TotalIngredients)
		write(6, rep.Summary.OverallScore)
		write(7, rep.Summary.WarningCount)
		if d := rep.PurchaseDecision; d != nil {
			write(8, d.Decision)
			write(9, d.DecidedAt.Format(time.RFC3339))
			write(10, truncate(d.Notes, 140))
		}
		write(11, rep.ImageInfo.ImageURL)
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 30)
	_ = f.SetColWidth(exportSheet, "B", "B", 22)
	_ = f.SetColWidth(exportSheet, "C", "G", 14)
	_ = f.SetColWidth(exportSheet, "H", "I", 22)
	_ = f.SetColWidth(exportSheet, "J", "J", 48)
	_ = f.SetColWidth(exportSheet, "K", "K", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	telemetry.Info("reports.export_xlsx", map[string]any{
		"rows":       len(list),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
