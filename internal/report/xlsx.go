package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/milexcast/internal/pipeline"
)

const (
	predictionsSheet = "Predictions"
	metricsSheet     = "Metrics"
)

// ExportXLSX writes the per-year predictions and per-model metrics of res to
// a workbook at path. Undefined metrics are left blank.
func ExportXLSX(res *pipeline.Result, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", predictionsSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	ids := modelIDs(res)

	header := []any{"Year", "Actual"}
	for _, id := range ids {
		header = append(header, id.DisplayName())
	}
	if err := f.SetSheetRow(predictionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	for i, r := range Rows(res) {
		row := []any{r.Year, cellValue(r.Actual)}
		for _, id := range ids {
			row = append(row, cellValue(r.Predictions[id]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := f.SetSheetRow(predictionsSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	_ = f.SetColWidth(predictionsSheet, "A", "A", 8)
	_ = f.SetColWidth(predictionsSheet, "B", "E", 22)

	if _, err := f.NewSheet(metricsSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	mh := []any{"Model", "R2", "RMSE", "MSE", "MAPE"}
	if err := f.SetSheetRow(metricsSheet, "A1", &mh); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	for i, id := range ids {
		m := res.Models[id].Metrics
		row := []any{id.DisplayName(), cellValue(m.R2), cellValue(m.RMSE), cellValue(m.MSE), cellValue(m.MAPE)}
		if err := f.SetSheetRow(metricsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	_ = f.SetColWidth(metricsSheet, "A", "A", 24)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return nil
}

func cellValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
