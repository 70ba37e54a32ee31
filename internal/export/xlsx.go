package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"horas/internal/services"
)

var monthHeaders = []string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// WriteYearSummaryXLSX renders the annual report as a workbook with one
// sheet: the per-type matrix on top, the derived rows below it.
func WriteYearSummaryXLSX(summary services.YearSummary) (*bytes.Buffer, error) {
	f := excelize.NewFile()

	sheetName := fmt.Sprintf("Resumen %d", summary.Year)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Resumen anual %d", summary.Year))
	for i, h := range monthHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+2, 2)
		f.SetCellValue(sheetName, cell, h)
	}
	totalCol, _ := excelize.CoordinatesToCellName(14, 2)
	f.SetCellValue(sheetName, totalCol, "Total")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 2, 2, headerStyle)
	}

	row := 3
	for _, t := range summary.Types {
		writeSummaryRow(f, sheetName, row, t.Label, t.Months, t.Total)
		row++
	}
	row++ // blank separator before the derived block
	for _, d := range summary.Derived {
		writeSummaryRow(f, sheetName, row, d.Name, d.Months, d.Total)
		row++
	}

	f.SetColWidth(sheetName, "A", "A", 26)
	f.SetColWidth(sheetName, "B", "N", 9)

	if def := f.GetSheetName(0); def != sheetName {
		f.DeleteSheet(def)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func writeSummaryRow(f *excelize.File, sheetName string, row int, name string, months [12]float64, total float64) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	f.SetCellValue(sheetName, cell, name)
	for i, v := range months {
		cell, _ := excelize.CoordinatesToCellName(i+2, row)
		f.SetCellValue(sheetName, cell, v)
	}
	cell, _ = excelize.CoordinatesToCellName(14, row)
	f.SetCellValue(sheetName, cell, total)
}
