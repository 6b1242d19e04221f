package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes a workbook with a Portfolio and an Indicators sheet and
// returns its path.
func WriteXLSX(dir string, portfolio []PortfolioRow, indicators []IndicatorRow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const portfolioSheet = "Portfolio"
	f.SetSheetName(f.GetSheetName(0), portfolioSheet)
	if err := writeSheetRow(f, portfolioSheet, 1, portfolioHeader); err != nil {
		return "", err
	}
	for i, row := range portfolio {
		cells := []any{row.BankID, row.Score, row.Rating, row.Period}
		if err := writeSheetCells(f, portfolioSheet, i+2, cells); err != nil {
			return "", err
		}
	}

	const indicatorSheet = "Indicators"
	if _, err := f.NewSheet(indicatorSheet); err != nil {
		return "", fmt.Errorf("failed to create sheet %s: %w", indicatorSheet, err)
	}
	if err := writeSheetRow(f, indicatorSheet, 1, indicatorHeader); err != nil {
		return "", err
	}
	for i, row := range indicators {
		var value any
		if row.Value != nil {
			value = *row.Value
		}
		cells := []any{
			row.BankID, row.Pillar, row.IndicatorID, value, row.Score,
			row.Rating, row.Weight, row.Period, row.SourceID,
		}
		if err := writeSheetCells(f, indicatorSheet, i+2, cells); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, "scores.xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return writeSheetCells(f, sheet, row, cells)
}

func writeSheetCells(f *excelize.File, sheet string, row int, values []any) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
