package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

var portfolioHeader = []string{"bank_id", "score", "rating", "period"}

var indicatorHeader = []string{
	"bank_id", "pillar", "indicator_id", "value", "score", "rating",
	"weight", "period", "source_id",
}

// WriteCSV writes portfolio.csv and indicators.csv under dir and returns
// their paths.
func WriteCSV(dir string, portfolio []PortfolioRow, indicators []IndicatorRow) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	portfolioPath := filepath.Join(dir, "portfolio.csv")
	records := [][]string{portfolioHeader}
	for _, row := range portfolio {
		records = append(records, []string{
			row.BankID, formatScore(row.Score), row.Rating, row.Period,
		})
	}
	if err := writeCSVFile(portfolioPath, records); err != nil {
		return nil, err
	}

	indicatorPath := filepath.Join(dir, "indicators.csv")
	records = [][]string{indicatorHeader}
	for _, row := range indicators {
		records = append(records, []string{
			row.BankID, row.Pillar, row.IndicatorID, formatValue(row.Value),
			formatScore(row.Score), row.Rating, formatWeight(row.Weight),
			row.Period, row.SourceID,
		})
	}
	if err := writeCSVFile(indicatorPath, records); err != nil {
		return nil, err
	}

	return []string{portfolioPath, indicatorPath}, nil
}

func writeCSVFile(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	writer.Flush()
	return writer.Error()
}
