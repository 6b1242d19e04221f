package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"camels_monitor/pkg/core/catalog"
)

type xlsxParser struct{}

func (xlsxParser) Parse(path string, source catalog.SourceDefinition) (ParsedDataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ParsedDataset{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := source.Worksheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return ParsedDataset{}, fmt.Errorf("worksheet %q not found in %s", sheet, path)
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return ParsedDataset{}, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	if len(cells) == 0 {
		return ParsedDataset{Metadata: map[string]any{"columns": []string{}, "worksheet": sheet}}, nil
	}

	columns := make([]string, len(cells[0]))
	for i, value := range cells[0] {
		columns[i] = strings.TrimSpace(value)
	}

	var rows []Row
	for _, record := range cells[1:] {
		row := make(Row, 0, len(record))
		for i, value := range record {
			name := fmt.Sprintf("column_%d", i)
			if i < len(columns) && columns[i] != "" {
				name = columns[i]
			}
			row = append(row, Field{Name: name, Value: value})
		}
		rows = append(rows, row)
	}

	return ParsedDataset{
		Rows: rows,
		Metadata: map[string]any{
			"columns":   columns,
			"worksheet": sheet,
		},
	}, nil
}
