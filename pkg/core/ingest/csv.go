package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"camels_monitor/pkg/core/catalog"
)

type csvParser struct{}

func (csvParser) Parse(path string, source catalog.SourceDefinition) (ParsedDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParsedDataset{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return parseCSV(f, source)
}

func parseCSV(r io.Reader, source catalog.SourceDefinition) (ParsedDataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return ParsedDataset{Metadata: map[string]any{"columns": []string{}}}, nil
	}
	if err != nil {
		return ParsedDataset{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimPrefix(strings.TrimSpace(name), "\uFEFF")
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ParsedDataset{}, fmt.Errorf("failed to read CSV row: %w", err)
		}
		row := make(Row, 0, len(columns))
		for i, name := range columns {
			value := ""
			if i < len(record) {
				value = record[i]
			}
			row = append(row, Field{Name: name, Value: value})
		}
		rows = append(rows, row)
	}

	encoding := source.Encoding
	if encoding == "" {
		encoding = "utf-8"
	}
	return ParsedDataset{
		Rows: rows,
		Metadata: map[string]any{
			"columns":  columns,
			"encoding": encoding,
		},
	}, nil
}
