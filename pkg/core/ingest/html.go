package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"camels_monitor/pkg/core/catalog"
)

type htmlParser struct{}

// Parse extracts the first data table from an HTML disclosure. Regulator
// pages usually publish one table per document; when several are present the
// first one with a header row and at least one data row wins.
func (htmlParser) Parse(path string, source catalog.SourceDefinition) (ParsedDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParsedDataset{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return ParsedDataset{}, fmt.Errorf("failed to parse HTML %s: %w", path, err)
	}

	var columns []string
	var rows []Row
	tableCount := 0
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		tableCount++
		trs := table.Find("tr")
		if trs.Length() < 2 {
			return true
		}
		trs.First().Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			columns = append(columns, strings.TrimSpace(cell.Text()))
		})
		if len(columns) == 0 {
			return true
		}
		trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
			row := make(Row, 0, len(columns))
			tr.Find("td, th").Each(func(j int, cell *goquery.Selection) {
				name := fmt.Sprintf("column_%d", j)
				if j < len(columns) && columns[j] != "" {
					name = columns[j]
				}
				row = append(row, Field{Name: name, Value: strings.TrimSpace(cell.Text())})
			})
			if len(row) > 0 {
				rows = append(rows, row)
			}
		})
		return false
	})

	if columns == nil {
		columns = []string{}
	}
	return ParsedDataset{
		Rows: rows,
		Metadata: map[string]any{
			"columns": columns,
			"tables":  tableCount,
		},
	}, nil
}
