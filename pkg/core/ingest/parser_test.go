package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"camels_monitor/pkg/core/catalog"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestCSVParser(t *testing.T) {
	content := "\uFEFFYear,Quarter,CET1/RWA\n2024,Q1,12%\n2024,Q2\n"
	path := writeFixture(t, "ratios.csv", content)
	source := catalog.SourceDefinition{ID: "src", Format: "csv"}

	dataset, err := DefaultParsers().ParseFile(path, source)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if dataset.RowCount() != 2 {
		t.Fatalf("got %d rows, want 2", dataset.RowCount())
	}

	first := dataset.Rows[0]
	if first[0].Name != "Year" {
		t.Errorf("first column = %q, want BOM stripped Year", first[0].Name)
	}
	if v, ok := first.Get("CET1/RWA"); !ok || v != "12%" {
		t.Errorf("CET1/RWA = %q/%v, want 12%%", v, ok)
	}

	// Short records pad missing cells with empty values.
	if v, ok := dataset.Rows[1].Get("CET1/RWA"); !ok || v != "" {
		t.Errorf("short record cell = %q/%v, want empty", v, ok)
	}

	if enc := dataset.Metadata["encoding"]; enc != "utf-8" {
		t.Errorf("encoding metadata = %v", enc)
	}
}

func TestHTMLParserPicksFirstDataTable(t *testing.T) {
	content := `<html><body>
<table><tr><td>navigation only</td></tr></table>
<table>
  <tr><th>Periodo</th><th>CET1/RWA</th></tr>
  <tr><td>2024Q1</td><td>0.12</td></tr>
  <tr><td>2024Q2</td><td>0.13</td></tr>
</table>
</body></html>`
	path := writeFixture(t, "disclosure.html", content)
	source := catalog.SourceDefinition{ID: "src", Format: "html"}

	dataset, err := DefaultParsers().ParseFile(path, source)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if dataset.RowCount() != 2 {
		t.Fatalf("got %d rows, want 2 (single-row table skipped)", dataset.RowCount())
	}
	if v, ok := dataset.Rows[0].Get("Periodo"); !ok || v != "2024Q1" {
		t.Errorf("Periodo = %q/%v", v, ok)
	}
	if v, ok := dataset.Rows[1].Get("CET1/RWA"); !ok || v != "0.13" {
		t.Errorf("CET1/RWA = %q/%v", v, ok)
	}
}

func TestParseFileUnsupportedFormat(t *testing.T) {
	source := catalog.SourceDefinition{ID: "src", Format: "parquet"}
	_, err := DefaultParsers().ParseFile("whatever", source)
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("err = %v, want unsupported format", err)
	}
}

func TestRowGet(t *testing.T) {
	r := Row{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}
	if v, ok := r.Get("B"); !ok || v != "2" {
		t.Errorf("Get(B) = %q/%v", v, ok)
	}
	if _, ok := r.Get("C"); ok {
		t.Error("Get(C) should miss")
	}
}
