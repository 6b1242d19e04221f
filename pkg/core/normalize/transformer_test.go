package normalize

import (
	"testing"

	"camels_monitor/pkg/core/catalog"
	"camels_monitor/pkg/core/ingest"
	"camels_monitor/pkg/core/registry"
)

func testSource(indicators ...string) catalog.SourceDefinition {
	return catalog.SourceDefinition{
		ID:         "sbs_banco_andino_q",
		Name:       "SBS quarterly ratios",
		Country:    "PE",
		Regulator:  "SBS",
		Bank:       "Banco Andino",
		URL:        "file:///tmp/fixture.csv",
		Format:     "csv",
		Frequency:  "quarterly",
		Indicators: indicators,
	}
}

func testTransformer() *Transformer {
	banks := []registry.BankProfile{
		{BankID: "banco_andino", Name: "Banco Andino", Country: "PE", Regulator: "SBS"},
	}
	return NewTransformer(registry.NewIndicatorCatalog(registry.DefaultIndicators()), registry.BankLookup(banks))
}

func TestTransformPercentCell(t *testing.T) {
	dataset := ingest.ParsedDataset{
		Rows: []ingest.Row{row("Year", "2024", "Quarter", "Q1", "CET1/RWA", "12%")},
	}
	source := testSource("CET1/RWA")
	prov := Provenance{RunID: "ing-1", Checksum: "abc123"}

	observations := testTransformer().Transform(dataset, source, prov, "run-1")
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(observations))
	}
	obs := observations[0]
	if obs.BankID != "banco_andino" {
		t.Errorf("bank = %q, want banco_andino", obs.BankID)
	}
	if obs.IndicatorID != "cet1_rwa" {
		t.Errorf("indicator = %q, want cet1_rwa", obs.IndicatorID)
	}
	if obs.Period != "2024Q1" || obs.PeriodStart != "2024-01-01" || obs.PeriodEnd != "2024-03-31" {
		t.Errorf("period = %s [%s..%s], want 2024Q1 [2024-01-01..2024-03-31]",
			obs.Period, obs.PeriodStart, obs.PeriodEnd)
	}
	if obs.Value == nil || *obs.Value != 0.12 {
		t.Errorf("value = %v, want 0.12", obs.Value)
	}
	if obs.RawValue != "12%" {
		t.Errorf("raw value = %q, want 12%%", obs.RawValue)
	}
	if obs.Metadata["checksum"] != "abc123" || obs.Metadata["source_run"] != "ing-1" {
		t.Errorf("provenance metadata not forwarded: %v", obs.Metadata)
	}
}

func TestTransformRescaleHeuristic(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want float64
	}{
		{"Percentage points rescaled", "12.5", 0.125},
		{"Already a ratio left alone", "0.125", 0.125},
		{"Boundary value 2 left alone", "2", 2.0},
		{"Negative magnitude rescaled", "-14", -0.14},
		{"Thousands separator stripped", "1,250", 12.50},
	}
	source := testSource("ROE")
	transformer := testTransformer()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dataset := ingest.ParsedDataset{
				Rows: []ingest.Row{row("Year", "2024", "Quarter", "1", "ROE", tc.cell)},
			}
			observations := transformer.Transform(dataset, source, Provenance{}, "run-1")
			if len(observations) != 1 {
				t.Fatalf("expected 1 observation, got %d", len(observations))
			}
			if got := *observations[0].Value; got != tc.want {
				t.Errorf("value = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTransformCountUnitNotRescaled(t *testing.T) {
	dataset := ingest.ParsedDataset{
		Rows: []ingest.Row{row("Year", "2024", "Quarter", "1", "Eventos regulatorios", "5")},
	}
	source := testSource("Eventos regulatorios")
	observations := testTransformer().Transform(dataset, source, Provenance{}, "run-1")
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(observations))
	}
	if got := *observations[0].Value; got != 5 {
		t.Errorf("count value = %v, want 5 (counts never rescale)", got)
	}
}

func TestTransformSkipsUnknownBank(t *testing.T) {
	dataset := ingest.ParsedDataset{
		Rows: []ingest.Row{row("Year", "2024", "Quarter", "1", "ROE", "0.1")},
	}
	source := testSource("ROE")
	source.Bank = "Banco Fantasma"
	if observations := testTransformer().Transform(dataset, source, Provenance{}, "run-1"); observations != nil {
		t.Errorf("expected nil for unknown bank, got %d observations", len(observations))
	}
}

func TestTransformSkipsBadCells(t *testing.T) {
	dataset := ingest.ParsedDataset{
		Rows: []ingest.Row{
			row("Year", "2024", "Quarter", "1", "ROE", ""),      // empty cell
			row("Year", "2024", "Quarter", "1", "ROE", "n/a"),   // unparseable
			row("Bank", "Banco Andino", "ROE", "0.10"),          // no period
			row("Year", "2024", "Quarter", "2", "ROE", "0.10"),  // good
		},
	}
	source := testSource("ROE")
	observations := testTransformer().Transform(dataset, source, Provenance{}, "run-1")
	if len(observations) != 1 {
		t.Fatalf("expected only the valid row to survive, got %d observations", len(observations))
	}
	if observations[0].Period != "2024Q2" {
		t.Errorf("period = %q, want 2024Q2", observations[0].Period)
	}
}

func TestTransformOutOfRangeStillEmitted(t *testing.T) {
	// lcr is bounded [0, 3]; 450% rescales to 4.5, which is out of range but
	// must still be emitted with a warning rather than dropped.
	dataset := ingest.ParsedDataset{
		Rows: []ingest.Row{row("Year", "2024", "Quarter", "1", "LCR", "450")},
	}
	source := testSource("LCR")
	observations := testTransformer().Transform(dataset, source, Provenance{}, "run-1")
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(observations))
	}
	if got := *observations[0].Value; got != 4.5 {
		t.Errorf("value = %v, want 4.5", got)
	}
}

func TestTransformDuplicateDeclarationsCollapse(t *testing.T) {
	dataset := ingest.ParsedDataset{
		Rows: []ingest.Row{row("Year", "2024", "Quarter", "1", "CET1/RWA", "12%")},
	}
	// Both spellings slug to the same catalog entry; the duplicate must not
	// double-emit the observation.
	source := testSource("CET1/RWA", "cet1 rwa")
	observations := testTransformer().Transform(dataset, source, Provenance{}, "run-1")
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation for duplicate declarations, got %d", len(observations))
	}
	if observations[0].IndicatorID != "cet1_rwa" {
		t.Errorf("indicator = %q, want cet1_rwa", observations[0].IndicatorID)
	}
}

func TestTransformIgnoresUndeclaredIndicators(t *testing.T) {
	dataset := ingest.ParsedDataset{
		Rows: []ingest.Row{row("Year", "2024", "Quarter", "1", "ROE", "0.1", "ROA", "0.01")},
	}
	source := testSource("ROE") // ROA present in the row but not declared
	observations := testTransformer().Transform(dataset, source, Provenance{}, "run-1")
	if len(observations) != 1 || observations[0].IndicatorID != "roe" {
		t.Fatalf("expected only declared indicators, got %+v", observations)
	}
}
