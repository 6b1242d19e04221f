package normalize

import (
	"testing"

	"camels_monitor/pkg/core/ingest"
)

func row(pairs ...string) ingest.Row {
	var r ingest.Row
	for i := 0; i+1 < len(pairs); i += 2 {
		r = append(r, ingest.Field{Name: pairs[i], Value: pairs[i+1]})
	}
	return r
}

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		name      string
		row       ingest.Row
		wantOK    bool
		wantLabel string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "Year and Quarter columns",
			row:       row("Year", "2024", "Quarter", "Q1", "CET1/RWA", "12%"),
			wantOK:    true,
			wantLabel: "2024Q1",
			wantStart: "2024-01-01",
			wantEnd:   "2024-03-31",
		},
		{
			name:      "Spanish synonyms",
			row:       row("Anio", "2023", "Trimestre", "3"),
			wantOK:    true,
			wantLabel: "2023Q3",
			wantStart: "2023-07-01",
			wantEnd:   "2023-09-30",
		},
		{
			name:      "Period marker with compact label",
			row:       row("Periodo", "2024-Q2"),
			wantOK:    true,
			wantLabel: "2024Q2",
			wantStart: "2024-04-01",
			wantEnd:   "2024-06-30",
		},
		{
			name:      "Date column infers quarter",
			row:       row("Fecha", "2024-06-30"),
			wantOK:    true,
			wantLabel: "2024Q2",
			wantStart: "2024-04-01",
			wantEnd:   "2024-06-30",
		},
		{
			name:      "Fourth quarter ends on December 31",
			row:       row("Year", "2023", "Q", "4"),
			wantOK:    true,
			wantLabel: "2023Q4",
			wantStart: "2023-10-01",
			wantEnd:   "2023-12-31",
		},
		{
			name:      "Slash date layout",
			row:       row("Date", "31/03/2024"),
			wantOK:    true,
			wantLabel: "2024Q1",
			wantStart: "2024-01-01",
			wantEnd:   "2024-03-31",
		},
		{
			name:      "ISO timestamp fallback",
			row:       row("period", "2024-09-30T00:00:00"),
			wantOK:    true,
			wantLabel: "2024Q3",
			wantStart: "2024-07-01",
			wantEnd:   "2024-09-30",
		},
		{
			name:      "Period column overrides year and quarter pair",
			row:       row("Year", "2020", "Quarter", "1", "Period", "2024Q3"),
			wantOK:    true,
			wantLabel: "2024Q3",
			wantStart: "2024-07-01",
			wantEnd:   "2024-09-30",
		},
		{
			name:      "Later year column overrides earlier",
			row:       row("Year", "2020", "Anio", "2024", "Quarter", "2"),
			wantOK:    true,
			wantLabel: "2024Q2",
		},
		{
			name:   "No period evidence",
			row:    row("Bank", "Banco Andino", "CET1/RWA", "0.12"),
			wantOK: false,
		},
		{
			name:   "Year without quarter",
			row:    row("Year", "2024"),
			wantOK: false,
		},
		{
			name:   "Unparseable period text is skipped",
			row:    row("Period", "full year results"),
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			period, ok := ResolvePeriod(tc.row)
			if ok != tc.wantOK {
				t.Fatalf("ResolvePeriod ok = %v, want %v", ok, tc.wantOK)
			}
			if !tc.wantOK {
				return
			}
			if period.Label != tc.wantLabel {
				t.Errorf("label = %q, want %q", period.Label, tc.wantLabel)
			}
			if tc.wantStart != "" && period.Start != tc.wantStart {
				t.Errorf("start = %q, want %q", period.Start, tc.wantStart)
			}
			if tc.wantEnd != "" && period.End != tc.wantEnd {
				t.Errorf("end = %q, want %q", period.End, tc.wantEnd)
			}
		})
	}
}

func TestResolvePeriodFirstMatchingPeriodFieldWins(t *testing.T) {
	r := row("Periodo", "2023Q4", "Fecha", "2024-03-31")
	period, ok := ResolvePeriod(r)
	if !ok {
		t.Fatal("expected a period")
	}
	if period.Label != "2023Q4" {
		t.Errorf("label = %q, want 2023Q4 (first matching field wins)", period.Label)
	}
}
