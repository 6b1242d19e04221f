package normalize

import (
	"log"
	"math"
	"strconv"
	"strings"

	"camels_monitor/pkg/core/catalog"
	"camels_monitor/pkg/core/ingest"
	"camels_monitor/pkg/core/registry"
)

// CanonicalObservation is one bank/indicator/period value after
// normalization. The persistence layer deduplicates on
// (BankID, IndicatorID, Period, SourceID, RunID).
type CanonicalObservation struct {
	BankID      string         `json:"bank_id"`
	IndicatorID string         `json:"indicator_id"`
	Period      string         `json:"period"`
	PeriodStart string         `json:"period_start"`
	PeriodEnd   string         `json:"period_end"`
	Value       *float64       `json:"value"`
	Unit        string         `json:"unit"`
	RawValue    string         `json:"raw_value"`
	SourceID    string         `json:"source_id"`
	RunID       string         `json:"run_id"`
	Metadata    map[string]any `json:"metadata"`
}

// Provenance forwards opaque identity from the ingestion stage into
// observation metadata.
type Provenance struct {
	RunID    string
	Checksum string
}

// Transformer converts parsed datasets into canonical observations.
type Transformer struct {
	catalog    *registry.IndicatorCatalog
	bankLookup map[string]string
}

// NewTransformer builds a transformer over the indicator catalog and the
// bank slug map.
func NewTransformer(cat *registry.IndicatorCatalog, bankLookup map[string]string) *Transformer {
	return &Transformer{catalog: cat, bankLookup: bankLookup}
}

// Transform produces the canonical observations for one source's dataset.
// Data-quality problems degrade to skips: an unresolvable bank skips the
// whole source, a row without a period or an unparseable cell skips just
// that row/indicator. The result order is row order × declared indicator
// order and carries no deduplication.
func (t *Transformer) Transform(dataset ingest.ParsedDataset, source catalog.SourceDefinition, prov Provenance, runID string) []CanonicalObservation {
	bankID, ok := t.bankLookup[registry.Slugify(source.Bank)]
	if !ok {
		log.Printf("WARN: bank %q not found in registry; skipping source %s", source.Bank, source.ID)
		return nil
	}

	// Only indicators declared by the source AND present in the canonical
	// catalog are candidates. Duplicate slugs keep their first position but
	// take the last declared spelling.
	type candidate struct {
		def  registry.IndicatorDefinition
		name string
	}
	var candidates []candidate
	seen := make(map[string]int)
	for _, name := range source.Indicators {
		key := registry.Slugify(name)
		if i, dup := seen[key]; dup {
			candidates[i].name = name
			continue
		}
		if def, ok := t.catalog.ByKey(key); ok {
			seen[key] = len(candidates)
			candidates = append(candidates, candidate{def: def, name: name})
		}
	}

	var observations []CanonicalObservation
	for _, row := range dataset.Rows {
		period, ok := ResolvePeriod(row)
		if !ok {
			continue
		}
		keyMap := rowKeyMap(row)
		for _, cand := range candidates {
			column, ok := keyMap[cand.def.Key()]
			if !ok {
				continue
			}
			raw, _ := row.Get(column)
			value, ok := coerceFloat(raw)
			if !ok {
				continue
			}
			normalized := rescale(value, cand.def)
			if outOfRange(normalized, cand.def) {
				log.Printf("WARN: value %.4f for %s (%s) falls outside expected range %s",
					normalized, cand.name, period.Label, rangeString(cand.def))
			}
			observations = append(observations, CanonicalObservation{
				BankID:      bankID,
				IndicatorID: cand.def.ID,
				Period:      period.Label,
				PeriodStart: period.Start,
				PeriodEnd:   period.End,
				Value:       &normalized,
				Unit:        cand.def.Unit,
				RawValue:    raw,
				SourceID:    source.ID,
				RunID:       runID,
				Metadata: map[string]any{
					"column":     column,
					"source_run": prov.RunID,
					"checksum":   prov.Checksum,
				},
			})
		}
	}
	return observations
}

// rowKeyMap indexes a row's columns by slug. Later columns override earlier
// ones when their slugs collide.
func rowKeyMap(row ingest.Row) map[string]string {
	keyMap := make(map[string]string, len(row))
	for _, field := range row {
		keyMap[registry.Slugify(field.Name)] = field.Name
	}
	return keyMap
}

// coerceFloat parses a raw cell into a float. Percent signs and thousands
// separators are stripped; an empty or unparseable cell reports false rather
// than synthesizing zero.
func coerceFloat(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "%", ""), ",", ""))
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// rescale applies the magnitude heuristic: ratio values above 2 in absolute
// terms were almost certainly reported in percentage points.
func rescale(value float64, def registry.IndicatorDefinition) float64 {
	if def.Unit == registry.UnitRatio && math.Abs(value) > 2 {
		return value / 100.0
	}
	return value
}

func outOfRange(value float64, def registry.IndicatorDefinition) bool {
	if def.MinValue != nil && value < *def.MinValue {
		return true
	}
	if def.MaxValue != nil && value > *def.MaxValue {
		return true
	}
	return false
}

func rangeString(def registry.IndicatorDefinition) string {
	lo, hi := "-inf", "+inf"
	if def.MinValue != nil {
		lo = strconv.FormatFloat(*def.MinValue, 'f', 2, 64)
	}
	if def.MaxValue != nil {
		hi = strconv.FormatFloat(*def.MaxValue, 'f', 2, 64)
	}
	return lo + ".." + hi
}
