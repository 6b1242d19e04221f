package registry

import "strings"

// Unit values accepted for indicator definitions.
const (
	UnitRatio = "ratio"
	UnitCount = "count"
)

// IndicatorDefinition describes one canonical CAMELS indicator.
// MinValue/MaxValue are soft bounds: the transformer warns when a value falls
// outside them but still emits the observation.
type IndicatorDefinition struct {
	ID          string
	Name        string
	Pillar      string
	Unit        string
	Description string
	MinValue    *float64
	MaxValue    *float64
}

// Key returns the slug the definition is matched under.
func (d IndicatorDefinition) Key() string {
	return Slugify(d.Name)
}

// Slugify lowercases a name and strips every non-alphanumeric rune so that
// "CET1/RWA", "cet1 rwa" and "Cet1-Rwa" all collapse to the same key.
func Slugify(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IndicatorCatalog indexes definitions by id and by name slug.
type IndicatorCatalog struct {
	byID  map[string]IndicatorDefinition
	byKey map[string]IndicatorDefinition
	order []string
}

// NewIndicatorCatalog builds the lookup maps for the given definitions.
func NewIndicatorCatalog(defs []IndicatorDefinition) *IndicatorCatalog {
	c := &IndicatorCatalog{
		byID:  make(map[string]IndicatorDefinition, len(defs)),
		byKey: make(map[string]IndicatorDefinition, len(defs)),
	}
	for _, def := range defs {
		c.byID[def.ID] = def
		c.byKey[def.Key()] = def
		c.order = append(c.order, def.ID)
	}
	return c
}

// ByID returns the definition for an indicator id.
func (c *IndicatorCatalog) ByID(id string) (IndicatorDefinition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// ByName resolves a display name (slug-insensitive) to a definition.
func (c *IndicatorCatalog) ByName(name string) (IndicatorDefinition, bool) {
	def, ok := c.byKey[Slugify(name)]
	return def, ok
}

// ByKey resolves an already-slugified name.
func (c *IndicatorCatalog) ByKey(key string) (IndicatorDefinition, bool) {
	def, ok := c.byKey[key]
	return def, ok
}

// Definitions returns the definitions in registration order.
func (c *IndicatorCatalog) Definitions() []IndicatorDefinition {
	defs := make([]IndicatorDefinition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.byID[id])
	}
	return defs
}

func (c *IndicatorCatalog) Len() int { return len(c.order) }

func bound(v float64) *float64 { return &v }

// DefaultIndicators returns the static CAMELS indicator catalog.
func DefaultIndicators() []IndicatorDefinition {
	return []IndicatorDefinition{
		{ID: "cet1_rwa", Name: "CET1/RWA", Pillar: "capital", Unit: UnitRatio,
			Description: "Common equity tier 1 over risk-weighted assets.",
			MinValue:    bound(0.0), MaxValue: bound(1.0)},
		{ID: "tcr", Name: "TCR", Pillar: "capital", Unit: UnitRatio,
			Description: "Total capital ratio as reported by the bank.",
			MinValue:    bound(0.0), MaxValue: bound(1.5)},
		{ID: "leverage", Name: "Leverage", Pillar: "capital", Unit: UnitRatio,
			Description: "Regulatory leverage ratio.",
			MinValue:    bound(0.0), MaxValue: bound(0.25)},
		{ID: "npl", Name: "NPL", Pillar: "assets", Unit: UnitRatio,
			Description: "Non-performing loans over total portfolio.",
			MinValue:    bound(0.0), MaxValue: bound(0.5)},
		{ID: "npl_coverage", Name: "Cobertura NPL", Pillar: "assets", Unit: UnitRatio,
			Description: "Provision coverage of the past-due portfolio.",
			MinValue:    bound(0.0), MaxValue: bound(5.0)},
		{ID: "cost_of_risk", Name: "Cost of Risk", Pillar: "assets", Unit: UnitRatio,
			Description: "Cost of risk against the average portfolio.",
			MinValue:    bound(-0.5), MaxValue: bound(0.5)},
		{ID: "efficiency_ratio", Name: "Efficiency ratio", Pillar: "management", Unit: UnitRatio,
			Description: "Operating expenses over operating income.",
			MinValue:    bound(0.0), MaxValue: bound(2.0)},
		{ID: "regulatory_events", Name: "Eventos regulatorios", Pillar: "management", Unit: UnitCount,
			Description: "Number of materialized regulatory events.",
			MinValue:    bound(0.0), MaxValue: bound(50.0)},
		{ID: "roe", Name: "ROE", Pillar: "earnings", Unit: UnitRatio,
			Description: "Annualized return on equity.",
			MinValue:    bound(-1.0), MaxValue: bound(1.0)},
		{ID: "roa", Name: "ROA", Pillar: "earnings", Unit: UnitRatio,
			Description: "Annualized return on assets.",
			MinValue:    bound(-0.5), MaxValue: bound(0.5)},
		{ID: "nim", Name: "NIM", Pillar: "earnings", Unit: UnitRatio,
			Description: "Average quarterly net interest margin.",
			MinValue:    bound(-0.2), MaxValue: bound(0.5)},
		{ID: "lcr", Name: "LCR", Pillar: "liquidity", Unit: UnitRatio,
			Description: "Liquidity coverage ratio.",
			MinValue:    bound(0.0), MaxValue: bound(3.0)},
		{ID: "nsfr", Name: "NSFR", Pillar: "liquidity", Unit: UnitRatio,
			Description: "Net stable funding ratio.",
			MinValue:    bound(0.0), MaxValue: bound(3.0)},
		{ID: "loans_deposits", Name: "Loans/Deposits", Pillar: "liquidity", Unit: UnitRatio,
			Description: "Loan book over customer deposits.",
			MinValue:    bound(0.0), MaxValue: bound(2.0)},
		{ID: "fx_open_position", Name: "FX open position", Pillar: "sensitivity", Unit: UnitRatio,
			Description: "Open foreign-currency position over equity.",
			MinValue:    bound(-0.5), MaxValue: bound(0.5)},
		{ID: "duration_gap", Name: "Duration gap proxy", Pillar: "sensitivity", Unit: UnitRatio,
			Description: "Asset-liability duration difference.",
			MinValue:    bound(-5.0), MaxValue: bound(5.0)},
	}
}
