package export

import (
	"fmt"
	"strconv"

	"camels_monitor/pkg/core/score"
)

// PortfolioRow is one flattened composite score for tabular export.
type PortfolioRow struct {
	BankID string
	Score  float64
	Rating string
	Period string
}

// IndicatorRow is one flattened indicator score for tabular export.
type IndicatorRow struct {
	BankID      string
	Pillar      string
	IndicatorID string
	Value       *float64
	Score       float64
	Rating      string
	Weight      float64
	Period      string
	SourceID    string
}

// Flatten converts a score tree into the portfolio and indicator rows every
// export format shares. Row order follows the input order, which the engine
// keeps deterministic.
func Flatten(scores []score.CompositeScore) ([]PortfolioRow, []IndicatorRow) {
	var portfolio []PortfolioRow
	var indicators []IndicatorRow
	for _, composite := range scores {
		portfolio = append(portfolio, PortfolioRow{
			BankID: composite.BankID,
			Score:  composite.Score,
			Rating: composite.Rating,
			Period: composite.Period,
		})
		for _, pillar := range composite.Pillars {
			for _, indicator := range pillar.Indicators {
				indicators = append(indicators, IndicatorRow{
					BankID:      indicator.BankID,
					Pillar:      indicator.Pillar,
					IndicatorID: indicator.IndicatorID,
					Value:       indicator.Value,
					Score:       indicator.Score,
					Rating:      indicator.Rating,
					Weight:      indicator.Weight,
					Period:      indicator.Period,
					SourceID:    indicator.SourceID,
				})
			}
		}
	}
	return portfolio, indicators
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func runLabel(runID string) string {
	return fmt.Sprintf("scoring run %s", runID)
}
