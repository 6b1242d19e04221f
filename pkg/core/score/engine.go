package score

import (
	"camels_monitor/pkg/core/registry"
)

// Engine applies the configured thresholds to indicator snapshots and
// aggregates them into pillar and composite ratings. It is a pure function
// of its inputs: rerunning with identical data and configuration yields
// identical output.
type Engine struct {
	config           *Config
	scoreMap         map[string]float64
	ratingThresholds map[string]float64
}

// NewEngine wraps a loaded configuration.
func NewEngine(config *Config) *Engine {
	return &Engine{
		config:           config,
		scoreMap:         config.Defaults.Scores,
		ratingThresholds: config.Defaults.RatingThresholds,
	}
}

// ScoreAll scores every bank against the snapshot map. Banks without any
// data are still scored; they come back rated missing rather than being
// dropped.
func (e *Engine) ScoreAll(banks []registry.BankProfile, snapshots map[string]map[string]IndicatorSnapshot) Output {
	output := Output{}
	for _, bank := range banks {
		composite, valueCount, indicatorValues := e.scoreBank(bank, snapshots[bank.BankID])
		if valueCount > 0 {
			output.BanksWithValues++
		}
		output.IndicatorsWithValues += indicatorValues
		if composite.Period != "" && composite.Period > output.LatestPeriod {
			output.LatestPeriod = composite.Period
		}
		output.Scores = append(output.Scores, composite)
	}
	return output
}

func (e *Engine) scoreBank(bank registry.BankProfile, snapshots map[string]IndicatorSnapshot) (CompositeScore, int, int) {
	var (
		pillarScores     []PillarScore
		pillarValueCount int
		indicatorValues  int
		period           string
		compositeWeight  float64
		compositeTotal   float64
		expectedWeight   float64
		missingPillars   []string
	)

	for _, pillarRule := range e.config.Pillars {
		pillarScore, valueCount, indicatorCount := e.scorePillar(bank.BankID, pillarRule, snapshots)
		pillarScores = append(pillarScores, pillarScore)
		pillarValueCount += valueCount
		indicatorValues += indicatorCount
		if pillarScore.Period > period {
			period = pillarScore.Period
		}

		pillarWeight := e.compositeWeight(pillarRule)
		expectedWeight += pillarWeight
		if pillarScore.Rating != RatingMissing {
			compositeWeight += pillarWeight
			compositeTotal += pillarScore.Score * pillarWeight
		} else {
			missingPillars = append(missingPillars, pillarRule.Name)
		}
	}

	compositeScore := 0.0
	compositeRating := RatingMissing
	if compositeWeight > 0 {
		compositeScore = compositeTotal / compositeWeight
		compositeRating = e.ratingForScore(compositeScore)
	}

	composite := CompositeScore{
		BankID:  bank.BankID,
		Score:   compositeScore,
		Rating:  compositeRating,
		Period:  period,
		Pillars: pillarScores,
		Metadata: map[string]any{
			"expected_weight":  expectedWeight,
			"available_weight": compositeWeight,
			"missing_pillars":  missingList(missingPillars),
		},
	}
	return composite, pillarValueCount, indicatorValues
}

// compositeWeight resolves a pillar's weight in the composite: the explicit
// override table wins over the pillar's own declared weight.
func (e *Engine) compositeWeight(rule PillarRule) float64 {
	if weight, ok := e.config.CompositeWeights[rule.Name]; ok {
		return weight
	}
	return rule.Weight
}

func (e *Engine) scorePillar(bankID string, pillarRule PillarRule, snapshots map[string]IndicatorSnapshot) (PillarScore, int, int) {
	var (
		indicators        []IndicatorScore
		period            string
		availableWeight   float64
		expectedWeight    float64
		weightedTotal     float64
		valuesPresent     int
		missingIndicators []string
	)

	for _, indicatorRule := range pillarRule.Indicators {
		expectedWeight += indicatorRule.Weight
		snapshot, hasSnapshot := snapshots[indicatorRule.IndicatorID]
		indicatorScore := e.evaluateIndicator(bankID, pillarRule.Name, indicatorRule, snapshot, hasSnapshot)
		indicators = append(indicators, indicatorScore)
		if indicatorScore.Period > period {
			period = indicatorScore.Period
		}
		if indicatorScore.Rating != RatingMissing {
			availableWeight += indicatorRule.Weight
			weightedTotal += indicatorScore.Score * indicatorRule.Weight
			valuesPresent++
		} else {
			missingIndicators = append(missingIndicators, indicatorRule.IndicatorID)
		}
	}

	pillarScore := 0.0
	pillarRating := RatingMissing
	if availableWeight > 0 {
		pillarScore = weightedTotal / availableWeight
		pillarRating = e.ratingForScore(pillarScore)
	}

	result := PillarScore{
		BankID:     bankID,
		Pillar:     pillarRule.Name,
		Score:      pillarScore,
		Rating:     pillarRating,
		Weight:     pillarRule.Weight,
		Period:     period,
		Indicators: indicators,
		Metadata: map[string]any{
			"expected_weight":    expectedWeight,
			"available_weight":   availableWeight,
			"missing_indicators": missingList(missingIndicators),
		},
	}
	return result, valuesPresent, valuesPresent
}

func (e *Engine) evaluateIndicator(bankID, pillarName string, rule IndicatorRule, snapshot IndicatorSnapshot, hasSnapshot bool) IndicatorScore {
	metadata := map[string]any{
		"thresholds": thresholdMetadata(rule.Thresholds),
	}

	result := IndicatorScore{
		BankID:      bankID,
		IndicatorID: rule.IndicatorID,
		Pillar:      pillarName,
		Weight:      rule.Weight,
		Metadata:    metadata,
	}
	if hasSnapshot {
		result.Period = snapshot.Period
		result.Value = snapshot.Value
		result.Unit = snapshot.Unit
		result.SourceID = snapshot.SourceID
		result.NormalizationRunID = snapshot.NormalizationRunID
		if len(snapshot.Metadata) > 0 {
			metadata["source_metadata"] = snapshot.Metadata
		}
	}

	if !hasSnapshot || snapshot.Value == nil {
		metadata["reason"] = "missing_value"
		result.Score = e.scoreMap[RatingMissing]
		result.Rating = RatingMissing
		return result
	}

	rating := determineRating(*snapshot.Value, rule)
	if rating == RatingRed {
		metadata["reason"] = "outside_thresholds"
	}
	result.Score = e.scoreMap[rating]
	result.Rating = rating
	return result
}

// determineRating tests the bands in fixed priority order. Red is the
// fallback and needs no explicit band.
func determineRating(value float64, rule IndicatorRule) string {
	for _, candidate := range []string{RatingGreen, RatingYellow} {
		if band, ok := rule.Thresholds[candidate]; ok && band.Matches(value) {
			return candidate
		}
	}
	return RatingRed
}

// ratingForScore classifies an aggregated 0-100 score against the global
// cutoffs. This intentionally differs from indicator-level rating, which
// uses per-indicator bands.
func (e *Engine) ratingForScore(value float64) string {
	green, ok := e.ratingThresholds[RatingGreen]
	if !ok {
		green = 80.0
	}
	yellow, ok := e.ratingThresholds[RatingYellow]
	if !ok {
		yellow = 50.0
	}
	switch {
	case value >= green:
		return RatingGreen
	case value >= yellow:
		return RatingYellow
	default:
		return RatingRed
	}
}

func thresholdMetadata(thresholds map[string]ThresholdBand) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(thresholds))
	for name, band := range thresholds {
		entry := map[string]float64{}
		if band.Min != nil {
			entry["min"] = *band.Min
		}
		if band.Max != nil {
			entry["max"] = *band.Max
		}
		out[name] = entry
	}
	return out
}

// missingList keeps metadata JSON stable: an empty list rather than null.
func missingList(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
