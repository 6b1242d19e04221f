package score

import (
	"testing"

	"camels_monitor/pkg/core/registry"
)

func floatPtr(f float64) *float64 { return &f }

func bandMin(min float64) ThresholdBand { return ThresholdBand{Min: floatPtr(min)} }

func testConfig() *Config {
	return &Config{
		Version: 1,
		Defaults: Defaults{
			Scores:           map[string]float64{"green": 100, "yellow": 60, "red": 20, "missing": 0},
			RatingThresholds: map[string]float64{"green": 80, "yellow": 50},
		},
		CompositeWeights: map[string]float64{},
		Pillars: []PillarRule{
			{
				Name:   "capital",
				Weight: 1.0,
				Indicators: []IndicatorRule{
					{
						IndicatorID: "cet1_rwa",
						Weight:      1.0,
						Thresholds: map[string]ThresholdBand{
							"green":  bandMin(0.12),
							"yellow": bandMin(0.08),
							"red":    bandMin(0.0),
						},
					},
				},
			},
		},
	}
}

func snapshot(indicatorID, period string, value *float64) IndicatorSnapshot {
	return IndicatorSnapshot{
		BankID:      "banco_andino",
		IndicatorID: indicatorID,
		Pillar:      "capital",
		Period:      period,
		Value:       value,
		Unit:        "ratio",
		SourceID:    "sbs_banco_andino_q",
	}
}

var testBank = registry.BankProfile{BankID: "banco_andino", Name: "Banco Andino", Country: "PE", Regulator: "SBS"}

func TestScoreAllGreenScenario(t *testing.T) {
	engine := NewEngine(testConfig())
	snapshots := map[string]map[string]IndicatorSnapshot{
		"banco_andino": {"cet1_rwa": snapshot("cet1_rwa", "2024Q1", floatPtr(0.14))},
	}

	output := engine.ScoreAll([]registry.BankProfile{testBank}, snapshots)
	if len(output.Scores) != 1 {
		t.Fatalf("got %d composites, want 1", len(output.Scores))
	}
	composite := output.Scores[0]
	if composite.Rating != RatingGreen || composite.Score != 100 {
		t.Errorf("composite = %v/%v, want green/100", composite.Rating, composite.Score)
	}
	pillar := composite.Pillars[0]
	if pillar.Rating != RatingGreen {
		t.Errorf("pillar rating = %v, want green", pillar.Rating)
	}
	if pillar.Metadata["available_weight"] != 1.0 {
		t.Errorf("available_weight = %v, want 1.0", pillar.Metadata["available_weight"])
	}
	indicator := pillar.Indicators[0]
	if indicator.Rating != RatingGreen || indicator.Score != 100 {
		t.Errorf("indicator = %v/%v, want green/100", indicator.Rating, indicator.Score)
	}
	if output.BanksWithValues != 1 || output.IndicatorsWithValues != 1 || output.LatestPeriod != "2024Q1" {
		t.Errorf("output summary = %+v", output)
	}
}

func TestScoreAllZeroSnapshots(t *testing.T) {
	engine := NewEngine(testConfig())
	output := engine.ScoreAll([]registry.BankProfile{testBank}, nil)

	composite := output.Scores[0]
	if composite.Rating != RatingMissing || composite.Score != 0 {
		t.Errorf("composite = %v/%v, want missing/0", composite.Rating, composite.Score)
	}
	for _, pillar := range composite.Pillars {
		if pillar.Rating != RatingMissing {
			t.Errorf("pillar %s rating = %v, want missing", pillar.Pillar, pillar.Rating)
		}
	}
	missing := composite.Metadata["missing_pillars"].([]string)
	if len(missing) != 1 || missing[0] != "capital" {
		t.Errorf("missing_pillars = %v", missing)
	}
	if output.BanksWithValues != 0 {
		t.Errorf("BanksWithValues = %d, want 0", output.BanksWithValues)
	}
}

func TestWeightExclusionLaw(t *testing.T) {
	// Two indicators with equal weight; one missing. The pillar score must
	// equal the present indicator's score exactly: weight renormalizes to
	// 1.0, not 0.5.
	cfg := testConfig()
	cfg.Pillars[0].Indicators = []IndicatorRule{
		{IndicatorID: "cet1_rwa", Weight: 0.5, Thresholds: map[string]ThresholdBand{
			"green": bandMin(0.12), "yellow": bandMin(0.08),
		}},
		{IndicatorID: "tcr", Weight: 0.5, Thresholds: map[string]ThresholdBand{
			"green": bandMin(0.135), "yellow": bandMin(0.105),
		}},
	}
	engine := NewEngine(cfg)
	snapshots := map[string]map[string]IndicatorSnapshot{
		"banco_andino": {"cet1_rwa": snapshot("cet1_rwa", "2024Q1", floatPtr(0.10))},
	}

	output := engine.ScoreAll([]registry.BankProfile{testBank}, snapshots)
	pillar := output.Scores[0].Pillars[0]
	if pillar.Score != 60 {
		t.Errorf("pillar score = %v, want 60 (the yellow indicator's score)", pillar.Score)
	}
	if pillar.Metadata["available_weight"] != 0.5 || pillar.Metadata["expected_weight"] != 1.0 {
		t.Errorf("weights = %v/%v, want 0.5/1.0",
			pillar.Metadata["available_weight"], pillar.Metadata["expected_weight"])
	}
	missing := pillar.Metadata["missing_indicators"].([]string)
	if len(missing) != 1 || missing[0] != "tcr" {
		t.Errorf("missing_indicators = %v", missing)
	}
}

func TestMonotonicity(t *testing.T) {
	engine := NewEngine(testConfig())
	scoreFor := func(value float64) float64 {
		snapshots := map[string]map[string]IndicatorSnapshot{
			"banco_andino": {"cet1_rwa": snapshot("cet1_rwa", "2024Q1", floatPtr(value))},
		}
		return engine.ScoreAll([]registry.BankProfile{testBank}, snapshots).Scores[0].Score
	}

	red := scoreFor(0.05)
	yellow := scoreFor(0.10)
	green := scoreFor(0.14)
	if !(red < yellow && yellow < green) {
		t.Errorf("scores not monotone: red=%v yellow=%v green=%v", red, yellow, green)
	}
}

func TestNullValueRatesMissing(t *testing.T) {
	engine := NewEngine(testConfig())
	snapshots := map[string]map[string]IndicatorSnapshot{
		"banco_andino": {"cet1_rwa": snapshot("cet1_rwa", "2024Q1", nil)},
	}
	output := engine.ScoreAll([]registry.BankProfile{testBank}, snapshots)
	indicator := output.Scores[0].Pillars[0].Indicators[0]
	if indicator.Rating != RatingMissing {
		t.Errorf("rating = %v, want missing for null value", indicator.Rating)
	}
	if indicator.Metadata["reason"] != "missing_value" {
		t.Errorf("reason = %v", indicator.Metadata["reason"])
	}
}

func TestRedFallbackWithoutExplicitBand(t *testing.T) {
	cfg := testConfig()
	delete(cfg.Pillars[0].Indicators[0].Thresholds, "red")
	engine := NewEngine(cfg)
	snapshots := map[string]map[string]IndicatorSnapshot{
		"banco_andino": {"cet1_rwa": snapshot("cet1_rwa", "2024Q1", floatPtr(0.02))},
	}
	indicator := engine.ScoreAll([]registry.BankProfile{testBank}, snapshots).Scores[0].Pillars[0].Indicators[0]
	if indicator.Rating != RatingRed || indicator.Score != 20 {
		t.Errorf("indicator = %v/%v, want red/20", indicator.Rating, indicator.Score)
	}
	if indicator.Metadata["reason"] != "outside_thresholds" {
		t.Errorf("reason = %v", indicator.Metadata["reason"])
	}
}

func TestCompositeWeightOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Pillars = append(cfg.Pillars, PillarRule{
		Name:   "liquidity",
		Weight: 1.0,
		Indicators: []IndicatorRule{
			{IndicatorID: "lcr", Weight: 1.0, Thresholds: map[string]ThresholdBand{
				"green": bandMin(1.25), "yellow": bandMin(1.0),
			}},
		},
	})
	// Overrides shift almost all composite weight onto liquidity.
	cfg.CompositeWeights = map[string]float64{"capital": 0.1, "liquidity": 0.9}
	engine := NewEngine(cfg)

	snapshots := map[string]map[string]IndicatorSnapshot{
		"banco_andino": {
			"cet1_rwa": snapshot("cet1_rwa", "2024Q1", floatPtr(0.14)), // green, 100
			"lcr":      snapshot("lcr", "2024Q1", floatPtr(1.05)),      // yellow, 60
		},
	}
	composite := engine.ScoreAll([]registry.BankProfile{testBank}, snapshots).Scores[0]
	want := (100*0.1 + 60*0.9) / 1.0
	if composite.Score != want {
		t.Errorf("composite score = %v, want %v", composite.Score, want)
	}
	if composite.Rating != RatingYellow {
		t.Errorf("composite rating = %v, want yellow", composite.Rating)
	}
}

func TestLatestPeriodAcrossPillars(t *testing.T) {
	cfg := testConfig()
	cfg.Pillars[0].Indicators = append(cfg.Pillars[0].Indicators, IndicatorRule{
		IndicatorID: "tcr", Weight: 1.0,
		Thresholds: map[string]ThresholdBand{"green": bandMin(0.135)},
	})
	engine := NewEngine(cfg)
	snapshots := map[string]map[string]IndicatorSnapshot{
		"banco_andino": {
			"cet1_rwa": snapshot("cet1_rwa", "2023Q4", floatPtr(0.14)),
			"tcr":      snapshot("tcr", "2024Q2", floatPtr(0.15)),
		},
	}
	output := engine.ScoreAll([]registry.BankProfile{testBank}, snapshots)
	if output.LatestPeriod != "2024Q2" {
		t.Errorf("latest period = %q, want 2024Q2", output.LatestPeriod)
	}
	if output.Scores[0].Period != "2024Q2" {
		t.Errorf("composite period = %q, want 2024Q2", output.Scores[0].Period)
	}
}
