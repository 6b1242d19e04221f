package score

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlConfig = `
version: 2
defaults:
  scores:
    green: 90
  rating_thresholds:
    yellow: 40
composite:
  weights:
    capital: 0.6
    liquidity: 0.4
pillars:
  capital:
    weight: 0.5
    indicators:
      cet1_rwa:
        weight: 1.0
        thresholds:
          green: {min: 0.12}
          yellow: {min: 0.08}
  liquidity:
    weight: 0.5
    indicators:
      lcr:
        weight: 0.7
        thresholds:
          green: {min: 1.25}
          yellow: {min: 1.0}
      loans_deposits:
        weight: 0.3
        thresholds:
          green: {max: 0.9}
          yellow: {max: 1.1}
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(yamlConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Version != 2 {
		t.Errorf("version = %d, want 2", cfg.Version)
	}

	// Explicit defaults overlay the built-in ones.
	if cfg.Defaults.Scores["green"] != 90 {
		t.Errorf("green score = %v, want 90", cfg.Defaults.Scores["green"])
	}
	if cfg.Defaults.Scores["yellow"] != 60 || cfg.Defaults.Scores["missing"] != 0 {
		t.Errorf("untouched defaults lost: %v", cfg.Defaults.Scores)
	}
	if cfg.Defaults.RatingThresholds["yellow"] != 40 || cfg.Defaults.RatingThresholds["green"] != 80 {
		t.Errorf("rating thresholds = %v", cfg.Defaults.RatingThresholds)
	}

	if cfg.CompositeWeights["capital"] != 0.6 {
		t.Errorf("composite weights = %v", cfg.CompositeWeights)
	}

	// Declaration order must survive parsing.
	if len(cfg.Pillars) != 2 || cfg.Pillars[0].Name != "capital" || cfg.Pillars[1].Name != "liquidity" {
		t.Fatalf("pillar order = %+v", cfg.Pillars)
	}
	liquidity := cfg.Pillars[1]
	if len(liquidity.Indicators) != 2 || liquidity.Indicators[0].IndicatorID != "lcr" {
		t.Fatalf("indicator order = %+v", liquidity.Indicators)
	}

	band := cfg.Pillars[0].Indicators[0].Thresholds["green"]
	if band.Min == nil || *band.Min != 0.12 || band.Max != nil {
		t.Errorf("green band = %+v", band)
	}
}

func TestParseConfigNoPillars(t *testing.T) {
	_, err := ParseConfig([]byte("version: 1\n"))
	if err == nil || !strings.Contains(err.Error(), "no pillars defined") {
		t.Fatalf("err = %v, want no pillars defined", err)
	}
	_, err = ParseConfig([]byte("pillars: {}\n"))
	if err == nil {
		t.Fatal("expected error for empty pillars map")
	}
}

func TestParseHJSONConfig(t *testing.T) {
	payload := `
{
  // scoring thresholds, hjson flavor
  version: 1
  pillars: {
    capital: {
      weight: 1.0
      indicators: {
        cet1_rwa: {
          weight: 1.0
          thresholds: {
            green: {min: 0.12}
            yellow: {min: 0.08}
          }
        }
      }
    }
    liquidity: {
      weight: 1.0
      indicators: {
        lcr: {
          weight: 1.0
          thresholds: {
            green: {min: 1.25}
          }
        }
      }
    }
  }
}
`
	cfg, err := ParseHJSONConfig([]byte(payload))
	if err != nil {
		t.Fatalf("ParseHJSONConfig: %v", err)
	}
	// Declaration order must survive the HJSON path too.
	if len(cfg.Pillars) != 2 || cfg.Pillars[0].Name != "capital" || cfg.Pillars[1].Name != "liquidity" {
		t.Fatalf("pillars = %+v", cfg.Pillars)
	}
	band := cfg.Pillars[0].Indicators[0].Thresholds["yellow"]
	if band.Min == nil || *band.Min != 0.08 {
		t.Errorf("yellow band = %+v", band)
	}
}

func TestLoadConfigDispatch(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "thresholds.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(yamlPath); err != nil {
		t.Errorf("yaml load: %v", err)
	}

	hjsonPath := filepath.Join(dir, "thresholds.hjson")
	hjsonBody := "{\n  pillars: {\n    capital: {\n      weight: 1\n      indicators: {\n        cet1_rwa: {weight: 1}\n      }\n    }\n  }\n}\n"
	if err := os.WriteFile(hjsonPath, []byte(hjsonBody), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(hjsonPath); err != nil {
		t.Errorf("hjson load: %v", err)
	}

	if _, err := LoadConfig(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("expected error for missing configuration file")
	}
}

func TestThresholdBandMatches(t *testing.T) {
	min, max := 0.08, 0.5
	tests := []struct {
		name  string
		band  ThresholdBand
		value float64
		want  bool
	}{
		{"Within closed range", ThresholdBand{Min: &min, Max: &max}, 0.1, true},
		{"Below min", ThresholdBand{Min: &min, Max: &max}, 0.05, false},
		{"Above max", ThresholdBand{Min: &min, Max: &max}, 0.6, false},
		{"Boundary inclusive", ThresholdBand{Min: &min, Max: &max}, 0.08, true},
		{"Open-ended min", ThresholdBand{Min: &min}, 100, true},
		{"Open-ended max", ThresholdBand{Max: &max}, -100, true},
		{"Unbounded", ThresholdBand{}, 42, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.band.Matches(tc.value); got != tc.want {
				t.Errorf("Matches(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}
