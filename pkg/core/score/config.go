package score

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

// ThresholdBand is a named value range. An absent bound is unbounded.
type ThresholdBand struct {
	Name string
	Min  *float64
	Max  *float64
}

// Matches reports whether value lies inside [Min, Max].
func (b ThresholdBand) Matches(value float64) bool {
	if b.Min != nil && value < *b.Min {
		return false
	}
	if b.Max != nil && value > *b.Max {
		return false
	}
	return true
}

// IndicatorRule configures the scoring of one indicator inside a pillar.
type IndicatorRule struct {
	IndicatorID string
	Weight      float64
	Thresholds  map[string]ThresholdBand
}

// PillarRule configures one CAMELS pillar. Indicator order follows the
// configuration file so scoring output is deterministic.
type PillarRule struct {
	Name       string
	Weight     float64
	Indicators []IndicatorRule
}

// Defaults holds the numeric values the engine falls back to.
type Defaults struct {
	Scores           map[string]float64
	RatingThresholds map[string]float64
}

// Config is the parsed scoring configuration tree.
type Config struct {
	Version          int
	Defaults         Defaults
	CompositeWeights map[string]float64
	Pillars          []PillarRule
}

// Pillar returns the rule for a pillar name.
func (c *Config) Pillar(name string) (PillarRule, bool) {
	for _, p := range c.Pillars {
		if p.Name == name {
			return p, true
		}
	}
	return PillarRule{}, false
}

// LoadConfig reads the scoring configuration from a .yaml/.yml or .hjson
// file. A configuration without pillars is a fatal error: the scoring run
// must abort before any bank is touched.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scoring configuration not found at %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hjson":
		return ParseHJSONConfig(data)
	default:
		return ParseConfig(data)
	}
}

// ParseConfig parses YAML configuration content. yaml.MapSlice keeps the
// pillar and indicator declaration order intact.
func ParseConfig(data []byte) (*Config, error) {
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scoring configuration: %w", err)
	}
	return buildConfig(doc)
}

// ParseHJSONConfig parses an HJSON variant of the configuration. Decoding
// into hjson.OrderedMap keeps key order, so the result converts losslessly
// onto the same builder the YAML path uses.
func ParseHJSONConfig(data []byte) (*Config, error) {
	var doc hjson.OrderedMap
	if err := hjson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scoring configuration: %w", err)
	}
	ms, ok := hjsonToMapSlice(&doc).(yaml.MapSlice)
	if !ok {
		return nil, fmt.Errorf("scoring configuration root must be an object")
	}
	return buildConfig(ms)
}

func buildConfig(doc yaml.MapSlice) (*Config, error) {
	cfg := &Config{
		Version: 1,
		Defaults: Defaults{
			Scores:           map[string]float64{"green": 100.0, "yellow": 60.0, "red": 20.0, "missing": 0.0},
			RatingThresholds: map[string]float64{"green": 80.0, "yellow": 50.0},
		},
		CompositeWeights: map[string]float64{},
	}

	if v, ok := lookup(doc, "version"); ok {
		if n, ok := toFloat(v); ok {
			cfg.Version = int(n)
		}
	}
	if defaults, ok := lookupMap(doc, "defaults"); ok {
		mergeFloats(cfg.Defaults.Scores, defaults, "scores")
		mergeFloats(cfg.Defaults.RatingThresholds, defaults, "rating_thresholds")
	}
	if composite, ok := lookupMap(doc, "composite"); ok {
		mergeFloats(cfg.CompositeWeights, composite, "weights")
	}

	pillars, _ := lookupMap(doc, "pillars")
	for _, item := range pillars {
		name, ok := item.Key.(string)
		if !ok {
			continue
		}
		payload, ok := item.Value.(yaml.MapSlice)
		if !ok {
			continue
		}
		cfg.Pillars = append(cfg.Pillars, buildPillar(name, payload))
	}
	if len(cfg.Pillars) == 0 {
		return nil, fmt.Errorf("no pillars defined in scoring configuration")
	}
	return cfg, nil
}

func buildPillar(name string, payload yaml.MapSlice) PillarRule {
	rule := PillarRule{Name: name}
	if v, ok := lookup(payload, "weight"); ok {
		rule.Weight, _ = toFloat(v)
	}
	indicators, _ := lookupMap(payload, "indicators")
	for _, item := range indicators {
		id, ok := item.Key.(string)
		if !ok {
			continue
		}
		body, ok := item.Value.(yaml.MapSlice)
		if !ok {
			continue
		}
		rule.Indicators = append(rule.Indicators, buildIndicator(id, body))
	}
	return rule
}

func buildIndicator(id string, payload yaml.MapSlice) IndicatorRule {
	rule := IndicatorRule{IndicatorID: id, Thresholds: map[string]ThresholdBand{}}
	if v, ok := lookup(payload, "weight"); ok {
		rule.Weight, _ = toFloat(v)
	}
	thresholds, _ := lookupMap(payload, "thresholds")
	for _, item := range thresholds {
		bandName, ok := item.Key.(string)
		if !ok {
			continue
		}
		body, ok := item.Value.(yaml.MapSlice)
		if !ok {
			continue
		}
		band := ThresholdBand{Name: bandName}
		if v, ok := lookup(body, "min"); ok {
			if f, ok := toFloat(v); ok {
				band.Min = &f
			}
		}
		if v, ok := lookup(body, "max"); ok {
			if f, ok := toFloat(v); ok {
				band.Max = &f
			}
		}
		rule.Thresholds[bandName] = band
	}
	return rule
}

func lookup(ms yaml.MapSlice, key string) (any, bool) {
	for _, item := range ms {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value, true
		}
	}
	return nil, false
}

func lookupMap(ms yaml.MapSlice, key string) (yaml.MapSlice, bool) {
	v, ok := lookup(ms, key)
	if !ok {
		return nil, false
	}
	child, ok := v.(yaml.MapSlice)
	return child, ok
}

// mergeFloats overlays the numeric entries of parent[key] onto dst,
// ignoring values that do not coerce to a float.
func mergeFloats(dst map[string]float64, parent yaml.MapSlice, key string) {
	child, ok := lookupMap(parent, key)
	if !ok {
		return
	}
	for _, item := range child {
		name, ok := item.Key.(string)
		if !ok {
			continue
		}
		if f, ok := toFloat(item.Value); ok {
			dst[name] = f
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// hjsonToMapSlice converts hjson's ordered maps into yaml.MapSlice values so
// both formats share one builder.
func hjsonToMapSlice(v any) any {
	switch value := v.(type) {
	case *hjson.OrderedMap:
		ms := make(yaml.MapSlice, 0, len(value.Keys))
		for _, key := range value.Keys {
			ms = append(ms, yaml.MapItem{Key: key, Value: hjsonToMapSlice(value.Map[key])})
		}
		return ms
	case []any:
		out := make([]any, 0, len(value))
		for _, item := range value {
			out = append(out, hjsonToMapSlice(item))
		}
		return out
	default:
		return v
	}
}
