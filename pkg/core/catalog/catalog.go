package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// SourceDefinition is one catalog entry for a regulator disclosure.
type SourceDefinition struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Country     string   `yaml:"country"`
	Regulator   string   `yaml:"regulator"`
	Bank        string   `yaml:"bank"`
	URL         string   `yaml:"url"`
	Format      string   `yaml:"format"`
	Frequency   string   `yaml:"frequency"`
	Indicators  []string `yaml:"indicators"`
	Description string   `yaml:"description"`
	Encoding    string   `yaml:"encoding"`
	Worksheet   string   `yaml:"worksheet"`
}

// Slug returns a filesystem-safe identifier for the source.
func (s SourceDefinition) Slug() string {
	return strings.ReplaceAll(s.ID, " ", "_")
}

type catalogFile struct {
	Sources []SourceDefinition `yaml:"sources"`
}

// Load reads and validates the YAML source catalog at path.
func Load(path string) ([]SourceDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source catalog not found at %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw YAML catalog content.
func Parse(data []byte) ([]SourceDefinition, error) {
	var payload catalogFile
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(payload.Sources) == 0 {
		return nil, fmt.Errorf("catalog does not define any sources under 'sources'")
	}
	for i := range payload.Sources {
		if err := validate(&payload.Sources[i]); err != nil {
			return nil, err
		}
	}
	return payload.Sources, nil
}

func validate(s *SourceDefinition) error {
	var missing []string
	for key, value := range map[string]string{
		"id":        s.ID,
		"name":      s.Name,
		"country":   s.Country,
		"regulator": s.Regulator,
		"bank":      s.Bank,
		"url":       s.URL,
		"format":    s.Format,
		"frequency": s.Frequency,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required keys %v for source definition %q", missing, s.ID)
	}
	s.Format = strings.ToLower(s.Format)
	return nil
}
