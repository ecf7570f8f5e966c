package predictor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// featureOrderFile accepts a bare list or a document with a features key.
// JSON is valid YAML, so both encodings load.
type featureOrderFile struct {
	Features []string `yaml:"features"`
}

// ParseFeatureOrder decodes the classifier's expected feature order
func ParseFeatureOrder(data []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc featureOrderFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feature order: %w", err)
	}
	return doc.Features, nil
}

// LoadFeatureOrder reads the feature order file at path
func LoadFeatureOrder(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature order: %w", err)
	}
	return ParseFeatureOrder(data)
}

// OrderedFeatures keeps the names in order that have a slider setting,
// dropping duplicates
func OrderedFeatures(order []string, settings Settings) []string {
	seen := make(map[string]bool, len(order))
	out := make([]string, 0, len(order))
	for _, name := range order {
		if _, ok := settings[name]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
