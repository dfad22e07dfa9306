package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileCategory struct {
	Materials      []string `yaml:"materials"`
	ProcessingTime int      `yaml:"processing_time"`
	RecoveryRate   float64  `yaml:"recovery_rate"`
	HazardLevel    string   `yaml:"hazard_level"`
}

type fileCatalog struct {
	Categories map[string]fileCategory `yaml:"categories"`
}

// LoadFile reads a YAML catalog override. Unknown keys are rejected so typos
// surface at startup instead of silently producing defaults.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %q: %w", path, err)
	}
	defer f.Close()

	var raw fileCatalog
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}

	specs := make([]CategorySpec, 0, len(raw.Categories))
	for id, entry := range raw.Categories {
		specs = append(specs, CategorySpec{
			ID:              id,
			Materials:       entry.Materials,
			DurationSeconds: entry.ProcessingTime,
			RecoveryRate:    entry.RecoveryRate,
			Hazard:          HazardTier(entry.HazardLevel),
		})
	}
	c, err := New(specs)
	if err != nil {
		return nil, fmt.Errorf("catalog %q: %w", path, err)
	}
	return c, nil
}

// Load returns the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
