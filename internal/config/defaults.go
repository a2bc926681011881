package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultsConfig holds engine defaults embedded into the binary.
// Callers may override any of these per request.
type DefaultsConfig struct {
	Thresholds ThresholdDefaults `yaml:"thresholds"`
	Extensions []string          `yaml:"extensions"`
}

type ThresholdDefaults struct {
	Hash       int     `yaml:"hash"`       // max Hamming distance (0-64)
	Similarity float64 `yaml:"similarity"` // fraction of hash algorithms that must agree
	Tolerance  float64 `yaml:"tolerance"`  // max embedding distance for same person
}

// LoadDefaults parses the embedded defaults file.
func LoadDefaults() DefaultsConfig {
	var d DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}

// SupportedExtension reports whether the file extension (with leading dot)
// belongs to a supported raster format. Matching is case-insensitive.
func (d DefaultsConfig) SupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range d.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
