package config

import (
	_ "embed"
	"os"
	"strconv"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	FaceEngine FaceEngineConfig
	Engine     EngineConfig
	Defaults   DefaultsConfig
}

type FaceEngineConfig struct {
	URL string // defaults to http://localhost:8000
}

type EngineConfig struct {
	Workers int // parallel workers for per-image processing (default 8)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		FaceEngine: FaceEngineConfig{
			URL: os.Getenv("FACE_ENGINE_URL"),
		},
		Engine: EngineConfig{
			Workers: envInt("ENGINE_WORKERS", 8),
		},
		Defaults: LoadDefaults(),
	}
}
