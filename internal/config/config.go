package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/simonsteiger/strix/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings.
// An empty URL disables persistence; runs then stay in memory only.
type DatabaseConfig struct {
	URL string
}

// AnalysisConfig holds the default simulation parameters
type AnalysisConfig struct {
	DefaultSeed      int64
	DefaultDrawCount int
	QuantileLevels   []float64
}

// Load builds configuration from environment variables with sane defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envOr("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Analysis: AnalysisConfig{
			DefaultSeed:      4711,
			DefaultDrawCount: 10000,
			QuantileLevels:   []float64{0.99, 0.95, 0.90, 0.80, 0.70, 0.60, 0.50},
		},
	}

	if v := os.Getenv("DEFAULT_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("DEFAULT_SEED must be an integer: " + v)
		}
		cfg.Analysis.DefaultSeed = seed
	}

	if v := os.Getenv("DEFAULT_DRAW_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.ConfigInvalid("DEFAULT_DRAW_COUNT must be a positive integer: " + v)
		}
		cfg.Analysis.DefaultDrawCount = n
	}

	if v := os.Getenv("QUANTILE_LEVELS"); v != "" {
		levels, err := parseLevels(v)
		if err != nil {
			return nil, err
		}
		cfg.Analysis.QuantileLevels = levels
	}

	return cfg, nil
}

// parseLevels parses a comma-separated list of central interval masses
func parseLevels(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	levels := make([]float64, 0, len(parts))
	for _, part := range parts {
		level, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || level <= 0 || level >= 1 {
			return nil, errors.ConfigInvalid("QUANTILE_LEVELS entries must be in (0, 1): " + part)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
