package config

import (
	"os"
	"strconv"
	"strings"

	"nhanesci/internal"
	"nhanesci/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Analysis AnalysisConfig
	Output   OutputConfig
	LogLevel internal.LogLevel
}

// DataConfig holds the input location
type DataConfig struct {
	File     string // CSV or XLSX path, the only required input
	Sheet    string // Worksheet for xlsx input; first sheet when empty
	Codebook string // Optional YAML codebook layered over the built-in one
}

// AnalysisConfig holds defaults for the estimators
type AnalysisConfig struct {
	ConfidenceLevel float64
	GroupColumn     string
	Groups          []string // Order defines the sign of every difference: first - second
}

// OutputConfig holds report rendering settings
type OutputConfig struct {
	Format string
	Path   string // Empty means stdout
}

// Formats accepted by OUTPUT_FORMAT and --format
var Formats = []string{"text", "json", "markdown", "html"}

// Load reads configuration from environment variables and validates it.
// The file path may still be empty here; callers fill it from flags and call Validate.
func Load() (*Config, error) {
	levelStr := getEnvOrDefault("LOG_LEVEL", "INFO")
	level, ok := internal.ParseLogLevel(levelStr)
	if !ok {
		return nil, errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG, TRACE, got " + levelStr)
	}

	config := &Config{
		Data: DataConfig{
			File:     getEnvOrDefault("NHANES_FILE", ""),
			Sheet:    getEnvOrDefault("NHANES_SHEET", ""),
			Codebook: getEnvOrDefault("NHANES_CODEBOOK", ""),
		},
		Analysis: AnalysisConfig{
			ConfidenceLevel: getEnvFloatOrDefault("CONFIDENCE_LEVEL", 0.95),
			GroupColumn:     getEnvOrDefault("GROUP_COLUMN", "RIAGENDR"),
			Groups:          getEnvListOrDefault("GROUPS", []string{"Female", "Male"}),
		},
		Output: OutputConfig{
			Format: strings.ToLower(getEnvOrDefault("OUTPUT_FORMAT", "text")),
			Path:   getEnvOrDefault("OUTPUT_PATH", ""),
		},
		LogLevel: level,
	}

	if err := validateDefaults(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks the settings that must be present before a run
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Data.File) == "" {
		return errors.ConfigInvalid("data file is required (--file or NHANES_FILE)")
	}
	return validateDefaults(c)
}

func validateDefaults(config *Config) error {
	level := config.Analysis.ConfidenceLevel
	if !(level > 0 && level < 1) {
		return errors.ConfigInvalid("confidence level must be in (0, 1)")
	}
	if !IsFormat(config.Output.Format) {
		return errors.ConfigInvalid("output format must be one of " + strings.Join(Formats, ", "))
	}
	if len(config.Analysis.Groups) != 0 && len(config.Analysis.Groups) != 2 {
		return errors.ConfigInvalid("exactly two groups are compared")
	}
	return nil
}

// IsFormat reports whether f names a known report format
func IsFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return SplitList(value)
}

// SplitList splits a comma-separated flag value, dropping blanks
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
