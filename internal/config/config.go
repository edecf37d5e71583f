package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"randlab/internal"
	"randlab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Data     DataConfig
	Report   ReportConfig
	LogLevel string
	Metrics  bool
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	MaxBodyBytes int64
	CORSOrigins  []string
}

// Addr is the listen address for Port.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// AnalysisConfig holds analysis execution settings
type AnalysisConfig struct {
	Workers int
}

// DataConfig holds dummy data settings
type DataConfig struct {
	DummyDir      string
	DummyFilename string
	StreamDelay   time.Duration
}

// DummyPath is the full path of the dummy data file.
func (d DataConfig) DummyPath() string {
	return filepath.Join(d.DummyDir, d.DummyFilename)
}

// ReportConfig holds report rendering settings
type ReportConfig struct {
	Title string
}

const (
	defaultPort         = "8000"
	defaultMaxBodyBytes = 32 << 20
	defaultCORSOrigins  = "http://localhost:3000,http://localhost:5173"
	defaultReportTitle  = "LLM Random Number Analysis"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", defaultPort),
			MaxBodyBytes: int64(getEnvIntOrDefault("MAX_BODY_BYTES", defaultMaxBodyBytes)),
			CORSOrigins:  splitList(getEnvOrDefault("CORS_ORIGINS", defaultCORSOrigins)),
		},
		Analysis: AnalysisConfig{
			Workers: getEnvIntOrDefault("ANALYSIS_WORKERS", 1),
		},
		Data: DataConfig{
			DummyDir:      getEnvOrDefault("DUMMY_DATA_DIR", "./data"),
			DummyFilename: getEnvOrDefault("DUMMY_DATA_FILENAME", "dummy_data.json"),
			StreamDelay:   getEnvDurationOrDefault("STREAM_DELAY", 50*time.Millisecond),
		},
		Report: ReportConfig{
			Title: getEnvOrDefault("REPORT_TITLE", defaultReportTitle),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
		Metrics:  getEnvBoolOrDefault("METRICS_ENABLED", true),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Logger builds a logger at the configured level.
func (c *Config) Logger() *internal.Logger {
	level, _ := internal.ParseLogLevel(c.LogLevel)
	return internal.NewLogger(level)
}

func validateConfig(config *Config) error {
	if port, err := strconv.Atoi(config.Server.Port); err != nil || port <= 0 || port > 65535 {
		return errors.ConfigInvalid("PORT must be a number between 1 and 65535")
	}
	if config.Server.MaxBodyBytes <= 0 {
		return errors.ConfigInvalid("MAX_BODY_BYTES must be positive")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("ANALYSIS_WORKERS must be at least 1")
	}
	if config.Data.StreamDelay < 0 {
		return errors.ConfigInvalid("STREAM_DELAY must not be negative")
	}
	if _, ok := internal.ParseLogLevel(config.LogLevel); !ok {
		return errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG, TRACE")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Accepts Go durations ("250ms") or a bare number of seconds ("0.05").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}
