package config

import (
	"os"
	"strconv"
	"time"

	"attritionboard/internal/errors"
)

// DefaultDataSource is the employee attrition training set the dashboard was built around.
const DefaultDataSource = "https://raw.githubusercontent.com/sithmipehara/EmployeeAttrition_Dashboard/refs/heads/main/train.csv"

// Config represents the complete application configuration
type Config struct {
	Data      DataConfig
	Fetch     FetchConfig
	Server    ServerConfig
	Profiling ProfilingConfig
}

// DataConfig holds dataset source settings
type DataConfig struct {
	Source      string
	ProfileFile string
}

// FetchConfig holds remote fetch and retry settings
type FetchConfig struct {
	Timeout          time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:      *loadDataConfig(),
		Fetch:     *loadFetchConfig(),
		Server:    *loadServerConfig(),
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		Source:      getEnvOrDefault("DATA_SOURCE", DefaultDataSource),
		ProfileFile: getEnvOrDefault("PROFILE_FILE", ""),
	}
}

func loadFetchConfig() *FetchConfig {
	return &FetchConfig{
		Timeout:          getEnvDurationOrDefault("HTTP_TIMEOUT", 30*time.Second),
		RetryMaxAttempts: getEnvIntOrDefault("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   getEnvDurationOrDefault("RETRY_BASE_DELAY", 500*time.Millisecond),
		RetryMaxDelay:    getEnvDurationOrDefault("RETRY_MAX_DELAY", 8*time.Second),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Data.Source == "" {
		return errors.ConfigInvalid("DATA_SOURCE is required")
	}
	if config.Fetch.RetryMaxAttempts < 1 {
		return errors.ConfigInvalid("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if config.Fetch.Timeout <= 0 {
		return errors.ConfigInvalid("HTTP_TIMEOUT must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
