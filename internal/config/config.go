package config

import (
	"os"
	"strconv"
	"time"

	"schoolresults/internal/errors"
)

// Retention policies for uploaded results. "replace" evicts every stored
// session that differs from the one inferred from an upload; "keep" leaves
// prior sessions in place.
const (
	RetentionReplace = "replace"
	RetentionKeep    = "keep"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	LLM      LLMConfig
	Server   ServerConfig
	Results  ResultsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// LLMConfig holds settings for the narrative-report service
type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// ResultsConfig holds result-store behavior settings
type ResultsConfig struct {
	Retention string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load LLM configuration")
	}

	resultsConfig, err := loadResultsConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load results configuration")
	}

	return &Config{
		Database: *dbConfig,
		LLM:      *llmConfig,
		Server:   *loadServerConfig(),
		Results:  *resultsConfig,
	}, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	return &DatabaseConfig{URL: url}, nil
}

func loadLLMConfig() (*LLMConfig, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, errors.ConfigInvalid("GROQ_API_KEY is required")
	}

	return &LLMConfig{
		APIKey:      apiKey,
		Model:       getEnvOrDefault("LLM_MODEL", "llama-3.3-70b-versatile"),
		BaseURL:     getEnvOrDefault("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		MaxTokens:   getEnvIntOrDefault("MAX_TOKENS", 1200),
		Temperature: getEnvFloatOrDefault("TEMPERATURE", 0.6),
		Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadResultsConfig() (*ResultsConfig, error) {
	retention := getEnvOrDefault("RESULT_RETENTION", RetentionReplace)
	if retention != RetentionReplace && retention != RetentionKeep {
		return nil, errors.ConfigInvalid("RESULT_RETENTION must be \"replace\" or \"keep\"")
	}
	return &ResultsConfig{Retention: retention}, nil
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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
