package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string // "jsonfile", "sqlite", or "postgres"
	Path    string // database file path for jsonfile/sqlite backends
	DSN     string // postgres connection string
}

// LLMConfig holds model-completion configuration
type LLMConfig struct {
	Model          string
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64
	BreakerEnabled bool
}

// PipelineConfig holds orchestration behavior flags.
type PipelineConfig struct {
	Evaluate      bool   // run the quality evaluator after persistence
	EvaluateQuery string // relevancy query for model-derived confidence (optional)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "jsonfile"),
			Path:    getEnv("STORE_PATH", "./documents_db.json"),
			DSN:     getEnv("DB_URL", ""),
		},
		LLM: LLMConfig{
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", ""),
			Timeout:        getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			RateLimitRPS:   getEnvAsFloat64("OPENAI_RATE_LIMIT_RPS", 2),
			BreakerEnabled: getEnvAsBool("OPENAI_BREAKER_ENABLED", true),
		},
		Pipeline: PipelineConfig{
			Evaluate:      getEnvAsBool("PIPELINE_EVALUATE", true),
			EvaluateQuery: getEnv("PIPELINE_EVALUATE_QUERY", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	switch c.Store.Backend {
	case "jsonfile", "sqlite":
		if c.Store.Path == "" {
			return NewAppError("CONFIG_ERROR", "STORE_PATH is required for "+c.Store.Backend+" backend", ErrInvalidInput)
		}
	case "postgres":
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for postgres backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown STORE_BACKEND: "+c.Store.Backend, ErrInvalidInput)
	}
	return nil
}
