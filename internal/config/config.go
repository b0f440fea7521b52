// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the SalonPulse backend.
type Config struct {
	// Server
	Port     string
	LogLevel string

	// Auth
	JWTSecret       string
	TokenTTLMinutes int

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string

	// Query quota enforcement
	QuotaFailOpen bool // If true, allow queries when Redis is unreachable

	// LLM backend for NL-to-SQL. Any OpenAI-compatible endpoint works,
	// including a local Ollama instance.
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("SALONPULSE_PORT", "8000"),
		LogLevel: getEnv("SALONPULSE_LOG_LEVEL", "info"),

		JWTSecret: os.Getenv("SALONPULSE_JWT_SECRET"),

		DBHost:     getEnv("POSTGRES_HOST", "localhost"),
		DBName:     getEnv("POSTGRES_DB", "salonpulse"),
		DBUser:     getEnv("POSTGRES_USER", "salonpulse"),
		DBPassword: getEnv("POSTGRES_PASSWORD", ""),
		DBSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		QuotaFailOpen: getEnv("SALONPULSE_QUOTA_FAIL_OPEN", "true") == "true",

		LLMBaseURL: getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMModel:   getEnv("LLM_MODEL", "llama3.1"),
		LLMAPIKey:  getEnv("LLM_API_KEY", "ollama"),
	}

	dbPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}
	cfg.DBPort = dbPort

	redisPort, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.RedisPort = redisPort

	ttl, err := strconv.Atoi(getEnv("SALONPULSE_TOKEN_TTL_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid SALONPULSE_TOKEN_TTL_MINUTES: %w", err)
	}
	cfg.TokenTTLMinutes = ttl

	cfg.AllowedOrigins = splitAndTrim(getEnv("SALONPULSE_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"))

	return cfg, nil
}

// Validate checks fields that have no safe default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: SALONPULSE_JWT_SECRET is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// RedactedDSN returns the DSN with the password masked for safe logging.
func (c *Config) RedactedDSN() string {
	return fmt.Sprintf("postgres://%s:***@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// RedisAddr returns the Redis address in host:port format.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
