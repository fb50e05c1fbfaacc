package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL   string
	SessionTTL time.Duration

	// Narrator settings. Provider "mock" runs without an API key and is
	// the default for development.
	NarratorProvider string
	AnthropicAPIKey  string
	ModelName        string
	NarrativeTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:         getEnv("REDIS_URL", "localhost:6379"),
		SessionTTL:       parseDuration(getEnv("SESSION_TTL", "1h")),
		NarratorProvider: strings.ToLower(getEnv("NARRATOR_PROVIDER", "mock")),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		ModelName:        getEnv("MODEL_NAME", "claude-sonnet-4-20250514"),
		NarrativeTimeout: parseDuration(getEnv("NARRATIVE_TIMEOUT", "15s")),
	}

	if cfg.NarratorProvider == "anthropic" && cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when NARRATOR_PROVIDER is anthropic")
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
