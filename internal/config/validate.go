package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// LLM credentials: every capability depends on them
	if c.LLM.APIKey == "" {
		errs = append(errs, "LLM_API_KEY is required")
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Engine budgets: every deadline must be positive, and the overall
	// deadline must leave room for the fallback retry
	if c.Engine.CapabilityTimeout <= 0 {
		errs = append(errs, "ENGINE_CAPABILITY_TIMEOUT must be positive")
	}
	if c.Engine.OverallDeadline <= 0 {
		errs = append(errs, "ENGINE_OVERALL_DEADLINE must be positive")
	}
	if c.Engine.FallbackDeadline <= 0 {
		errs = append(errs, "ENGINE_FALLBACK_DEADLINE must be positive")
	}
	if c.Engine.FallbackDeadline >= c.Engine.OverallDeadline {
		errs = append(errs, "ENGINE_FALLBACK_DEADLINE must be shorter than ENGINE_OVERALL_DEADLINE")
	}
	if c.Engine.MaxFanout < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_MAX_FANOUT must be at least 1, got %d", c.Engine.MaxFanout))
	}

	// Chat API key: warn only
	if c.API.Key == "" {
		slog.Warn("API_KEY is empty — chat endpoints have no authentication")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
