package config

import (
	"fmt"
	"time"
)

// Vector index backends.
const (
	VectorBackendPgvector = "pgvector"
	VectorBackendMemory   = "memory"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Vector.validate(); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if err := c.Chat.validate(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm: max_tokens must be > 0 (got %d)", c.LLM.MaxTokens)
	}
	if c.RateLimit.ChatPerMinute <= 0 {
		return fmt.Errorf("rate_limit: chat_per_minute must be > 0 (got %d)", c.RateLimit.ChatPerMinute)
	}

	return nil
}

func (v VectorConfig) validate() error {
	switch v.Backend {
	case VectorBackendPgvector, VectorBackendMemory:
	default:
		return fmt.Errorf("backend must be %q or %q (got %q)", VectorBackendPgvector, VectorBackendMemory, v.Backend)
	}
	if v.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be > 0 (got %d)", v.Dimensions)
	}
	return nil
}

func (c ChatConfig) validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be >= 1 (got %d)", c.MaxSteps)
	}
	if c.ClassifierWindow < 1 {
		return fmt.Errorf("classifier_window must be >= 1 (got %d)", c.ClassifierWindow)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be >= 1 (got %d)", c.TopK)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("default_timezone: %w", err)
	}
	return nil
}
