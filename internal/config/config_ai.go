package config

import "time"

// Operation names a model-backed operation with its own AI settings.
type Operation string

const (
	OperationSummary    Operation = "summary"
	OperationSkills     Operation = "skills"
	OperationExperience Operation = "experience"
	OperationKeywords   Operation = "keywords"
)

// Operations lists every configurable operation.
var Operations = []Operation{OperationSummary, OperationSkills, OperationExperience, OperationKeywords}

// AIConfig holds AI service configuration
type AIConfig struct {
	// Global/fallback configuration
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`

	// Operation-specific configurations
	Summary    OperationAIConfig `mapstructure:"summary"`
	Skills     OperationAIConfig `mapstructure:"skills"`
	Experience OperationAIConfig `mapstructure:"experience"`
	Keywords   OperationAIConfig `mapstructure:"keywords"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for one operation. Nil pointers
// and empty strings fall back to the global AIConfig values.
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	Prompts          PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig overrides the built-in prompts of one operation. Inline text
// wins over the built-in default; a file wins over inline text.
type PromptConfig struct {
	System           string `mapstructure:"system"`
	SystemFile       string `mapstructure:"systemFile"`
	Instructions     string `mapstructure:"instructions"`
	InstructionsFile string `mapstructure:"instructionsFile"`
}

func (a *AIConfig) operation(op Operation) *OperationAIConfig {
	switch op {
	case OperationSummary:
		return &a.Summary
	case OperationSkills:
		return &a.Skills
	case OperationExperience:
		return &a.Experience
	case OperationKeywords:
		return &a.Keywords
	}
	return nil
}

// OperationConfig returns the AI configuration for op with global fallbacks
// applied. Unknown operations get the global configuration.
func (c *Config) OperationConfig(op Operation) OperationAIConfig {
	var config OperationAIConfig
	if opCfg := c.AI.operation(op); opCfg != nil {
		config = *opCfg
	}
	c.applyOperationDefaults(&config)
	return config
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.UseSystemPrompts == nil {
		use := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &use
	}
}
