package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsoptimizer/internal/types"
)

func validConfig() *Config {
	return &Config{
		AI:          AIConfig{Timeout: time.Minute},
		Suggestions: SuggestionsConfig{CallTimeout: time.Minute},
		Scoring:     ScoringConfig{DefaultVersion: "v2.1"},
		Server:      ServerConfig{Port: "8080"},
		App: AppConfig{
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
	}
}

func TestOperationConfigFallbacks(t *testing.T) {
	cfg := &Config{AI: AIConfig{
		Provider:         "gemini",
		Model:            "gemini-2.0-flash",
		Timeout:          time.Minute,
		APIKey:           "global-key",
		MaxRetries:       2,
		Temperature:      0.4,
		UseSystemPrompts: true,
	}}
	experienceTimeout := 90 * time.Second
	keywordTemp := float32(0.1)
	cfg.AI.Experience.Timeout = &experienceTimeout
	cfg.AI.Keywords.Temperature = &keywordTemp
	cfg.AI.Keywords.Model = "gemini-2.5-flash"

	t.Run("inherits globals", func(t *testing.T) {
		op := cfg.OperationConfig(OperationSummary)
		assert.Equal(t, "gemini", op.Provider)
		assert.Equal(t, "gemini-2.0-flash", op.Model)
		assert.Equal(t, "global-key", op.APIKey)
		assert.Equal(t, time.Minute, *op.Timeout)
		assert.Equal(t, 2, *op.MaxRetries)
		assert.True(t, *op.UseSystemPrompts)
	})

	t.Run("operation values win", func(t *testing.T) {
		assert.Equal(t, 90*time.Second, *cfg.OperationConfig(OperationExperience).Timeout)

		kw := cfg.OperationConfig(OperationKeywords)
		assert.Equal(t, "gemini-2.5-flash", kw.Model)
		assert.InDelta(t, 0.1, *kw.Temperature, 1e-6)
	})

	t.Run("does not mutate stored config", func(t *testing.T) {
		op := cfg.OperationConfig(OperationSkills)
		*op.MaxRetries = 9
		assert.Nil(t, cfg.AI.Skills.MaxRetries)
		assert.Equal(t, 2, cfg.AI.MaxRetries)
	})

	t.Run("unknown operation gets globals", func(t *testing.T) {
		op := cfg.OperationConfig(Operation("education"))
		assert.Equal(t, "global-key", op.APIKey)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero AI timeout", mutate: func(c *Config) { c.AI.Timeout = 0 }, errorMsg: "AI timeout"},
		{name: "zero call timeout", mutate: func(c *Config) { c.Suggestions.CallTimeout = 0 }, errorMsg: "callTimeout"},
		{name: "unknown score version", mutate: func(c *Config) { c.Scoring.DefaultVersion = "v3" }, errorMsg: "defaultVersion"},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, errorMsg: "port"},
		{name: "unsupported format", mutate: func(c *Config) { c.App.DefaultFormat = "xml" }, errorMsg: "invalid default format"},
		{
			name:     "single term synonym group",
			mutate:   func(c *Config) { c.Matching.Synonyms = [][]string{{"k8s", "kubernetes"}, {"golang"}} },
			errorMsg: "group 1",
		},
		{
			name:     "redis without addr",
			mutate:   func(c *Config) { c.Redis.Enabled = true },
			errorMsg: "redis addr",
		},
		{
			name:     "bad TLS",
			mutate:   func(c *Config) { c.Server.TLS.Mode = "server" },
			errorMsg: "TLS configuration error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestRequireAIKey(t *testing.T) {
	cfg := validConfig()
	assert.Error(t, cfg.RequireAIKey())

	cfg.AI.APIKey = "key"
	assert.NoError(t, cfg.RequireAIKey())
}

func TestScoreVersion(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.DefaultVersion = "v1"
	assert.Equal(t, types.ScoreV1, cfg.ScoreVersion())

	cfg.Scoring.DefaultVersion = "bogus"
	assert.Equal(t, types.ScoreV21, cfg.ScoreVersion())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	promptFile := filepath.Join(dir, "skills.md")
	require.NoError(t, os.WriteFile(promptFile, []byte("Prefer tools named in the posting."), 0600))

	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
ai:
  apiKey: file-key
  skills:
    model: gemini-2.5-pro
    prompts:
      instructionsFile: `+promptFile+`
suggestions:
  acceptPartial: true
scoring:
  defaultVersion: v2
matching:
  synonyms:
    - [k8s, kubernetes]
server:
  port: "9000"
`), 0600))

	cfg, err := LoadConfigFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.Suggestions.AcceptPartial)
	assert.Equal(t, 60*time.Second, cfg.Suggestions.CallTimeout)
	assert.Equal(t, types.ScoreV2, cfg.ScoreVersion())
	assert.Equal(t, [][]string{{"k8s", "kubernetes"}}, cfg.Matching.Synonyms)

	skills := cfg.OperationConfig(OperationSkills)
	assert.Equal(t, "gemini-2.5-pro", skills.Model)
	assert.Equal(t, "file-key", skills.APIKey)
	assert.Equal(t, 90*time.Second, *cfg.OperationConfig(OperationExperience).Timeout)
	assert.Equal(t, "Prefer tools named in the posting.", cfg.Prompts().Get(OperationSkills).Instructions)
}

func TestLoadConfigFileMissingPrompt(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
ai:
  summary:
    prompts:
      systemFile: /nonexistent/summary.md
`), 0600))

	_, err := LoadConfigFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt file validation failed")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
