package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/vault/api"

	"atsoptimizer/internal/errors"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds the KV v2 paths of each secret. Several entries may
// share one path; each path is read once.
type VaultSecrets struct {
	APIKeys       string `mapstructure:"apiKeys"`       // key "keys", comma separated
	GeminiKey     string `mapstructure:"geminiKey"`     // key "api_key"
	DatabaseURL   string `mapstructure:"databaseURL"`   // key "url"
	RedisPassword string `mapstructure:"redisPassword"` // key "password"
	JWTSecret     string `mapstructure:"jwtSecret"`     // key "secret"
	TLSCerts      string `mapstructure:"tlsCerts"`      // keys "cert", "key", "ca"
}

// VaultSecret is one KV v2 secret version.
type VaultSecret struct {
	Path    string
	Data    map[string]any
	Version int64
}

// String returns the string value under key. A missing key yields "".
func (s *VaultSecret) String(key string) (string, error) {
	raw, ok := s.Data[key]
	if !ok || raw == nil {
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' in secret %s is %T, not a string", key, s.Path, raw)
	}
	return value, nil
}

// List splits a comma separated string value, dropping blanks.
func (s *VaultSecret) List(key string) ([]string, error) {
	value, err := s.String(key)
	if err != nil {
		return nil, err
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items, nil
}

// VaultClient reads KV v2 secrets through the logical API.
type VaultClient struct {
	logical *api.Logical
	logger  *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// when Vault is disabled.
func NewVaultClient(ctx context.Context, cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := vaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().HealthWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiCfg.Address, err)
	}
	if health.Sealed {
		return nil, fmt.Errorf("vault at %s is sealed", apiCfg.Address)
	}
	logger.Info("Connected to Vault",
		"address", apiCfg.Address,
		"namespace", cfg.Namespace,
		"version", health.Version)

	return &VaultClient{logical: client.Logical(), logger: logger}, nil
}

// vaultToken prefers the inline token over the token file.
func vaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// Read fetches the latest version of the secret at path, which must be the
// full logical path (secret/data/...).
func (vc *VaultClient) Read(ctx context.Context, path string) (*VaultSecret, error) {
	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.logical.ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return parseKV(path, secret.Data)
}

// parseKV unpacks the data and metadata envelope of a KV v2 response.
func parseKV(path string, raw map[string]any) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KV v2 format (missing 'data' field)", path)
	}
	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KV v2 format (missing 'metadata' field)", path)
	}
	version, err := secretVersion(metadata["version"])
	if err != nil {
		return nil, fmt.Errorf("secret at %s: %w", path, err)
	}
	return &VaultSecret{Path: path, Data: data, Version: version}, nil
}

func secretVersion(raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		return v.Int64()
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse version: %w", err)
		}
		return version, nil
	case nil:
		return 0, fmt.Errorf("metadata is missing 'version'")
	default:
		return 0, fmt.Errorf("unexpected type for version: %T", raw)
	}
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config.
// Vault values override every other source.
func ApplyVaultSecrets(ctx context.Context, config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(ctx, config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecrets(ctx, client, config, logger)
}

type secretReader interface {
	Read(ctx context.Context, path string) (*VaultSecret, error)
}

// secretTarget maps one key of a Vault secret onto a config field.
type secretTarget struct {
	name  string
	path  string
	key   string
	apply func(string)
}

func applySecrets(ctx context.Context, client secretReader, config *Config, logger *errors.Logger) error {
	paths := config.Vault.Secrets
	read := cachedReader(ctx, client)

	if paths.APIKeys != "" {
		secret, err := read(paths.APIKeys)
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		keys, err := secret.List("keys")
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if len(keys) == 0 {
			logger.Warn("No API keys found in Vault", "path", paths.APIKeys)
		} else {
			config.Server.APIKeys = keys
			logger.Info("API keys loaded from Vault", "count", len(keys), "version", secret.Version)
		}
	}

	targets := []secretTarget{
		{"Gemini API key", paths.GeminiKey, "api_key", func(v string) { applyGeminiKey(config, v) }},
		{"database URL", paths.DatabaseURL, "url", func(v string) { config.Database.URL = v }},
		{"Redis password", paths.RedisPassword, "password", func(v string) { config.Redis.Password = v }},
		{"JWT secret", paths.JWTSecret, "secret", func(v string) { config.Server.Auth.JWTSecret = v }},
		{"TLS certificate", paths.TLSCerts, "cert", func(v string) { config.Server.TLS.CertContent = v }},
		{"TLS key", paths.TLSCerts, "key", func(v string) { config.Server.TLS.KeyContent = v }},
		{"TLS CA", paths.TLSCerts, "ca", func(v string) { config.Server.TLS.CAContent = v }},
	}
	for _, target := range targets {
		if target.path == "" {
			continue
		}
		secret, err := read(target.path)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", target.name, err)
		}
		value, err := secret.String(target.key)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", target.name, err)
		}
		if value == "" {
			logger.Debug("Secret not set in Vault", "secret", target.name, "path", target.path)
			continue
		}
		target.apply(value)
		logger.Info("Secret loaded from Vault",
			"secret", target.name,
			"version", secret.Version,
			"masked_value", maskSecret(value))
	}
	return nil
}

// cachedReader reads each path at most once.
func cachedReader(ctx context.Context, client secretReader) func(string) (*VaultSecret, error) {
	cache := make(map[string]*VaultSecret)
	return func(path string) (*VaultSecret, error) {
		if secret, ok := cache[path]; ok {
			return secret, nil
		}
		secret, err := client.Read(ctx, path)
		if err != nil {
			return nil, err
		}
		cache[path] = secret
		return secret, nil
	}
}

// applyGeminiKey sets the global key and every operation key still unset.
func applyGeminiKey(config *Config, key string) {
	config.AI.APIKey = key
	for _, op := range Operations {
		if opCfg := config.AI.operation(op); opCfg.APIKey == "" {
			opCfg.APIKey = key
		}
	}
}

func maskSecret(value string) string {
	if len(value) > 12 && !strings.Contains(value, "\n") {
		return value[:4] + "****" + value[len(value)-4:]
	}
	return "****"
}
