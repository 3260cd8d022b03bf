package config

import (
	"crypto/tls"
	"fmt"
	"slices"

	"atsoptimizer/internal/errors"
)

// TLS modes.
const (
	TLSModeDisabled = "disabled"
	TLSModeServer   = "server"
	TLSModeMutual   = "mutual"
)

// TLSConfig holds TLS/mTLS configuration. Each PEM item comes either from a
// file or, when loaded from Vault, as inline content.
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"` // "1.2", "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"
}

// Enabled reports whether the server should terminate TLS.
func (t TLSConfig) Enabled() bool {
	return t.Mode == TLSModeServer || t.Mode == TLSModeMutual
}

type pemSource struct {
	name          string
	file, content string
	required      bool
}

func (t TLSConfig) sources() []pemSource {
	return []pemSource{
		{"cert", t.CertFile, t.CertContent, t.Enabled()},
		{"key", t.KeyFile, t.KeyContent, t.Enabled()},
		{"ca", t.CAFile, t.CAContent, t.Mode == TLSModeMutual},
	}
}

// Validate checks mode, PEM sources, version, cipher suites and client auth.
func (t TLSConfig) Validate() error {
	switch t.Mode {
	case "", TLSModeDisabled, TLSModeServer, TLSModeMutual:
	default:
		return tlsError("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", t.Mode)
	}

	for _, src := range t.sources() {
		if src.file != "" && src.content != "" {
			return tlsError("cannot specify both %sFile and %sContent", src.name, src.name)
		}
		if src.required && src.file == "" && src.content == "" {
			return tlsError("TLS %s is required for %s mode (provide %sFile or %sContent)", src.name, t.Mode, src.name, src.name)
		}
	}

	if !slices.Contains([]string{"", "1.2", "1.3"}, t.MinVersion) {
		return tlsError("invalid TLS minVersion: %s (must be '1.2' or '1.3')", t.MinVersion)
	}
	if !slices.Contains([]string{"", "require", "request", "verify"}, t.ClientAuthPolicy) {
		return tlsError("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", t.ClientAuthPolicy)
	}

	for _, name := range t.CipherSuites {
		if !slices.ContainsFunc(tls.CipherSuites(), func(s *tls.CipherSuite) bool { return s.Name == name }) {
			return tlsError("unknown or insecure cipher suite: %s", name)
		}
	}
	return nil
}

// ValidateTLSConfig validates the server TLS configuration.
func (c *Config) ValidateTLSConfig() error {
	return c.Server.TLS.Validate()
}

func tlsError(format string, args ...any) error {
	return errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf(format, args...), nil)
}
