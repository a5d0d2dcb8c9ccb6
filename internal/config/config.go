// Package config provides the layered zor configuration: defaults, the global
// file, the project file and the environment, resolved into an explicit
// Config value built once per invocation.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/quocvuong92/zor/internal/constants"
)

// Config is the effective configuration passed to every component
type Config struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int

	ExcludeDirs     []string
	ExcludeFiles    []string
	ContextMaxBytes int64
	MaxFileBytes    int64

	BackupFiles bool

	HistorySize    int
	HistoryBackend string

	RateLimitRetries int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryJitter      bool
	RequestTimeout   time.Duration

	APIBaseURL string
	APIKey     string

	ProjectRoot string
	GlobalDir   string
}

// HistoryDir is where exchange logs are stored
func (c *Config) HistoryDir() string {
	return filepath.Join(c.GlobalDir, "history")
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if !isOneOf(c.Provider, constants.Providers) {
		return &ConfigError{Key: KeyProvider, Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(constants.Providers, ", "), c.Provider)}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &ConfigError{Key: KeyModel, Message: "must not be empty"}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &ConfigError{Key: KeyTemperature, Message: fmt.Sprintf("must be between 0 and 2, got %v", c.Temperature)}
	}
	if c.MaxTokens <= 0 {
		return &ConfigError{Key: KeyMaxTokens, Message: "must be positive"}
	}
	if c.RateLimitRetries < 1 {
		return &ConfigError{Key: KeyRateLimitRetries, Message: "must be at least 1"}
	}
	if c.RetryBaseDelay < 0 {
		return &ConfigError{Key: KeyRetryBaseDelayMS, Message: "must not be negative"}
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return &ConfigError{Key: KeyRetryMaxDelayMS, Message: "must not be smaller than retry_base_delay_ms"}
	}
	if c.ContextMaxBytes <= 0 {
		return &ConfigError{Key: KeyContextMaxBytes, Message: "must be positive"}
	}
	if c.MaxFileBytes <= 0 {
		return &ConfigError{Key: KeyMaxFileBytes, Message: "must be positive"}
	}
	if c.HistorySize < 0 {
		return &ConfigError{Key: KeyHistorySize, Message: "must not be negative"}
	}
	if !isOneOf(c.HistoryBackend, []string{"json", "sqlite"}) {
		return &ConfigError{Key: KeyHistoryBackend, Message: fmt.Sprintf("must be json or sqlite, got %q", c.HistoryBackend)}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigError{Key: KeyRequestTimeoutSec, Message: "must be positive"}
	}
	return nil
}

// RequireAPIKey fails when no key was found in config, environment or .env
func (c *Config) RequireAPIKey() error {
	if c.APIKey != "" {
		return nil
	}
	return &ConfigError{
		Key:     KeyAPIKey,
		Message: fmt.Sprintf("no API key configured; run 'zor setup' or set %s", APIKeyEnv(c.Provider)),
	}
}

// APIKeyEnv names the environment variable consulted for provider's key
func APIKeyEnv(provider string) string {
	if provider == "openai" {
		return constants.EnvOpenAIAPIKey
	}
	return constants.EnvGeminiAPIKey
}

func isOneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
