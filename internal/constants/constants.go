// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

// Timeout constants used across the application
const (
	// DefaultAPITimeout is the timeout for a single model request
	DefaultAPITimeout = 120 * time.Second
	// DefaultCommandTimeout is the timeout for shell command execution
	DefaultCommandTimeout = 5 * time.Minute
	// DefaultGitTimeout is the timeout for git subprocesses
	DefaultGitTimeout = 30 * time.Second
)

// Application defaults
const (
	AppName          = "zor"
	DefaultProvider  = "gemini"
	DefaultModel     = "gemini-2.0-flash"
	DefaultOpenAIURL = "https://api.openai.com/v1"

	// ProjectConfigFile is looked up in the project root
	ProjectConfigFile = ".zor_config.json"
	// GlobalConfigFile lives under the application's config directory
	GlobalConfigFile = "config.json"
	// DotEnvFile is read from the project root for API keys
	DotEnvFile = ".env"
	// BackupSuffix is appended to a file path to form its backup path
	BackupSuffix = ".bak"
)

// Environment variables consulted for API keys, per provider
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvConfigDir overrides the global config directory
	EnvConfigDir = "ZOR_CONFIG_DIR"
)

// SystemPreamble opens every request sent to the model
const SystemPreamble = "You are Zor, an AI coding assistant working with the following codebase."

// Providers lists the model providers the client can talk to
var Providers = []string{"gemini", "openai"}
