package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quocvuong92/zor/internal/constants"
)

// Kind is the value type of a setting
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Key describes one recognised setting
type Key struct {
	Name        string
	Kind        Kind
	Default     interface{}
	Secret      bool
	Description string
}

// Setting names
const (
	KeyProvider          = "provider"
	KeyModel             = "model"
	KeyTemperature       = "temperature"
	KeyMaxTokens         = "max_tokens"
	KeyExcludeDirs       = "exclude_dirs"
	KeyExcludeFiles      = "exclude_files"
	KeyBackupFiles       = "backup_files"
	KeyHistorySize       = "history_size"
	KeyRateLimitRetries  = "rate_limit_retries"
	KeyRetryBaseDelayMS  = "retry_base_delay_ms"
	KeyRetryMaxDelayMS   = "retry_max_delay_ms"
	KeyRetryJitter       = "retry_jitter"
	KeyContextMaxBytes   = "context_max_bytes"
	KeyMaxFileBytes      = "max_file_bytes"
	KeyHistoryBackend    = "history_backend"
	KeyRequestTimeoutSec = "request_timeout_seconds"
	KeyAPIBaseURL        = "api_base_url"
	KeyAPIKey            = "api_key"
)

// Keys is the registry of settings in display order
var Keys = []Key{
	{KeyProvider, KindString, constants.DefaultProvider, false, "model provider: gemini or openai"},
	{KeyModel, KindString, constants.DefaultModel, false, "model name"},
	{KeyTemperature, KindFloat, 0.2, false, "sampling temperature (0-2)"},
	{KeyMaxTokens, KindInt, 8192, false, "maximum output tokens"},
	{KeyExcludeDirs, KindList, []string{"node_modules", ".venv", "venv", ".git", "__pycache__", "dist", "build", ".pytest_cache", ".next"}, false, "directory names never scanned"},
	{KeyExcludeFiles, KindList, []string{".env", "*.pyc", "*.jpg", "*.png", "*.pdf"}, false, "file glob patterns never scanned"},
	{KeyBackupFiles, KindBool, true, false, "write <file>.bak before applying an edit"},
	{KeyHistorySize, KindInt, 10, false, "conversation turns sent with each request"},
	{KeyRateLimitRetries, KindInt, 3, false, "total attempts per request"},
	{KeyRetryBaseDelayMS, KindInt, 1000, false, "first backoff delay in milliseconds"},
	{KeyRetryMaxDelayMS, KindInt, 30000, false, "backoff delay cap in milliseconds"},
	{KeyRetryJitter, KindBool, false, false, "randomise backoff delays"},
	{KeyContextMaxBytes, KindInt, 1000000, false, "total bytes of file content sent as context"},
	{KeyMaxFileBytes, KindInt, 1 << 20, false, "files larger than this are skipped"},
	{KeyHistoryBackend, KindString, "json", false, "history storage: json or sqlite"},
	{KeyRequestTimeoutSec, KindInt, int(constants.DefaultAPITimeout.Seconds()), false, "timeout for one model request"},
	{KeyAPIBaseURL, KindString, constants.DefaultOpenAIURL, false, "base URL for the openai provider"},
	{KeyAPIKey, KindString, "", true, "API key for the selected provider"},
}

// LookupKey returns the registry entry for name
func LookupKey(name string) (Key, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range Keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// Parse converts a command-line string into a value of the key's kind.
// Lists are comma separated.
func (k Key) Parse(raw string) (interface{}, error) {
	raw = strings.TrimSpace(raw)
	switch k.Kind {
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
		return b, nil
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", raw)
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return f, nil
	case KindList:
		items := []string{}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items, nil
	default:
		return raw, nil
	}
}

// check verifies that a value decoded from JSON has the key's kind
func (k Key) check(v interface{}) error {
	switch k.Kind {
	case KindBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
	case KindInt:
		f, ok := v.(float64)
		if !ok {
			if _, isInt := v.(int); isInt {
				return nil
			}
			return fmt.Errorf("expected integer, got %T", v)
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("expected integer, got %v", f)
		}
	case KindFloat:
		switch v.(type) {
		case float64, int:
		default:
			return fmt.Errorf("expected number, got %T", v)
		}
	case KindList:
		switch list := v.(type) {
		case []string:
		case []interface{}:
			for _, item := range list {
				if _, ok := item.(string); !ok {
					return fmt.Errorf("expected list of strings, found %T", item)
				}
			}
		default:
			return fmt.Errorf("expected list of strings, got %T", v)
		}
	case KindString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
	}
	return nil
}

// MaskSecret hides all but the edges of a secret value
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
