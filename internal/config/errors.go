package config

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is wrapped by ConfigError when a caller names a key zor does not define
var ErrUnknownKey = errors.New("unknown configuration key")

// ConfigError reports a malformed or missing setting
type ConfigError struct {
	Key     string // setting name, empty for file-level problems
	Path    string // file the value came from, if any
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Key != "" {
		msg += fmt.Sprintf(": %s", e.Key)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
