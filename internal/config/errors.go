package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is matched by every ConfigurationError
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError lists every missing or invalid setting found in one pass
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

// Invalidf builds a ConfigurationError for a single problem
func Invalidf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Invalid: []string{fmt.Sprintf(format, args...)}}
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, strings.Join(e.Invalid, "; "))
	}
	if len(parts) == 0 {
		return ErrConfiguration.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, strings.Join(parts, "; "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// HasProblems reports whether anything was recorded
func (e *ConfigurationError) HasProblems() bool {
	return len(e.Missing) > 0 || len(e.Invalid) > 0
}
