package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
	Err        error
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// SourceError wraps a failure to load a secret from a source with a
// suggestion for the source kind ("env", "keyring", "literal").
func SourceError(kind, name string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("failed to load secret from %s source %q", kind, name),
		Suggestion: sourceSuggestion(kind, err),
		Err:        err,
	}
}

func sourceSuggestion(kind string, err error) string {
	errStr := strings.ToLower(err.Error())

	switch kind {
	case "env":
		if strings.Contains(errStr, "not found") || strings.Contains(errStr, "not set") {
			return "Export the variable before running, e.g. 'export NAME=value'"
		}
	case "keyring":
		if strings.Contains(errStr, "not found") {
			return "Store the secret first, e.g. 'secret-tool store --label=NAME service SERVICE username ACCOUNT'"
		}
		if strings.Contains(errStr, "dbus") || strings.Contains(errStr, "secret service") {
			return "No keyring daemon is reachable. Start gnome-keyring or use an env: source"
		}
	case "literal":
		return "Literal sources are meant for testing; prefer env: or keyring:"
	}

	if strings.Contains(errStr, "unknown scheme") || strings.Contains(errStr, "malformed") {
		return "Use one of env:NAME, keyring:service/account or literal:value"
	}

	return ""
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
