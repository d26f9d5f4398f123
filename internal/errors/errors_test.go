package errors_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/securecell/internal/errors"
	"github.com/systmms/securecell/internal/logging"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Enclave could not be opened",
		Suggestion: "Check available locked memory",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Enclave could not be opened")
	assert.Contains(t, errMsg, "Check available locked memory")
	assert.Contains(t, errMsg, "💡")
}

func TestUserErrorFallsBackToWrapped(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("boom")
	err := errors.UserError{Err: base}

	assert.Equal(t, "boom", err.Error())
	assert.ErrorIs(t, err, base)
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "policy",
		Value:      "vault",
		Message:    "Unknown lock policy",
		Suggestion: "Use one of flag, swap or sealed",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "policy")
	assert.Contains(t, errMsg, "vault")
	assert.Contains(t, errMsg, "Unknown lock policy")
	assert.Contains(t, errMsg, "flag, swap or sealed")
}

func TestSourceErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		kind       string
		err        error
		suggestion string
	}{
		{"env missing", "env", fmt.Errorf("variable not set"), "export NAME=value"},
		{"keyring missing", "keyring", fmt.Errorf("secret not found in keyring"), "secret-tool store"},
		{"keyring daemon", "keyring", fmt.Errorf("failed to connect to dbus"), "gnome-keyring"},
		{"literal", "literal", fmt.Errorf("anything"), "meant for testing"},
		{"bad uri", "unknown", fmt.Errorf("unknown scheme \"vault\""), "env:NAME"},
		{"no hint", "env", fmt.Errorf("something else"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := errors.SourceError(tt.kind, "NAME", tt.err)

			var userErr errors.UserError
			require.True(t, stderrors.As(err, &userErr))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, userErr.Message, tt.kind)
			if tt.suggestion == "" {
				assert.Empty(t, userErr.Suggestion)
			} else {
				assert.Contains(t, userErr.Suggestion, tt.suggestion)
			}
		})
	}
}

// TestSourceErrorRedaction verifies secrets wrapped as logging.Secret stay hidden
func TestSourceErrorRedaction(t *testing.T) {
	t.Parallel()

	secretValue := "api-key-super-secret-123"
	baseErr := fmt.Errorf("rejected value %s", logging.Secret(secretValue))

	err := errors.SourceError("literal", "test", baseErr)

	assert.NotContains(t, err.Error(), secretValue)
	assert.Contains(t, baseErr.Error(), "[REDACTED]")
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	yamlErr := fmt.Errorf("parse: %w", fmt.Errorf("yaml: line 3: mapping values are not allowed"))
	permErr := fmt.Errorf("open securecell.yaml: %w", fs.ErrPermission)
	missingErr := fmt.Errorf("open: %w", fmt.Errorf("open x: no such file or directory"))
	plain := fmt.Errorf("plain failure")
	user := errors.UserError{Message: "already friendly"}

	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"yaml", yamlErr, "Invalid YAML format"},
		{"permission", permErr, "Permission denied"},
		{"missing file", missingErr, "File or directory not found"},
		{"plain", plain, "plain failure"},
		{"user error", user, "already friendly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			simplified := errors.SimplifyError(tt.err)
			assert.Contains(t, simplified.Error(), tt.message)
		})
	}

	assert.Nil(t, errors.SimplifyError(nil))
}
