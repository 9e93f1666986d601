package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AstroAir/github-cli/internal/cli"
	"github.com/AstroAir/github-cli/internal/tokenstore"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"auth required", &cli.AuthRequiredError{Host: "github.com"}, ExitCodeAuthRequired},
		{"auth failed", &cli.AuthFailedError{Host: "github.com", Reason: errors.New("denied")}, ExitCodeAuthFailed},
		{"wrapped auth required", fmt.Errorf("status: %w", &cli.AuthRequiredError{Host: "github.com"}), ExitCodeAuthRequired},
		{"generic error", errors.New("boom"), ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getExitCode(tt.err))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)
	SetVersion("1.2.3")

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	require.Contains(t, out.String(), "gh-cli version 1.2.3")
}

func TestFormatTokenStatus(t *testing.T) {
	assert.Contains(t, formatTokenStatus(true), "Valid")
	assert.Contains(t, formatTokenStatus(false), "Expired")
}

func TestFormatExpiry(t *testing.T) {
	t.Run("non-expiring", func(t *testing.T) {
		stored := &tokenstore.StoredToken{}
		assert.Contains(t, formatExpiry(stored), "never")
	})

	t.Run("future expiry", func(t *testing.T) {
		stored := &tokenstore.StoredToken{Expiry: time.Now().Add(2 * time.Hour)}
		assert.Contains(t, formatExpiry(stored), "in 2h")
	})

	t.Run("past expiry", func(t *testing.T) {
		stored := &tokenstore.StoredToken{Expiry: time.Now().Add(-30 * time.Minute)}
		assert.Contains(t, formatExpiry(stored), "ago")
	})
}
