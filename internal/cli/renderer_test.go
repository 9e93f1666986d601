package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AstroAir/github-cli/internal/deviceflow"
	"github.com/AstroAir/github-cli/internal/retry"
)

func newTestRenderer(width int) (*ConsoleRenderer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	r := NewConsoleRenderer(buf, false)
	r.width = func() int { return width }
	return r, buf
}

func sampleInstructions() deviceflow.Instructions {
	return deviceflow.BuildInstructions(
		deviceflow.StrategyBrowserManual,
		"https://github.com/login/device", "WDJB-MJHT", false, false)
}

func TestShowInstructions_Detailed(t *testing.T) {
	r, buf := newTestRenderer(120)

	r.ShowInstructions(sampleInstructions())

	out := buf.String()
	assert.Contains(t, out, "Open the verification page in a browser")
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "WDJB-MJHT")
	assert.Contains(t, out, "https://github.com/login/device")
}

func TestShowInstructions_CompactOnNarrowTerminals(t *testing.T) {
	r, buf := newTestRenderer(40)

	r.ShowInstructions(sampleInstructions())

	out := buf.String()
	assert.NotContains(t, out, "1. ", "numbered steps are dropped in compact mode")
	assert.Contains(t, out, "WDJB-MJHT")
	assert.Contains(t, out, "https://github.com/login/device")
}

func TestObserveTransition_CompleteAndError(t *testing.T) {
	t.Run("complete prints confirmation", func(t *testing.T) {
		r, buf := newTestRenderer(120)
		r.ObserveTransition(deviceflow.Transition{To: deviceflow.StateComplete})
		assert.Contains(t, buf.String(), "Authentication complete")
	})

	t.Run("error stays silent, failure is printed separately", func(t *testing.T) {
		r, buf := newTestRenderer(120)
		r.ObserveTransition(deviceflow.Transition{To: deviceflow.StateError})
		assert.NotContains(t, buf.String(), "✗")
	})
}

func TestObserveTransition_QuietMode(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewConsoleRenderer(buf, true)

	r.ObserveTransition(deviceflow.Transition{To: deviceflow.StateRequestingCode})
	r.ObserveTransition(deviceflow.Transition{To: deviceflow.StateComplete})

	assert.Empty(t, buf.String())
}

func TestObserveRetry(t *testing.T) {
	t.Run("transient failure", func(t *testing.T) {
		r, buf := newTestRenderer(120)
		r.ObserveRetry(retry.Attempt{Attempt: 1, MaxAttempts: 3, Delay: 2 * time.Second})

		out := buf.String()
		assert.Contains(t, out, "attempt 1/3")
		assert.Contains(t, out, "2s")
	})

	t.Run("rate limited", func(t *testing.T) {
		r, buf := newTestRenderer(120)
		r.ObserveRetry(retry.Attempt{Delay: 42 * time.Second, RateLimited: true})

		out := buf.String()
		assert.Contains(t, out, "Rate limited")
		assert.Contains(t, out, "42s")
	})
}

func TestShowFailure(t *testing.T) {
	r, buf := newTestRenderer(120)

	r.ShowFailure(&deviceflow.Result{
		Err:              errors.New("boom"),
		Message:          "GitHub could not be reached.",
		SuggestedActions: []string{"Check your internet connection", "Retry in a few moments"},
	})

	out := buf.String()
	assert.Contains(t, out, "GitHub could not be reached.")
	assert.Contains(t, out, "Check your internet connection")

	lines := strings.Count(out, "  - ")
	assert.Equal(t, 2, lines)
}

func TestAuthErrors(t *testing.T) {
	reqErr := &AuthRequiredError{Host: "github.com"}
	assert.Contains(t, reqErr.Error(), "gh-cli auth login")
	require.ErrorIs(t, reqErr, &AuthRequiredError{})

	failErr := &AuthFailedError{Host: "github.com", Reason: errors.New("denied")}
	assert.Contains(t, failErr.Error(), "denied")
	require.ErrorIs(t, failErr, &AuthFailedError{})
	assert.EqualError(t, errors.Unwrap(failErr), "denied")
}

func TestFormatScopes(t *testing.T) {
	assert.Equal(t, "-", FormatScopes(""))
	assert.Equal(t, "repo, read:user", FormatScopes("repo,read:user"))
}
