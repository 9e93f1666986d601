package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AstroAir/github-cli/pkg/ghauth"
)

func TestDelay_ExponentialProgression(t *testing.T) {
	cfg := Config{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Exponential: true,
		Jitter:      false,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second}, // capped
		{10, 60 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Delay(tt.attempt, cfg, nil), "attempt %d", tt.attempt)
	}
}

func TestDelay_ConstantWithoutExponential(t *testing.T) {
	cfg := Config{BaseDelay: 3 * time.Second, MaxDelay: 60 * time.Second}

	assert.Equal(t, 3*time.Second, Delay(1, cfg, nil))
	assert.Equal(t, 3*time.Second, Delay(4, cfg, nil))
}

func TestDelay_JitterStaysWithinBounds(t *testing.T) {
	cfg := Config{
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Exponential: true,
		Jitter:      true,
	}

	for i := 0; i < 200; i++ {
		d := Delay(1, cfg, nil)
		assert.GreaterOrEqual(t, d, 1800*time.Millisecond)
		assert.LessOrEqual(t, d, 2200*time.Millisecond)
	}
}

func TestDelay_FloorAppliesToTinyDelays(t *testing.T) {
	cfg := Config{BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, MinDelay, Delay(1, cfg, nil))
}

func TestDelay_ServerRetryAfterOverridesEverything(t *testing.T) {
	cfg := Config{
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second, // below the hint on purpose
		Exponential: true,
		Jitter:      true,
	}
	cause := &ghauth.RateLimitError{RetryAfter: 42 * time.Second}

	// No jitter, no cap: the server's value is used verbatim.
	for i := 0; i < 50; i++ {
		assert.Equal(t, 42*time.Second, Delay(3, cfg, cause))
	}
}

func TestShouldRetry(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		attempt int
		err     error
		want    bool
	}{
		{"network error retries", 1, &ghauth.NetworkError{Err: errors.New("refused")}, true},
		{"timeout retries", 2, &ghauth.TimeoutError{URL: "https://example.com"}, true},
		{"rate limit retries", 1, &ghauth.RateLimitError{}, true},
		{"unknown error fails open", 1, errors.New("mystery"), true},
		{"user denied never retries", 1, &ghauth.AuthError{Kind: ghauth.AuthUserDenied}, false},
		{"invalid token never retries", 1, &ghauth.AuthError{Kind: ghauth.AuthTokenInvalid}, false},
		{"expired device code retries", 1, &ghauth.AuthError{Kind: ghauth.AuthDeviceCodeExpired}, true},
		{"poll signal not engine-retried", 1, &ghauth.PollError{Code: ghauth.PollAuthorizationPending}, false},
		{"budget exhausted", 3, &ghauth.NetworkError{Err: errors.New("refused")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.attempt, tt.err, cfg))
		})
	}
}

func TestShouldRetry_WrappedErrors(t *testing.T) {
	cfg := DefaultConfig()

	wrapped := fmt.Errorf("request device token failed: %w", &ghauth.AuthError{Kind: ghauth.AuthUserDenied})
	require.ErrorAs(t, wrapped, new(*ghauth.AuthError))

	assert.False(t, ShouldRetry(1, wrapped, cfg))
}
