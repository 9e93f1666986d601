// Package retry implements the retry policy for authentication network
// operations: exponential backoff with jitter, rate limit tracking, and a
// retry engine that composes the two with cancellable waits.
package retry

import (
	"math/rand"
	"time"

	"github.com/AstroAir/github-cli/pkg/ghauth"
)

const (
	// MinDelay is the floor applied to every computed backoff delay.
	MinDelay = 100 * time.Millisecond

	// jitterFraction is the +/- fraction of the computed delay randomized
	// to spread out retries from concurrent clients.
	jitterFraction = 0.1
)

// Config holds the retry policy for an operation class.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed delay before jitter.
	MaxDelay time.Duration

	// Exponential doubles the delay on each subsequent attempt.
	Exponential bool

	// Jitter randomizes each delay by +/-10%.
	Jitter bool
}

// DefaultConfig returns the retry policy used for authentication requests.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Exponential: true,
		Jitter:      true,
	}
}

// Delay computes the wait before retrying after the given 1-based attempt.
// An explicit server-provided retry-after on the cause overrides the whole
// computation, including jitter and the MaxDelay cap.
func Delay(attempt int, cfg Config, cause error) time.Duration {
	if hint := ghauth.RetryAfterHint(cause); hint > 0 {
		return hint
	}

	if attempt < 1 {
		attempt = 1
	}

	delay := cfg.BaseDelay
	if cfg.Exponential {
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay >= cfg.MaxDelay {
				break
			}
		}
	}
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	if cfg.Jitter {
		spread := jitterFraction * float64(delay)
		delay += time.Duration((rand.Float64()*2 - 1) * spread)
	}

	if delay < MinDelay {
		delay = MinDelay
	}
	return delay
}

// ShouldRetry reports whether another attempt should be made after the given
// 1-based attempt failed with err. Errors that cannot be classified are
// retried; only definitive rejections (user denied, invalid credential) and
// protocol poll signals stop the engine early.
func ShouldRetry(attempt int, err error, cfg Config) bool {
	if attempt >= cfg.MaxAttempts {
		return false
	}
	return ghauth.IsRetryable(err)
}
