package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/AstroAir/github-cli/pkg/logging"
)

// Attempt describes a failed attempt that is about to be retried. It is
// passed to the engine's observer so a UI can narrate the wait.
type Attempt struct {
	// Attempt is the 1-based attempt number that just failed.
	Attempt int

	// MaxAttempts is the configured attempt budget.
	MaxAttempts int

	// Delay is how long the engine will wait before the next attempt.
	Delay time.Duration

	// Err is the failure that triggered the retry.
	Err error

	// RateLimited marks waits recommended by the rate limit tracker.
	// These waits do not consume an attempt.
	RateLimited bool
}

// Engine runs operations under the retry policy. Rate limit rejections wait
// the tracker-recommended duration without consuming an attempt; all other
// retryable failures consume attempts with exponentially backed off delays.
type Engine struct {
	cfg     Config
	tracker *RateLimitTracker
	onRetry func(Attempt)

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTracker shares a rate limit tracker across engines.
func WithTracker(t *RateLimitTracker) EngineOption {
	return func(e *Engine) { e.tracker = t }
}

// WithRetryObserver registers a callback invoked before each retry wait.
func WithRetryObserver(fn func(Attempt)) EngineOption {
	return func(e *Engine) { e.onRetry = fn }
}

// NewEngine creates a retry engine with the given policy.
func NewEngine(cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:   cfg,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracker == nil {
		e.tracker = NewRateLimitTracker()
	}
	return e
}

// Tracker returns the engine's rate limit tracker.
func (e *Engine) Tracker() *RateLimitTracker { return e.tracker }

// Do runs op until it succeeds, the attempt budget is exhausted, a
// non-retryable error occurs, or ctx is cancelled. The returned error wraps
// the final cause so callers can use errors.As on it.
func (e *Engine) Do(ctx context.Context, name string, op func(context.Context) error) error {
	attempt := 1
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s cancelled: %w", name, err)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		if limited, wait := e.tracker.Observe(err); limited {
			logging.Warn("Retry", "%s rate limited, waiting %s (attempt %d/%d not consumed)",
				name, wait, attempt, e.cfg.MaxAttempts)
			e.notify(Attempt{Attempt: attempt, MaxAttempts: e.cfg.MaxAttempts, Delay: wait, Err: err, RateLimited: true})
			if serr := e.sleep(ctx, wait); serr != nil {
				return fmt.Errorf("%s cancelled while rate limited: %w", name, serr)
			}
			continue
		}

		if !ShouldRetry(attempt, err, e.cfg) {
			if attempt >= e.cfg.MaxAttempts {
				return fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
			}
			return fmt.Errorf("%s failed: %w", name, err)
		}

		delay := Delay(attempt, e.cfg, err)
		if m := e.tracker.Multiplier(); m > 1.0 {
			delay = time.Duration(float64(delay) * m)
		}

		logging.Debug("Retry", "%s attempt %d/%d failed, retrying in %s: %v",
			name, attempt, e.cfg.MaxAttempts, delay, err)
		e.notify(Attempt{Attempt: attempt, MaxAttempts: e.cfg.MaxAttempts, Delay: delay, Err: err})

		if serr := e.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("%s cancelled during backoff: %w", name, serr)
		}
		attempt++
	}
}

func (e *Engine) notify(a Attempt) {
	if e.onRetry != nil {
		e.onRetry(a)
	}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
