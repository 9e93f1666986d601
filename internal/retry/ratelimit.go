package retry

import (
	"errors"
	"sync"
	"time"

	"github.com/AstroAir/github-cli/pkg/ghauth"
)

const (
	// historyWindow is how long rate limit events are remembered.
	historyWindow = time.Hour

	// recentWindow is the window used to scale the backoff multiplier.
	recentWindow = 5 * time.Minute

	// maxMultiplier caps how much recent rate limiting inflates delays.
	maxMultiplier = 2.0

	// defaultRateLimitWait is used when the server provides neither an
	// explicit retry-after nor a quota reset timestamp.
	defaultRateLimitWait = 60 * time.Second
)

// RateLimitTracker records rate limit responses over a rolling window and
// recommends how long to wait before the next request. Safe for concurrent use.
type RateLimitTracker struct {
	mu     sync.Mutex
	events []time.Time
	now    func() time.Time
}

// NewRateLimitTracker creates an empty tracker.
func NewRateLimitTracker() *RateLimitTracker {
	return &RateLimitTracker{now: time.Now}
}

// Observe inspects an operation error. If it is a rate limit rejection the
// event is recorded and Observe returns true with the recommended wait: the
// server's explicit retry-after when present, otherwise the time until the
// reported quota reset, otherwise a 60 second default. The reset and default
// waits are inflated by the five minute escalation multiplier so a provider
// that keeps rejecting gets progressively longer pauses; an explicit
// retry-after is authoritative and never inflated.
func (t *RateLimitTracker) Observe(err error) (bool, time.Duration) {
	var rateErr *ghauth.RateLimitError
	if !errors.As(err, &rateErr) {
		return false, 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.prune(now)
	// Escalation counts the events before this one.
	multiplier := t.multiplierLocked(now)
	t.events = append(t.events, now)

	switch {
	case rateErr.RetryAfter > 0:
		return true, rateErr.RetryAfter
	case !rateErr.ResetAt.IsZero() && rateErr.ResetAt.After(now):
		return true, time.Duration(float64(rateErr.ResetAt.Sub(now)) * multiplier)
	default:
		return true, time.Duration(float64(defaultRateLimitWait) * multiplier)
	}
}

// Multiplier returns the current escalation multiplier, scaling from 1.0 up
// to 2.0 with the number of rate limit events seen in the last five minutes.
func (t *RateLimitTracker) Multiplier() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.prune(now)
	return t.multiplierLocked(now)
}

// multiplierLocked computes the five minute escalation factor. Caller holds
// the lock.
func (t *RateLimitTracker) multiplierLocked(now time.Time) float64 {
	recent := 0
	cutoff := now.Add(-recentWindow)
	for _, ev := range t.events {
		if ev.After(cutoff) {
			recent++
		}
	}

	m := 1.0 + 0.2*float64(recent)
	if m > maxMultiplier {
		m = maxMultiplier
	}
	return m
}

// EventCount returns the number of rate limit events inside the rolling window.
func (t *RateLimitTracker) EventCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(t.now())
	return len(t.events)
}

// prune drops events older than the rolling window. Caller holds the lock.
func (t *RateLimitTracker) prune(now time.Time) {
	cutoff := now.Add(-historyWindow)
	kept := t.events[:0]
	for _, ev := range t.events {
		if ev.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	t.events = kept
}
