package ghauth

import (
	"errors"
	"fmt"
	"time"
)

// Device flow error codes as defined in RFC 8628 section 3.5.
const (
	// PollAuthorizationPending means the user has not yet approved the grant.
	PollAuthorizationPending = "authorization_pending"

	// PollSlowDown means the client is polling too fast and must add
	// 5 seconds to its polling interval for the rest of the flow.
	PollSlowDown = "slow_down"

	// PollExpiredToken means the device code has expired and a new
	// authorization flow must be started.
	PollExpiredToken = "expired_token"

	// PollAccessDenied means the user declined the authorization request.
	PollAccessDenied = "access_denied"
)

// PollError is a protocol-level signal from the token endpoint during device
// flow polling. It is not a transport failure and is never retried by the
// retry engine; the orchestrator interprets the code directly.
type PollError struct {
	// Code is one of the Poll* constants.
	Code string

	// Description is the optional error_description from the server.
	Description string
}

func (e *PollError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("device flow: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("device flow: %s", e.Code)
}

// NetworkError indicates a transport-level failure reaching the server.
// Network errors are retryable.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("network error requesting %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError indicates a request exceeded its deadline.
// Timeout errors are retryable.
type TimeoutError struct {
	URL      string
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	if e.Duration > 0 {
		return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Duration)
	}
	return fmt.Sprintf("request to %s timed out", e.URL)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// RateLimitError indicates the server rejected a request due to rate
// limiting. RetryAfter carries the server-provided wait when present;
// ResetAt carries the quota reset timestamp when the server reported one.
type RateLimitError struct {
	// RetryAfter is the explicit wait the server asked for (Retry-After).
	// Zero when the server did not provide one.
	RetryAfter time.Duration

	// ResetAt is when the rate limit quota resets (X-RateLimit-Reset).
	// Zero when unknown.
	ResetAt time.Time

	// Remaining is the reported remaining quota, usually 0.
	Remaining int

	Err error
}

func (e *RateLimitError) Error() string {
	switch {
	case e.RetryAfter > 0:
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	case !e.ResetAt.IsZero():
		return fmt.Sprintf("rate limited, quota resets at %s", e.ResetAt.Format(time.RFC3339))
	default:
		return "rate limited"
	}
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// AuthKind classifies authentication failures.
type AuthKind int

const (
	// AuthUnknown is an unclassified authentication failure.
	AuthUnknown AuthKind = iota

	// AuthUserDenied means the user explicitly declined the authorization.
	// Never retried.
	AuthUserDenied

	// AuthDeviceCodeExpired means the device code lapsed before approval.
	// The flow must be restarted from the beginning.
	AuthDeviceCodeExpired

	// AuthTokenExpired means a previously issued token is past its expiry.
	AuthTokenExpired

	// AuthTokenInvalid means the server rejected the credential, for
	// example a 401 from the user endpoint during validation. Never retried.
	AuthTokenInvalid
)

// String makes AuthKind satisfy the fmt.Stringer interface.
func (k AuthKind) String() string {
	switch k {
	case AuthUserDenied:
		return "user_denied"
	case AuthDeviceCodeExpired:
		return "device_code_expired"
	case AuthTokenExpired:
		return "token_expired"
	case AuthTokenInvalid:
		return "token_invalid"
	default:
		return "unknown"
	}
}

// AuthError is an authentication failure with a classified kind.
type AuthError struct {
	Kind    AuthKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// EnvKind classifies environment capability failures.
type EnvKind int

const (
	EnvUnknown EnvKind = iota
	EnvBrowserUnavailable
	EnvClipboardUnavailable
	EnvNetworkRestricted
)

// String makes EnvKind satisfy the fmt.Stringer interface.
func (k EnvKind) String() string {
	switch k {
	case EnvBrowserUnavailable:
		return "browser_unavailable"
	case EnvClipboardUnavailable:
		return "clipboard_unavailable"
	case EnvNetworkRestricted:
		return "network_restricted"
	default:
		return "unknown"
	}
}

// EnvironmentError reports a capability the current environment lacks.
// These are advisory: the flow degrades to another strategy instead of failing.
type EnvironmentError struct {
	Kind    EnvKind
	Message string
}

func (e *EnvironmentError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("environment limitation (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("environment limitation (%s)", e.Kind)
}

// IsRetryable reports whether an error class is safe to retry. Unknown
// errors are treated as retryable so transient failures are not given up on.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pollErr *PollError
	if errors.As(err, &pollErr) {
		// Protocol signals are handled by the polling loop, not the retry engine.
		return false
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case AuthUserDenied, AuthTokenInvalid:
			return false
		}
		return true
	}

	return true
}

// RetryAfterHint extracts an explicit server-provided wait from an error
// chain. Returns zero when the error carries no such hint.
func RetryAfterHint(err error) time.Duration {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		return rateErr.RetryAfter
	}
	return 0
}
