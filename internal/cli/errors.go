package cli

import (
	"fmt"
)

// AuthRequiredError indicates no valid stored credentials exist for a host.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Host is the GitHub host that requires authentication.
	Host string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Authentication required for %s

To authenticate, run:
  gh-cli auth login

To check current authentication status:
  gh-cli auth status`, e.Host)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthFailedError indicates an authentication attempt failed.
type AuthFailedError struct {
	// Host is the GitHub host where authentication failed.
	Host string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Authentication failed for %s: %v

To retry authentication, run:
  gh-cli auth login`, e.Host, e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}
