package deviceflow

import (
	"context"
	"errors"

	"github.com/AstroAir/github-cli/pkg/ghauth"
)

// RecoveryAction is the suggested next step after a failed flow. It is
// advisory only; the engine never executes recovery itself.
type RecoveryAction int

const (
	// RecoveryNone applies to successful results.
	RecoveryNone RecoveryAction = iota

	// RecoveryRetry suggests running the same flow again.
	RecoveryRetry

	// RecoveryWaitAndRetry suggests waiting out a rate limit first.
	RecoveryWaitAndRetry

	// RecoveryRestartFlow means the grant is dead and a fresh device code
	// is needed.
	RecoveryRestartFlow

	// RecoveryManualAuth suggests authenticating through a different path,
	// such as a personal access token.
	RecoveryManualAuth

	// RecoveryShowHelp suggests consulting troubleshooting documentation.
	RecoveryShowHelp

	// RecoveryCancel means the user ended the flow on purpose.
	RecoveryCancel
)

// String makes RecoveryAction satisfy the fmt.Stringer interface.
func (a RecoveryAction) String() string {
	switch a {
	case RecoveryNone:
		return "none"
	case RecoveryRetry:
		return "retry"
	case RecoveryWaitAndRetry:
		return "wait_and_retry"
	case RecoveryRestartFlow:
		return "restart_flow"
	case RecoveryManualAuth:
		return "manual_auth"
	case RecoveryShowHelp:
		return "show_help"
	case RecoveryCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Result is the outcome of a device flow run.
type Result struct {
	// Success is true when a validated token was obtained.
	Success bool

	// Token is the issued access token, nil on failure.
	Token *ghauth.Token

	// Identity is the validated user, nil on failure.
	Identity *ghauth.UserInfo

	// Err is the terminal failure, nil on success.
	Err error

	// Recovery is the suggested next step after a failure.
	Recovery RecoveryAction

	// Message is a short human-readable summary of the outcome.
	Message string

	// SuggestedActions are concrete things the user can try next.
	SuggestedActions []string
}

// classifyFailure maps a terminal error to recovery guidance.
func classifyFailure(err error) (RecoveryAction, string, []string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return RecoveryCancel, "Authentication was cancelled.", []string{
			"Run the login command again when you are ready",
		}
	}

	var rateErr *ghauth.RateLimitError
	if errors.As(err, &rateErr) {
		return RecoveryWaitAndRetry, "GitHub is rate limiting authentication requests.", []string{
			"Wait for the rate limit to reset before retrying",
			"Avoid running several login attempts in parallel",
		}
	}

	var authErr *ghauth.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case ghauth.AuthUserDenied:
			return RecoveryManualAuth, "The authorization request was denied.", []string{
				"Run the login command again and approve the request",
				"Use a personal access token if device login is blocked for your account",
			}
		case ghauth.AuthDeviceCodeExpired, ghauth.AuthTokenExpired:
			return RecoveryRestartFlow, "The verification code expired before approval.", []string{
				"Run the login command again to get a fresh code",
				"Complete the verification promptly; codes are short-lived",
			}
		case ghauth.AuthTokenInvalid:
			return RecoveryManualAuth, "GitHub rejected the issued credentials.", []string{
				"Run the login command again",
				"Check whether your organization restricts OAuth app access",
			}
		}
	}

	var netErr *ghauth.NetworkError
	var timeoutErr *ghauth.TimeoutError
	if errors.As(err, &netErr) || errors.As(err, &timeoutErr) {
		return RecoveryRetry, "GitHub could not be reached.", []string{
			"Check your internet connection",
			"Check proxy or firewall settings if you are on a corporate network",
			"Retry in a few moments",
		}
	}

	return RecoveryShowHelp, "Authentication failed unexpectedly.", []string{
		"Retry the login command",
		"Run with --log-level debug for more detail",
	}
}

// failureResult builds the Result for a terminal error.
func failureResult(err error) *Result {
	action, message, suggestions := classifyFailure(err)
	return &Result{
		Err:              err,
		Recovery:         action,
		Message:          message,
		SuggestedActions: suggestions,
	}
}
