// Package deviceflow implements the OAuth 2.0 Device Authorization Grant
// (RFC 8628) against GitHub: strategy selection from the detected
// environment, the flow state machine, instruction rendering, and result
// classification with recovery guidance.
package deviceflow

// FlowState tracks where a device flow run currently is.
type FlowState int

const (
	// StateInitializing is probing the environment and selecting a strategy.
	StateInitializing FlowState = iota

	// StateRequestingCode is requesting the device and user codes.
	StateRequestingCode

	// StateWaitingForUser is showing instructions while the user authorizes.
	StateWaitingForUser

	// StatePollingToken is polling the token endpoint for the grant result.
	StatePollingToken

	// StateValidating is confirming the issued token against the user endpoint.
	StateValidating

	// StateComplete is the terminal success state.
	StateComplete

	// StateError is the terminal failure state.
	StateError
)

// String makes FlowState satisfy the fmt.Stringer interface.
func (s FlowState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRequestingCode:
		return "requesting_code"
	case StateWaitingForUser:
		return "waiting_for_user"
	case StatePollingToken:
		return "polling_token"
	case StateValidating:
		return "validating"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is absorbing. A flow in a terminal
// state never transitions again.
func (s FlowState) Terminal() bool {
	return s == StateComplete || s == StateError
}

// FlowStates lists the non-terminal progression in order, used by progress
// estimation.
var FlowStates = []FlowState{
	StateInitializing,
	StateRequestingCode,
	StateWaitingForUser,
	StatePollingToken,
	StateValidating,
	StateComplete,
}
