package cli

import "fmt"

// AuthRequiredError indicates a command needs a session and none
// exists, or the backend rejected the stored one.
type AuthRequiredError struct {
	// Reason, when set, explains how the session was lost.
	Reason string
}

// Error returns a message with the command to run next.
func (e *AuthRequiredError) Error() string {
	msg := "You are not logged in."
	if e.Reason != "" {
		msg = e.Reason
	}
	return fmt.Sprintf(`%s

To authenticate, run:
  area login`, msg)
}

// Is allows errors.Is() against any AuthRequiredError.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// FlowFailedError indicates an authorization flow ended unsuccessfully.
type FlowFailedError struct {
	// Service is the service being connected.
	Service string

	// Reason is the flow's outcome description.
	Reason string

	// Cause is the underlying error, when one exists.
	Cause error
}

// Error returns the flow outcome.
func (e *FlowFailedError) Error() string {
	return fmt.Sprintf("failed to connect %s: %s", e.Service, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *FlowFailedError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is() against any FlowFailedError.
func (e *FlowFailedError) Is(target error) bool {
	_, ok := target.(*FlowFailedError)
	return ok
}
