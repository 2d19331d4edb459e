package oauth

import (
	"errors"
	"fmt"
)

// Sentinel errors for the closed set of authorization failure modes.
// FlowResult.Err always wraps one of these so callers can branch with
// errors.Is instead of matching message text.
var (
	// ErrUnknownService means the service name is not in the capability
	// catalog.
	ErrUnknownService = errors.New("unknown service")

	// ErrNotImplemented means no authorization strategy exists for the
	// provider. Detected from the dispatch table alone, before any
	// network traffic.
	ErrNotImplemented = errors.New("oauth not implemented")

	// ErrMissingClientConfig means the provider needs a client ID that
	// is not configured. Checked before anything is opened.
	ErrMissingClientConfig = errors.New("missing oauth client configuration")

	// ErrFlowInProgress means a flow for the same provider is already
	// pending.
	ErrFlowInProgress = errors.New("authorization flow already in progress")

	// ErrProviderDenied means the provider reported an authorization
	// error (user declined, app not allow-listed, ...).
	ErrProviderDenied = errors.New("provider denied authorization")

	// ErrProviderNoCode means the provider callback carried neither an
	// error nor an authorization code.
	ErrProviderNoCode = errors.New("provider returned no authorization code")

	// ErrProviderNoToken means the token exchange completed without
	// yielding an access token.
	ErrProviderNoToken = errors.New("provider returned no token")

	// ErrStateMismatch means the callback's state nonce did not match
	// the pending flow. The callback is discarded.
	ErrStateMismatch = errors.New("state parameter mismatch")
)

// deniedError builds the ErrProviderDenied wrap for a provider error
// code. access_denied on an unverified app is the overwhelmingly common
// case, so it gets actionable guidance.
func deniedError(provider, code, description string) error {
	if code == "access_denied" {
		return fmt.Errorf("%w: %s reported access_denied; if this is a test app, make sure your account is allow-listed for it", ErrProviderDenied, provider)
	}
	if description != "" {
		return fmt.Errorf("%w: %s reported %s (%s)", ErrProviderDenied, provider, code, description)
	}
	return fmt.Errorf("%w: %s reported %s", ErrProviderDenied, provider, code)
}
