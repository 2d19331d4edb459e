package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"area/internal/api"
	"area/internal/catalog"
	"area/pkg/logging"
)

// FlowResult is the outcome of an authorization flow. StartFlow never
// returns a Go error; every path, including programming-level failures,
// lands in a result.
type FlowResult struct {
	// Success is true when the service ended up connected.
	Success bool

	// Reason is a short human-readable outcome description.
	Reason string

	// Err carries the failure cause, wrapping one of the package
	// sentinels. Nil on success.
	Err error
}

// CredentialBroker acquires credentials directly from a provider.
// GoogleBroker is the production implementation.
type CredentialBroker interface {
	RequestAuthorizationCode(ctx context.Context, state string, scopes []string) (string, error)
	RequestToken(ctx context.Context, state string, scopes []string) (string, error)
}

// Completer is the backend half of the handshake. *api.Client satisfies
// it.
type Completer interface {
	AuthorizeURL(ctx context.Context, serviceName string) (string, error)
	CompleteOAuth(ctx context.Context, serviceName, credential, state string) (*api.CompleteResult, error)
}

// ServiceLookup resolves catalog entries. *catalog.Cache satisfies it.
type ServiceLookup interface {
	Service(ctx context.Context, name string) (*api.Service, error)
}

// FlowController orchestrates service authorization end to end: strategy
// dispatch, browser interaction, state validation and the backend
// completion handshake.
type FlowController struct {
	catalog      ServiceLookup
	backend      Completer
	pending      *PendingStore
	clientID     func(family string) string
	callbackPort int
	openURL      func(string) error

	brokerMu sync.Mutex
	broker   CredentialBroker
}

// ControllerConfig configures the flow controller.
type ControllerConfig struct {
	// Catalog resolves service entries.
	Catalog ServiceLookup

	// Backend performs the completion handshake.
	Backend Completer

	// ClientID returns the configured OAuth client ID for a provider
	// family, or "" when unset.
	ClientID func(family string) string

	// CallbackPort is the local redirect listener port.
	CallbackPort int

	// OpenURL opens the authorization page. Defaults to OpenBrowser.
	OpenURL func(string) error

	// Broker overrides the Google credential broker. When nil one is
	// built lazily from the configured google client ID.
	Broker CredentialBroker
}

// NewFlowController creates a flow controller.
func NewFlowController(cfg ControllerConfig) *FlowController {
	openURL := cfg.OpenURL
	if openURL == nil {
		openURL = OpenBrowser
	}
	clientID := cfg.ClientID
	if clientID == nil {
		clientID = func(string) string { return "" }
	}

	return &FlowController{
		catalog:      cfg.Catalog,
		backend:      cfg.Backend,
		pending:      NewPendingStore(),
		clientID:     clientID,
		callbackPort: cfg.CallbackPort,
		openURL:      openURL,
		broker:       cfg.Broker,
	}
}

// StartFlow authorizes serviceName. It blocks until the flow completes,
// fails, or ctx is done.
func (f *FlowController) StartFlow(ctx context.Context, serviceName string) FlowResult {
	svc, err := f.catalog.Service(ctx, serviceName)
	if err != nil {
		if errors.Is(err, catalog.ErrCatalogUnavailable) {
			return failure("capability catalog unavailable", err)
		}
		return failure(
			fmt.Sprintf("unknown service %s", serviceName),
			fmt.Errorf("%w: %s", ErrUnknownService, serviceName),
		)
	}

	if !svc.RequiresOAuth {
		return FlowResult{Success: true, Reason: fmt.Sprintf("%s does not require authorization", serviceName)}
	}

	family, ok := familyFor(serviceName)
	if !ok {
		return failure(
			fmt.Sprintf("oauth is not implemented for %s", serviceName),
			fmt.Errorf("%w for %s", ErrNotImplemented, serviceName),
		)
	}

	flow, err := f.pending.Begin(serviceName)
	if err != nil {
		if errors.Is(err, ErrFlowInProgress) {
			return failure(
				fmt.Sprintf("an authorization flow for %s is already in progress", serviceName),
				err,
			)
		}
		return failure("failed to start authorization flow", err)
	}

	var result FlowResult
	switch family.Strategy {
	case strategyBrokered:
		result = f.runBrokered(ctx, flow, svc, family)
	case strategyRedirect:
		result = f.runRedirect(ctx, flow, svc, family)
	default:
		result = failure(
			fmt.Sprintf("oauth is not implemented for %s", serviceName),
			fmt.Errorf("%w for %s", ErrNotImplemented, serviceName),
		)
	}

	if !result.Success {
		f.pending.Cancel(serviceName)
	}
	return result
}

// runBrokered acquires an offline authorization code straight from the
// provider and forwards it to the backend.
func (f *FlowController) runBrokered(ctx context.Context, flow *PendingFlow, svc *api.Service, family providerFamily) FlowResult {
	broker, err := f.credentialBroker(family)
	if err != nil {
		return failure(
			fmt.Sprintf("no %s client ID configured", family.ConfigFamily),
			err,
		)
	}

	code, err := broker.RequestAuthorizationCode(ctx, flow.StateNonce, svc.OAuthConfig.Scopes)
	if err != nil {
		return brokerFailure(svc.Name, err)
	}

	if _, err := f.pending.Consume(svc.Name, flow.StateNonce); err != nil {
		return failure("authorization response could not be matched to the request", err)
	}

	return f.complete(ctx, svc.Name, code, flow.StateNonce)
}

// runRedirect opens the provider's authorization page in the browser
// and waits for the redirect on a local listener.
func (f *FlowController) runRedirect(ctx context.Context, flow *PendingFlow, svc *api.Service, family providerFamily) FlowResult {
	// fail before opening anything when the URL will need a client ID
	// we do not have
	if svc.OAuthConfig.AuthorizationEndpoint() != "" && f.clientID(family.ConfigFamily) == "" {
		return failure(
			fmt.Sprintf("no %s client ID configured", family.ConfigFamily),
			fmt.Errorf("%w: %s client ID not set", ErrMissingClientConfig, family.ConfigFamily),
		)
	}

	callback := NewCallbackServer(f.callbackPort)
	redirectURI, err := callback.Start(ctx)
	if err != nil {
		return failure("failed to start local callback listener", err)
	}
	defer callback.Stop()

	authURL, err := f.authorizationURL(ctx, svc, family, flow.StateNonce, redirectURI)
	if err != nil {
		if errors.Is(err, ErrMissingClientConfig) {
			return failure(fmt.Sprintf("no %s client ID configured", family.ConfigFamily), err)
		}
		return failure(fmt.Sprintf("failed to resolve authorization URL for %s", svc.Name), err)
	}

	if err := f.openURL(authURL); err != nil {
		return failure("failed to open the browser", err)
	}
	logging.Info("OAuth", "Waiting for %s authorization in the browser (flow %s)", svc.Name, flow.FlowID)

	waitCtx, cancel := context.WithTimeout(ctx, CallbackTimeout)
	defer cancel()

	result, err := callback.Wait(waitCtx)
	if err != nil {
		return failure(
			fmt.Sprintf("authorization was not completed: %v", err),
			fmt.Errorf("authorization was not completed: %w", err),
		)
	}

	if _, err := f.pending.Consume(svc.Name, result.State); err != nil {
		return failure("authorization response could not be matched to the request", err)
	}
	if result.Denied() {
		err := deniedError(svc.Name, result.Error, result.ErrorDescription)
		return failure(err.Error(), err)
	}
	if result.Code == "" {
		err := fmt.Errorf("%w: %s redirect carried no code", ErrProviderNoCode, svc.Name)
		return failure(err.Error(), err)
	}

	return f.complete(ctx, svc.Name, result.Code, flow.StateNonce)
}

// complete runs the backend handshake with the acquired credential.
func (f *FlowController) complete(ctx context.Context, serviceName, credential, state string) FlowResult {
	result, err := f.backend.CompleteOAuth(ctx, serviceName, credential, state)
	if err != nil {
		return failure(
			fmt.Sprintf("backend rejected the %s credential: %v", serviceName, err),
			err,
		)
	}
	if result != nil && !result.Success && result.Error != "" {
		return failure(
			fmt.Sprintf("backend rejected the %s credential: %s", serviceName, result.Error),
			errors.New(result.Error),
		)
	}

	logging.Info("OAuth", "Connected %s", serviceName)
	return FlowResult{Success: true, Reason: fmt.Sprintf("%s connected", serviceName)}
}

// authorizationURL builds the provider authorization URL, preferring
// the endpoint published in the capability catalog and falling back to
// the backend's authorize endpoint.
func (f *FlowController) authorizationURL(ctx context.Context, svc *api.Service, family providerFamily, state, redirectURI string) (string, error) {
	endpoint := svc.OAuthConfig.AuthorizationEndpoint()
	if endpoint == "" {
		backendURL, err := f.backend.AuthorizeURL(ctx, svc.Name)
		if err != nil {
			return "", err
		}
		return withFlowParams(backendURL, state, redirectURI)
	}

	clientID := f.clientID(family.ConfigFamily)
	if clientID == "" {
		return "", fmt.Errorf("%w: %s client ID not set", ErrMissingClientConfig, family.ConfigFamily)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid authorization endpoint for %s: %w", svc.Name, err)
	}

	params := url.Values{
		"response_type": {"code"},
		"client_id":     {clientID},
		"redirect_uri":  {redirectURI},
		"state":         {state},
	}
	if len(svc.OAuthConfig.Scopes) > 0 {
		params.Set("scope", strings.Join(svc.OAuthConfig.Scopes, " "))
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// withFlowParams stamps our state and redirect URI onto a
// backend-provided authorization URL.
func withFlowParams(rawURL, state, redirectURI string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorization URL: %w", err)
	}
	q := u.Query()
	q.Set("state", state)
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// credentialBroker returns the Google broker, building it on first use.
func (f *FlowController) credentialBroker(family providerFamily) (CredentialBroker, error) {
	f.brokerMu.Lock()
	defer f.brokerMu.Unlock()

	if f.broker != nil {
		return f.broker, nil
	}

	broker, err := NewGoogleBroker(GoogleBrokerConfig{
		ClientID:     f.clientID(family.ConfigFamily),
		CallbackPort: f.callbackPort,
		OpenURL:      f.openURL,
	})
	if err != nil {
		return nil, err
	}
	f.broker = broker
	return f.broker, nil
}

// brokerFailure maps a broker error onto a result.
func brokerFailure(serviceName string, err error) FlowResult {
	switch {
	case errors.Is(err, ErrProviderDenied),
		errors.Is(err, ErrProviderNoCode),
		errors.Is(err, ErrProviderNoToken),
		errors.Is(err, ErrStateMismatch):
		return failure(err.Error(), err)
	default:
		return failure(
			fmt.Sprintf("authorization with %s failed: %v", serviceName, err),
			err,
		)
	}
}

func failure(reason string, err error) FlowResult {
	return FlowResult{Reason: reason, Err: err}
}
