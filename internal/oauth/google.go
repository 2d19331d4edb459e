package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"area/pkg/logging"
	pkgoauth "area/pkg/oauth"
)

// GoogleDiscoveryURL is Google's OIDC discovery document. The broker
// reads the authorization and token endpoints from it instead of
// hardcoding them.
const GoogleDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

// googleEndpoints is the subset of the discovery document the broker
// needs.
type googleEndpoints struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

// GoogleBroker runs authorization-code flows against Google for the
// google-family services. Endpoint discovery happens at most once per
// broker; concurrent first calls wait on the single in-flight
// initialization. Apart from that the broker keeps no state between
// calls.
type GoogleBroker struct {
	clientID     string
	callbackPort int
	discoveryURL string
	httpClient   *http.Client
	openURL      func(string) error

	initOnce  sync.Once
	endpoints *googleEndpoints
	initErr   error
}

// GoogleBrokerConfig configures the broker.
type GoogleBrokerConfig struct {
	// ClientID is the Google OAuth client ID. Required.
	ClientID string

	// CallbackPort is the port for the local redirect listener.
	// Defaults to DefaultCallbackPort.
	CallbackPort int

	// DiscoveryURL overrides the endpoint discovery document. Defaults
	// to GoogleDiscoveryURL.
	DiscoveryURL string

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client

	// OpenURL opens the authorization page. Defaults to OpenBrowser.
	OpenURL func(string) error
}

// NewGoogleBroker creates a broker. Returns ErrMissingClientConfig when
// no client ID is configured.
func NewGoogleBroker(cfg GoogleBrokerConfig) (*GoogleBroker, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: google client ID not set", ErrMissingClientConfig)
	}

	discoveryURL := cfg.DiscoveryURL
	if discoveryURL == "" {
		discoveryURL = GoogleDiscoveryURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	openURL := cfg.OpenURL
	if openURL == nil {
		openURL = OpenBrowser
	}

	return &GoogleBroker{
		clientID:     cfg.ClientID,
		callbackPort: cfg.CallbackPort,
		discoveryURL: discoveryURL,
		httpClient:   httpClient,
		openURL:      openURL,
	}, nil
}

// RequestToken runs the full flow and exchanges the code locally,
// returning the opaque access token.
func (b *GoogleBroker) RequestToken(ctx context.Context, state string, scopes []string) (string, error) {
	code, cfg, verifier, err := b.authorize(ctx, state, scopes, false)
	if err != nil {
		return "", err
	}

	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		// oauth2 reports a token response without an access_token as an
		// exchange error
		if strings.Contains(err.Error(), "missing access_token") {
			return "", fmt.Errorf("%w: google exchange yielded no access token", ErrProviderNoToken)
		}
		return "", fmt.Errorf("google token exchange failed: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: google exchange yielded an empty access token", ErrProviderNoToken)
	}
	return token.AccessToken, nil
}

// RequestAuthorizationCode runs the flow and returns the one-time code
// unexchanged. offline is requested with forced consent so whoever
// exchanges the code receives refresh credentials.
func (b *GoogleBroker) RequestAuthorizationCode(ctx context.Context, state string, scopes []string) (string, error) {
	code, _, _, err := b.authorize(ctx, state, scopes, true)
	return code, err
}

// authorize opens the browser on Google's authorization page and waits
// for the redirect. Returns the code plus the oauth2 config and PKCE
// verifier needed to exchange it.
func (b *GoogleBroker) authorize(ctx context.Context, state string, scopes []string, offline bool) (string, *oauth2.Config, string, error) {
	if err := b.init(ctx); err != nil {
		return "", nil, "", err
	}

	pkce, err := pkgoauth.GeneratePKCE()
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to generate PKCE challenge: %w", err)
	}

	callback := NewCallbackServer(b.callbackPort)
	redirectURI, err := callback.Start(ctx)
	if err != nil {
		return "", nil, "", err
	}
	defer callback.Stop()

	cfg := &oauth2.Config{
		ClientID:    b.clientID,
		RedirectURL: redirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  b.endpoints.AuthorizationEndpoint,
			TokenURL: b.endpoints.TokenEndpoint,
		},
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", pkce.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.CodeChallengeMethod),
	}
	if offline {
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	}
	authURL := cfg.AuthCodeURL(state, opts...)

	if err := b.openURL(authURL); err != nil {
		return "", nil, "", err
	}

	waitCtx, cancel := context.WithTimeout(ctx, CallbackTimeout)
	defer cancel()

	result, err := callback.Wait(waitCtx)
	if err != nil {
		return "", nil, "", fmt.Errorf("authorization was not completed: %w", err)
	}
	if result.State != state {
		return "", nil, "", ErrStateMismatch
	}
	if result.Denied() {
		return "", nil, "", deniedError("google", result.Error, result.ErrorDescription)
	}
	if result.Code == "" {
		return "", nil, "", fmt.Errorf("%w: google redirect carried no code", ErrProviderNoCode)
	}

	return result.Code, cfg, pkce.CodeVerifier, nil
}

// init fetches the discovery document exactly once.
func (b *GoogleBroker) init(ctx context.Context) error {
	b.initOnce.Do(func() {
		b.endpoints, b.initErr = b.discover(ctx)
		if b.initErr == nil {
			logging.Debug("OAuth", "Discovered google endpoints: auth=%s token=%s",
				b.endpoints.AuthorizationEndpoint, b.endpoints.TokenEndpoint)
		}
	})
	return b.initErr
}

func (b *GoogleBroker) discover(ctx context.Context) (*googleEndpoints, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.discoveryURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google endpoint discovery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google endpoint discovery returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var endpoints googleEndpoints
	if err := json.Unmarshal(body, &endpoints); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if endpoints.AuthorizationEndpoint == "" || endpoints.TokenEndpoint == "" {
		return nil, fmt.Errorf("discovery document missing endpoints")
	}
	return &endpoints, nil
}
