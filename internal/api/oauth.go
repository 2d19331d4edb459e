package api

import (
	"context"
	"fmt"
	"strings"
)

// ConnectionStatuses returns the OAuth connection status of every service,
// keyed by service name.
func (c *Client) ConnectionStatuses(ctx context.Context) (map[string]ConnectionStatus, error) {
	var statuses map[string]ConnectionStatus
	if err := c.Get(ctx, "oauth/status/", &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// AuthorizeURL asks the backend for the authorization URL of a service.
func (c *Client) AuthorizeURL(ctx context.Context, serviceName string) (string, error) {
	var resp struct {
		AuthorizationURL string `json:"authorization_url"`
		URL              string `json:"url"`
	}
	if err := c.Get(ctx, fmt.Sprintf("oauth/%s/authorize/", serviceName), &resp); err != nil {
		return "", err
	}
	if resp.AuthorizationURL != "" {
		return resp.AuthorizationURL, nil
	}
	return resp.URL, nil
}

// usesAuthorizationCode reports whether a service's completion handshake
// carries an authorization code rather than an access token. GitHub,
// Discord and every Google product variant run code flows; the backend
// exchanges the code itself so it can hold refresh credentials.
func usesAuthorizationCode(serviceName string) bool {
	return serviceName == "github" ||
		serviceName == "discord" ||
		strings.HasPrefix(serviceName, "google")
}

// CompleteOAuth forwards a provider credential to the backend, which
// validates it, exchanges it if it is a code, and persists the resulting
// connection. state echoes the nonce of the flow that produced the
// credential; it may be empty for brokered flows that carry no redirect.
func (c *Client) CompleteOAuth(ctx context.Context, serviceName, credential, state string) (*CompleteResult, error) {
	payload := map[string]string{}
	if state != "" {
		payload["state"] = state
	}
	if usesAuthorizationCode(serviceName) {
		payload["code"] = credential
	} else {
		payload["access_token"] = credential
	}

	var result CompleteResult
	if err := c.Post(ctx, fmt.Sprintf("oauth/%s/complete/", serviceName), payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DisconnectService revokes a service connection.
func (c *Client) DisconnectService(ctx context.Context, serviceName string) error {
	return c.Delete(ctx, fmt.Sprintf("oauth/%s/disconnect/", serviceName))
}

// RefreshServiceToken asks the backend to refresh its stored token for a
// service.
func (c *Client) RefreshServiceToken(ctx context.Context, serviceName string) error {
	return c.Post(ctx, fmt.Sprintf("oauth/%s/refresh/", serviceName), nil, nil)
}
