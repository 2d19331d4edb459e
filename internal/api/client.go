package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"area/internal/session"
	"area/pkg/logging"
)

// DefaultHTTPTimeout bounds every backend request.
const DefaultHTTPTimeout = 30 * time.Second

// errorBodyPreviewLen caps how much of a non-JSON error body is quoted in
// error messages.
const errorBodyPreviewLen = 200

// Client is the generic REST client for the area backend. All resource
// wrappers (auth, areas, oauth) go through its Do method.
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client
	sessions   *session.Store
}

// ClientConfig configures the REST client.
type ClientConfig struct {
	// BaseURL is the backend origin, e.g. "http://localhost:8000".
	// Trailing slashes are tolerated.
	BaseURL string

	// Version is the path segment between the origin and every endpoint
	// (default "api").
	Version string

	// Sessions is the shared session credential store. May be nil for
	// unauthenticated use (e.g. fetching the public capability catalog).
	Sessions *session.Store

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// NewClient creates a REST client.
func NewClient(cfg ClientConfig) *Client {
	version := cfg.Version
	if version == "" {
		version = "api"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		version:    version,
		httpClient: httpClient,
		sessions:   cfg.Sessions,
	}
}

// BuildURL builds the full URL for an endpoint, guaranteeing exactly one
// "/" between the base URL, the version segment and the endpoint whatever
// the caller passed: base "http://localhost:8000/" with endpoint "/areas/"
// yields "http://localhost:8000/api/areas/".
func (c *Client) BuildURL(endpoint string) string {
	base := strings.TrimRight(c.baseURL, "/")
	cleanEndpoint := strings.TrimLeft(endpoint, "/")
	return base + "/" + c.version + "/" + cleanEndpoint
}

// Do performs a JSON request against the backend. body, when non-nil, is
// marshaled as the request body; out, when non-nil, receives the decoded
// response body. A 204 or empty response leaves out untouched.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	url := c.BuildURL(endpoint)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Every request captures the credential current at send time; a
	// concurrent credential change does not affect requests in flight.
	if c.sessions != nil {
		if token := c.sessions.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, endpoint, out)
}

// Get is shorthand for Do with http.MethodGet.
func (c *Client) Get(ctx context.Context, endpoint string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post is shorthand for Do with http.MethodPost.
func (c *Client) Post(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out)
}

// Put is shorthand for Do with http.MethodPut.
func (c *Client) Put(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out)
}

// Delete is shorthand for Do with http.MethodDelete.
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) handleResponse(resp *http.Response, endpoint string, out interface{}) error {
	// DELETE and some POST endpoints return 204 with no body.
	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return c.handleUnauthorized(endpoint)
	}

	contentType := resp.Header.Get("Content-Type")
	isJSON := strings.Contains(contentType, "application/json")

	if !isJSON {
		text := strings.TrimSpace(string(data))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			preview := previewBody(text)
			return &RequestError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("server returned %d (%s): %s", resp.StatusCode, resp.Status, preview),
			}
		}

		// A 200 that is not JSON (e.g. an HTML fallback page from a
		// misconfigured proxy) is an error for JSON endpoints.
		if strings.HasPrefix(text, "<") {
			return &RequestError{
				StatusCode: resp.StatusCode,
				Message:    "unexpected HTML response from API: " + previewBody(text),
			}
		}

		// The content-type header may simply be wrong; try JSON anyway.
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("unexpected non-JSON response from %s", endpoint)
			}
		}
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody map[string]interface{}
		if err := json.Unmarshal(data, &errBody); err == nil {
			if msg := messageFromBody(errBody); msg != "" {
				return &RequestError{StatusCode: resp.StatusCode, Message: msg}
			}
		}
		return &RequestError{StatusCode: resp.StatusCode}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}
	}
	return nil
}

// handleUnauthorized implements the session-expiry contract: clear the
// shared credential and surface the typed error. The caller's flow is
// aborted, never retried.
func (c *Client) handleUnauthorized(endpoint string) error {
	logging.Warn("API", "Authentication failed for %s, clearing session", endpoint)
	if c.sessions != nil {
		if err := c.sessions.Clear(); err != nil {
			logging.Error("API", err, "Failed to clear session after 401")
		}
	}
	return ErrAuthenticationExpired
}

func previewBody(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) > errorBodyPreviewLen {
		return collapsed[:errorBodyPreviewLen] + "..."
	}
	return collapsed
}
