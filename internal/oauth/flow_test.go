package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"area/internal/api"
	"area/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	mu       sync.Mutex
	services map[string]*api.Service
	err      error
	calls    int
}

func (f *fakeLookup) Service(ctx context.Context, name string) (*api.Service, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	svc, ok := f.services[name]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", name)
	}
	return svc, nil
}

type completion struct {
	service    string
	credential string
	state      string
}

type fakeBackend struct {
	mu           sync.Mutex
	authorizeURL string
	authorizeErr error
	completions  []completion
	completeErr  error
	result       *api.CompleteResult
}

func (f *fakeBackend) AuthorizeURL(ctx context.Context, serviceName string) (string, error) {
	return f.authorizeURL, f.authorizeErr
}

func (f *fakeBackend) CompleteOAuth(ctx context.Context, serviceName, credential, state string) (*api.CompleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, completion{serviceName, credential, state})
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &api.CompleteResult{Success: true}, nil
}

func (f *fakeBackend) completed() []completion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]completion(nil), f.completions...)
}

type fakeBroker struct {
	code string
	err  error
}

func (f *fakeBroker) RequestAuthorizationCode(ctx context.Context, state string, scopes []string) (string, error) {
	return f.code, f.err
}

func (f *fakeBroker) RequestToken(ctx context.Context, state string, scopes []string) (string, error) {
	return f.code, f.err
}

func githubService() *api.Service {
	return &api.Service{
		Name:          "github",
		RequiresOAuth: true,
		OAuthConfig: api.OAuthConfig{
			AuthorizationURL: "https://github.com/login/oauth/authorize",
			Scopes:           []string{"repo", "user"},
		},
	}
}

// browse simulates the user completing authorization: it follows the
// redirect URI embedded in the authorization URL with the given
// callback parameters.
func browse(t *testing.T, authURL string, params url.Values) {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	redirectURI := u.Query().Get("redirect_uri")
	require.NotEmpty(t, redirectURI)

	resp, err := http.Get(redirectURI + "?" + params.Encode())
	require.NoError(t, err)
	resp.Body.Close()
}

func TestStartFlowNotImplementedProvider(t *testing.T) {
	backend := &fakeBackend{}
	controller := NewFlowController(ControllerConfig{
		Catalog: &fakeLookup{services: map[string]*api.Service{
			"spotify": {Name: "spotify", RequiresOAuth: true},
		}},
		Backend: backend,
		OpenURL: func(string) error {
			t.Fatal("browser must not be opened for an unlisted provider")
			return nil
		},
	})

	result := controller.StartFlow(context.Background(), "spotify")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrNotImplemented)
	assert.Contains(t, result.Reason, "spotify")
	assert.Empty(t, backend.completed())
}

func TestStartFlowUnknownService(t *testing.T) {
	tests := []string{"github", "spotify"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			controller := NewFlowController(ControllerConfig{
				Catalog: &fakeLookup{services: map[string]*api.Service{}},
				Backend: &fakeBackend{},
			})

			result := controller.StartFlow(context.Background(), name)

			assert.False(t, result.Success)
			assert.ErrorIs(t, result.Err, ErrUnknownService)
		})
	}
}

func TestStartFlowCatalogUnavailable(t *testing.T) {
	controller := NewFlowController(ControllerConfig{
		Catalog: &fakeLookup{err: fmt.Errorf("%w: backend down", catalog.ErrCatalogUnavailable)},
		Backend: &fakeBackend{},
	})

	result := controller.StartFlow(context.Background(), "github")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, catalog.ErrCatalogUnavailable)
}

func TestStartFlowServiceWithoutOAuth(t *testing.T) {
	// "timer" sits outside the provider family table: the requires_oauth
	// short-circuit must win before any provider dispatch happens.
	tests := []string{"github", "timer"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			controller := NewFlowController(ControllerConfig{
				Catalog: &fakeLookup{services: map[string]*api.Service{
					name: {Name: name, RequiresOAuth: false},
				}},
				Backend: &fakeBackend{},
			})

			result := controller.StartFlow(context.Background(), name)

			assert.True(t, result.Success, "reason: %s err: %v", result.Reason, result.Err)
			assert.Contains(t, result.Reason, "does not require authorization")
		})
	}
}

func TestStartFlowMissingClientID(t *testing.T) {
	opened := false
	controller := NewFlowController(ControllerConfig{
		Catalog:  &fakeLookup{services: map[string]*api.Service{"github": githubService()}},
		Backend:  &fakeBackend{},
		ClientID: func(string) string { return "" },
		OpenURL: func(string) error {
			opened = true
			return nil
		},
	})

	result := controller.StartFlow(context.Background(), "github")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrMissingClientConfig)
	assert.False(t, opened)
}

func TestStartFlowRedirectSuccess(t *testing.T) {
	backend := &fakeBackend{}
	controller := NewFlowController(ControllerConfig{
		Catalog:  &fakeLookup{services: map[string]*api.Service{"github": githubService()}},
		Backend:  backend,
		ClientID: func(family string) string { return "client-" + family },
		OpenURL: func(authURL string) error {
			u, err := url.Parse(authURL)
			require.NoError(t, err)
			q := u.Query()
			assert.Equal(t, "client-github", q.Get("client_id"))
			assert.Equal(t, "code", q.Get("response_type"))
			assert.Equal(t, "repo user", q.Get("scope"))
			require.NotEmpty(t, q.Get("state"))

			go browse(t, authURL, url.Values{
				"code":  {"gh-code-1"},
				"state": {q.Get("state")},
			})
			return nil
		},
	})

	result := controller.StartFlow(context.Background(), "github")

	require.True(t, result.Success, "reason: %s err: %v", result.Reason, result.Err)
	completions := backend.completed()
	require.Len(t, completions, 1)
	assert.Equal(t, "github", completions[0].service)
	assert.Equal(t, "gh-code-1", completions[0].credential)
	assert.NotEmpty(t, completions[0].state)
}

func TestStartFlowRedirectProviderDenied(t *testing.T) {
	backend := &fakeBackend{}
	controller := NewFlowController(ControllerConfig{
		Catalog:  &fakeLookup{services: map[string]*api.Service{"github": githubService()}},
		Backend:  backend,
		ClientID: func(string) string { return "client" },
		OpenURL: func(authURL string) error {
			u, err := url.Parse(authURL)
			require.NoError(t, err)
			go browse(t, authURL, url.Values{
				"error": {"access_denied"},
				"state": {u.Query().Get("state")},
			})
			return nil
		},
	})

	result := controller.StartFlow(context.Background(), "github")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrProviderDenied)
	assert.Contains(t, result.Reason, "allow-listed")
	assert.Empty(t, backend.completed())
}

func TestStartFlowRedirectStateMismatch(t *testing.T) {
	backend := &fakeBackend{}
	controller := NewFlowController(ControllerConfig{
		Catalog:  &fakeLookup{services: map[string]*api.Service{"github": githubService()}},
		Backend:  backend,
		ClientID: func(string) string { return "client" },
		OpenURL: func(authURL string) error {
			go browse(t, authURL, url.Values{
				"code":  {"gh-code"},
				"state": {"forged-state"},
			})
			return nil
		},
	})

	result := controller.StartFlow(context.Background(), "github")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrStateMismatch)
	assert.Empty(t, backend.completed())
}

func TestStartFlowCancelledWhileWaiting(t *testing.T) {
	controller := NewFlowController(ControllerConfig{
		Catalog:  &fakeLookup{services: map[string]*api.Service{"github": githubService()}},
		Backend:  &fakeBackend{},
		ClientID: func(string) string { return "client" },
		OpenURL:  func(string) error { return nil },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result := controller.StartFlow(ctx, "github")

	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "not completed")
	// the provider is free again for the next attempt
	assert.NoError(t, func() error {
		_, err := controller.pending.Begin("github")
		return err
	}())
}

func TestStartFlowRejectsConcurrentFlowForProvider(t *testing.T) {
	browsing := make(chan string, 1)
	backend := &fakeBackend{}
	controller := NewFlowController(ControllerConfig{
		Catalog:  &fakeLookup{services: map[string]*api.Service{"github": githubService()}},
		Backend:  backend,
		ClientID: func(string) string { return "client" },
		OpenURL: func(authURL string) error {
			browsing <- authURL
			return nil
		},
	})

	done := make(chan FlowResult, 1)
	go func() {
		done <- controller.StartFlow(context.Background(), "github")
	}()

	authURL := <-browsing

	second := controller.StartFlow(context.Background(), "github")
	assert.False(t, second.Success)
	assert.ErrorIs(t, second.Err, ErrFlowInProgress)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	browse(t, authURL, url.Values{
		"code":  {"gh-code"},
		"state": {u.Query().Get("state")},
	})

	first := <-done
	assert.True(t, first.Success, "reason: %s err: %v", first.Reason, first.Err)
}

func TestStartFlowBrokeredSuccess(t *testing.T) {
	backend := &fakeBackend{}
	controller := NewFlowController(ControllerConfig{
		Catalog: &fakeLookup{services: map[string]*api.Service{
			"google_calendar": {
				Name:          "google_calendar",
				RequiresOAuth: true,
				OAuthConfig:   api.OAuthConfig{Scopes: []string{"calendar.readonly"}},
			},
		}},
		Backend: backend,
		Broker:  &fakeBroker{code: "google-code-1"},
	})

	result := controller.StartFlow(context.Background(), "google_calendar")

	require.True(t, result.Success, "reason: %s err: %v", result.Reason, result.Err)
	completions := backend.completed()
	require.Len(t, completions, 1)
	assert.Equal(t, "google_calendar", completions[0].service)
	assert.Equal(t, "google-code-1", completions[0].credential)
}

func TestStartFlowBrokeredProviderError(t *testing.T) {
	backend := &fakeBackend{}
	controller := NewFlowController(ControllerConfig{
		Catalog: &fakeLookup{services: map[string]*api.Service{
			"google": {Name: "google", RequiresOAuth: true},
		}},
		Backend: backend,
		Broker:  &fakeBroker{err: fmt.Errorf("%w: google reported access_denied", ErrProviderDenied)},
	})

	result := controller.StartFlow(context.Background(), "google")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrProviderDenied)
	assert.Empty(t, backend.completed())
}

func TestStartFlowBrokeredMissingClientID(t *testing.T) {
	controller := NewFlowController(ControllerConfig{
		Catalog: &fakeLookup{services: map[string]*api.Service{
			"google": {Name: "google", RequiresOAuth: true},
		}},
		Backend:  &fakeBackend{},
		ClientID: func(string) string { return "" },
	})

	result := controller.StartFlow(context.Background(), "google")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrMissingClientConfig)
}

func TestStartFlowBackendRejectsCredential(t *testing.T) {
	backend := &fakeBackend{completeErr: errors.New("invalid code")}
	controller := NewFlowController(ControllerConfig{
		Catalog: &fakeLookup{services: map[string]*api.Service{
			"google": {Name: "google", RequiresOAuth: true},
		}},
		Backend: backend,
		Broker:  &fakeBroker{code: "stale-code"},
	})

	result := controller.StartFlow(context.Background(), "google")

	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "rejected")
}
