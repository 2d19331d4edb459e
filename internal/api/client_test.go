package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"area/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(session.StoreConfig{})
	require.NoError(t, err)
	return store
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		endpoint string
		want     string
	}{
		{
			name:     "trailing slash on base and leading slash on endpoint",
			baseURL:  "http://localhost:8000/",
			endpoint: "/areas/",
			want:     "http://localhost:8000/api/areas/",
		},
		{
			name:     "no stray slashes",
			baseURL:  "http://localhost:8000",
			endpoint: "areas/",
			want:     "http://localhost:8000/api/areas/",
		},
		{
			name:     "nested endpoint",
			baseURL:  "https://area.example.com",
			endpoint: "oauth/github/complete/",
			want:     "https://area.example.com/api/oauth/github/complete/",
		},
		{
			name:     "about document",
			baseURL:  "http://localhost:8000/",
			endpoint: "core/about.json",
			want:     "http://localhost:8000/api/core/about.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(ClientConfig{BaseURL: tt.baseURL})
			assert.Equal(t, tt.want, c.BuildURL(tt.endpoint))
		})
	}
}

func TestDoInjectsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := newTestStore(t)
	require.NoError(t, store.Set(session.Credential{AccessToken: "tok-abc"}))

	c := NewClient(ClientConfig{BaseURL: srv.URL, Sessions: store})
	require.NoError(t, c.Get(context.Background(), "areas/", nil))

	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestDoWithoutSessionOmitsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, c.Get(context.Background(), "core/about.json", nil))
	assert.Empty(t, gotAuth)
}

func TestDoUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "token expired"}`))
	}))
	defer srv.Close()

	store := newTestStore(t)
	require.NoError(t, store.Set(session.Credential{AccessToken: "stale"}))

	c := NewClient(ClientConfig{BaseURL: srv.URL, Sessions: store})
	err := c.Get(context.Background(), "areas/", nil)

	assert.ErrorIs(t, err, ErrAuthenticationExpired)
	assert.False(t, store.Authenticated(), "session must be cleared after 401")
}

func TestDoNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	assert.NoError(t, c.Delete(context.Background(), "areas/7/"))
}

func TestDoFieldValidationErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"email": ["This field is required."], "password": ["Too short."]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	err := c.Post(context.Background(), "auth/register/", map[string]string{}, nil)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Contains(t, reqErr.Error(), "Email: This field is required.")
	assert.Contains(t, reqErr.Error(), "Password: Too short.")
}

func TestDoDetailMessagePreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail": "area already exists"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	err := c.Post(context.Background(), "areas/", map[string]string{"name": "dup"}, nil)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "area already exists", reqErr.Message)
	assert.Equal(t, http.StatusConflict, reqErr.StatusCode)
}

func TestDoHTMLErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		for i := 0; i < 100; i++ {
			w.Write([]byte("<html>very long proxy error page</html>"))
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	err := c.Get(context.Background(), "areas/", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Less(t, len(err.Error()), 400, "error body preview must be truncated")
}

func TestDoHTMLOnSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>SPA fallback</html>"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	var out map[string]interface{}
	err := c.Get(context.Background(), "areas/", &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected HTML response")
}

func TestDoWrongContentTypeStillParsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(`{"name": "github"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Get(context.Background(), "whatever/", &out))
	assert.Equal(t, "github", out.Name)
}
