package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ephemeralCallbackServer binds to a kernel-assigned port so parallel
// tests never collide.
func ephemeralCallbackServer() *CallbackServer {
	return NewCallbackServer(0)
}

func TestCallbackServerDeliversResult(t *testing.T) {
	server := ephemeralCallbackServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redirectURI, err := server.Start(ctx)
	require.NoError(t, err)
	defer server.Stop()

	assert.Equal(t, fmt.Sprintf("http://localhost:%d/callback", server.Port()), redirectURI)

	resp, err := http.Get(redirectURI + "?code=one-time-code&state=nonce-xyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "connected")

	result, err := server.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one-time-code", result.Code)
	assert.Equal(t, "nonce-xyz", result.State)
	assert.False(t, result.Denied())
}

func TestCallbackServerDeliversProviderError(t *testing.T) {
	server := ephemeralCallbackServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redirectURI, err := server.Start(ctx)
	require.NoError(t, err)
	defer server.Stop()

	resp, err := http.Get(redirectURI + "?error=access_denied&error_description=user+declined&state=nonce-xyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "access_denied")

	result, err := server.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, result.Denied())
	assert.Equal(t, "access_denied", result.Error)
	assert.Equal(t, "user declined", result.ErrorDescription)
	assert.Empty(t, result.Code)
}

func TestCallbackServerSecondHitRejected(t *testing.T) {
	server := ephemeralCallbackServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redirectURI, err := server.Start(ctx)
	require.NoError(t, err)
	defer server.Stop()

	resp, err := http.Get(redirectURI + "?code=first")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(redirectURI + "?code=second")
	if err != nil {
		// the server may already be down, which is just as final
		require.True(t, strings.Contains(err.Error(), "connection refused"))
		return
	}
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	server := ephemeralCallbackServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := server.Start(ctx)
	require.NoError(t, err)
	defer server.Stop()

	waitCtx, waitCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer waitCancel()

	_, err = server.Wait(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
