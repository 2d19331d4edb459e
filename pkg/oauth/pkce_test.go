package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePKCE(t *testing.T) {
	pkce, err := GeneratePKCE()
	require.NoError(t, err)

	assert.Equal(t, "S256", pkce.CodeChallengeMethod)
	assert.NotEmpty(t, pkce.CodeVerifier)
	assert.NotEmpty(t, pkce.CodeChallenge)

	// Challenge must be the base64url-encoded SHA256 of the verifier.
	hash := sha256.Sum256([]byte(pkce.CodeVerifier))
	expected := base64.RawURLEncoding.EncodeToString(hash[:])
	assert.Equal(t, expected, pkce.CodeChallenge)
}

func TestGeneratePKCEUnique(t *testing.T) {
	a, err := GeneratePKCE()
	require.NoError(t, err)
	b, err := GeneratePKCE()
	require.NoError(t, err)

	assert.NotEqual(t, a.CodeVerifier, b.CodeVerifier)
	assert.NotEqual(t, a.CodeChallenge, b.CodeChallenge)
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	require.NoError(t, err)

	// 32 random bytes encode to 43 base64url characters.
	assert.Len(t, state, 43)

	// Must decode cleanly as base64url.
	_, err = base64.RawURLEncoding.DecodeString(state)
	assert.NoError(t, err)
}

func TestGenerateStateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := GenerateState()
		require.NoError(t, err)
		assert.False(t, seen[state], "state %q generated twice", state)
		seen[state] = true
	}
}
