package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// pkceVerifierBytes is the number of random bytes for the PKCE code
	// verifier. 32 bytes provides 256 bits of entropy.
	pkceVerifierBytes = 32

	// stateBytes is the number of random bytes for the OAuth state
	// parameter. 32 bytes encodes to 43 base64url characters, satisfying
	// providers that require a minimum of 32 characters.
	stateBytes = 32
)

// PKCEChallenge holds the parameters of a PKCE (Proof Key for Code
// Exchange) challenge. PKCE protects public clients against authorization
// code interception.
type PKCEChallenge struct {
	// CodeVerifier is the cryptographically random secret. It is never
	// included in the authorization request.
	CodeVerifier string

	// CodeChallenge is the SHA256 hash of the verifier, base64url-encoded.
	// This is what the authorization request carries.
	CodeChallenge string

	// CodeChallengeMethod is always "S256"; the plain method is not used.
	CodeChallengeMethod string
}

// GeneratePKCE generates a new PKCE code verifier and its S256 challenge.
func GeneratePKCE() (*PKCEChallenge, error) {
	verifierBytes := make([]byte, pkceVerifierBytes)
	if _, err := rand.Read(verifierBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes for PKCE: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(verifierBytes)
	hash := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(hash[:])

	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       challenge,
		CodeChallengeMethod: "S256",
	}, nil
}

// GenerateState generates a random state parameter for an OAuth
// authorization request. The state binds the provider callback to the flow
// that initiated it and prevents CSRF.
//
// Returns a base64url-encoded random string.
func GenerateState() (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
