// Package oauth provides shared OAuth 2.0 helpers used by the area client:
// state-nonce generation for CSRF protection and PKCE challenge generation
// for public-client authorization code flows.
//
// These helpers are deliberately free of any provider-specific knowledge.
// Provider strategies and the flow controller live in internal/oauth.
package oauth
