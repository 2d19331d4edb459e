// Package api implements the REST client for the area backend.
//
// It provides the generic request helper (URL construction, JSON
// round-tripping, bearer-token injection, error decoding) and thin
// resource wrappers for the authentication, area and OAuth endpoint
// groups.
//
// One cross-cutting behavior lives here: when the backend rejects a call
// with 401 Unauthorized, the shared session credential is cleared and the
// typed ErrAuthenticationExpired is returned. Callers must treat the flow
// the call belonged to as aborted rather than retrying it.
package api
