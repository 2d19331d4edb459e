// Package oauth orchestrates service authorization flows against
// third-party identity providers.
//
// Two strategies exist, selected by provider family. Google-family
// services run a brokered flow: the broker talks to Google's endpoints
// directly, exchanges the authorization code locally and hands the
// backend the resulting credential. GitHub and Discord run a redirect
// flow: the system browser is opened on the provider's authorization
// page and a short-lived local HTTP server receives the redirect with
// the one-time code, which is forwarded to the backend for exchange.
//
// Every flow is tracked in a pending-flow store keyed by provider, with
// a single-use state nonce tying the callback to the request that
// opened it. FlowController.StartFlow is the entry point; it reports
// every outcome as a FlowResult and never returns a bare error across
// its boundary.
package oauth
