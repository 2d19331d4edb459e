// Package session holds the shared session credential (the backend bearer
// token) used by every outgoing REST call and by the realtime channel.
//
// The credential is a single last-write-wins value: there is no locking
// beyond the store's own mutex, and an in-flight request started before a
// credential change completes with the value it already captured. The store
// is cleared on explicit logout and when the backend rejects a call with an
// authorization failure.
//
// An optional fsnotify-based Watcher observes the persisted session file so
// that a login performed by a separate process (for example `area login` in
// another terminal while `area listen` is running) is picked up without a
// restart.
package session
