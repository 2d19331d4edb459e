// Package realtime maintains the websocket notification channel to the
// backend. A single connection is multiplexed to any number of
// listeners through a typed pub/sub registry; the channel reconnects
// on unexpected closes with linear backoff and gives up after a fixed
// number of attempts.
package realtime
