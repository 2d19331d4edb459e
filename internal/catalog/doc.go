// Package catalog caches the backend capability catalog: the set of
// services the platform integrates, each with its OAuth requirements and
// the actions/reactions it offers.
//
// The catalog is fetched at most once per process; concurrent first
// lookups share a single in-flight fetch, and every later lookup is
// served from memory until Invalidate is called.
package catalog
