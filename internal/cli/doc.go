// Package cli holds the building blocks shared by the cobra commands:
// typed user-facing errors mapped to exit codes, table rendering and
// progress output.
package cli
