// Package preflight provides readiness checks for the services and paths
// recipebox depends on.
//
// `recipebox serve` runs RunAll once at startup and logs each failed check
// as a warning. `recipebox doctor` prints every result, including whether a
// server currently holds the instance lock.
//
// Checks for optional features are skipped when the feature is not configured.
package preflight
