// Package config loads, normalizes, and validates recipebox configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and RECIPEBOX_BACKEND_TOKEN. The Config type centralizes
// every knob the HTTP server and CLI need, so the analysis endpoint, the
// recipe backend, the on-device store and the optional S3 image bucket are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
