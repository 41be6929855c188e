// Command recipebox digitizes recipe photos and manages the resulting library.
//
// `recipebox serve` runs the HTTP API (and the inbox watcher when an inbox
// directory is configured) behind a single-instance lock. The remaining
// commands operate directly on the configured backend and local cache.
package main
