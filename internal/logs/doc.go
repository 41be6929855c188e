// Package logs reads recipebox log events for the CLI.
//
// StreamClient pulls structured events from a running `recipebox serve`
// instance through /api/logs. When no server answers, Tail reads the JSON
// log file directly so `recipebox logs` still works offline.
package logs
