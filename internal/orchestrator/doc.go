// Package orchestrator owns the active recipe slot and the current view.
//
// The Orchestrator sequences every side effect triggered by user intent:
// image analysis, servings rescale, persistence and library edits. All state
// lives behind one mutex; network calls run on the caller's goroutine and
// re-enter state through the same lock, so a response that arrives after the
// slot has moved on is dropped instead of overwriting newer state.
//
// Fire-and-forget persistence runs on tracked goroutines. Close cancels them
// and waits, after which no callback mutates state.
package orchestrator
