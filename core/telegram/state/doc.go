// Package state keeps per-user dialog state and routes text to the handler
// registered for the current state.
package state
