// Package progress tracks aggregated counters for a single scheduler run and
// exposes them to callers through a context-carried tracker. Every component
// that receives the context can update the counters via the Delta helper
// without requiring a global registry.
package progress
