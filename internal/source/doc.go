// Package source provides the per-event array source that particle
// collections read their fields from.
//
// A collection binds each named branch once, at setup, and keeps the returned
// Array for the lifetime of the run. Arrays are views: they always read the
// event the source currently holds, so moving the source to the next event
// never requires rebinding. Binding a name the source does not carry fails
// with ErrMissingBranch.
//
// EventSource is the in-memory implementation; Decoder reads events from a
// JSON-lines stream (one Event object per line).
package source
