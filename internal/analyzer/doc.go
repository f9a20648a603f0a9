// Package analyzer runs the per-event selection sweep: every enabled
// systematic re-derives muons, electrons and jets, the kinds fold their
// bitmaps, and the event variables, weights and output buffers are filled
// from the folded state.
package analyzer
