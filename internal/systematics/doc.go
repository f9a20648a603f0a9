// Package systematics enumerates the systematic variations an event is
// re-selected under.
//
// Every Systematic owns one bit of a selection bitmap, so the number of
// systematics is bounded by BitmapWidth. The bound is checked when the
// package compiles; adding a systematic past the width breaks the build.
//
// A Registry is the immutable subset of systematics enabled for a run. It is
// built once at start-up and shared read-only by the selection engine and
// the analyzer.
package systematics
