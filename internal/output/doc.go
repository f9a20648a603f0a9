// Package output turns folded collections into flat per-event buffers and
// persists them.
//
// A fill keeps candidate i of a level when its bitmap shares a bit with the
// requested pass mask, and records the masked bitmap alongside the
// kinematics. Store writes runs and events to a SQLite database whose schema
// is managed by golang-migrate.
package output
