// Package particle owns the systematic-aware selection engine.
//
// A Generic collection binds pt/eta/phi/mass for a named object kind and
// keeps one index list per registered selection Level. A Particle extends it
// with a table of lists per systematic id and a folded per-candidate Bitmap:
//
//	bitmap[level][i] == OR over k of (i in table[level][k]) << k
//
// Lifecycle per event:
//
//	Clear -> SetGoodParticles once per systematic id -> Fold -> read-only queries
//
// SetGoodParticles opens a pass for one systematic, points each level's
// active list at that systematic's slot, and hands control to the kind's
// Selector exactly once. Lists only grow through Add, which enforces the
// strictly-increasing index invariant.
//
// Contract violations (unregistered level, Add outside a pass, reading a
// bitmap before Fold) panic with errors wrapping the package sentinels.
// They are programming errors, not data errors.
package particle
