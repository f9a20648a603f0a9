package particle

import "github.com/analysis-suite/objsel/internal/systematics"

// Selector is implemented by every particle kind. DeriveSelections fills the
// active lists of the pass SetGoodParticles opened, in dependency order
// (Loose before the tiers refined from it). C is whatever the kind needs from
// other collections; kinds with no collaborator use struct{}.
type Selector[C any] interface {
	Particles() *Particle
	DeriveSelections(c C)
}

// SetGoodParticles runs one selection pass for systematic s: the variation
// context resets to Central, each level's active list is pointed at (and
// emptied in) its slot for s, and sel.DeriveSelections runs exactly once.
func SetGoodParticles[C any](sel Selector[C], s systematics.Systematic, c C) {
	p := sel.Particles()
	p.beginPass(s)
	sel.DeriveSelections(c)
	p.endPass()
}

// Sweep runs SetGoodParticles for every systematic in order, then folds.
func Sweep[C any](sel Selector[C], systs []systematics.Systematic, c C) {
	for _, s := range systs {
		SetGoodParticles(sel, s, c)
	}
	sel.Particles().Fold()
}
