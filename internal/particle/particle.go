package particle

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/analysis-suite/objsel/internal/systematics"
)

// table holds one index list per systematic id.
type table [systematics.Count][]int

// Particle is a Generic collection whose level lists are kept separately for
// every systematic id and folded into per-candidate bitmaps.
type Particle struct {
	Generic

	tables  map[Level]*table
	bitmaps map[Level][]Bitmap
	aliases map[Level]Level

	current   systematics.Systematic
	variation systematics.Variation
	inPass    bool
	computed  uint32
	folded    bool
}

// SetupMap registers level with one empty list per systematic id.
func (p *Particle) SetupMap(level Level) {
	p.Generic.SetupMap(level)
	if p.tables == nil {
		p.tables = make(map[Level]*table)
		p.bitmaps = make(map[Level][]Bitmap)
	}
	t := new(table)
	p.tables[level] = t
	p.bitmaps[level] = nil
	p.lists[level] = &t[systematics.Nominal]
}

// Current returns the systematic of the open pass, or of the last pass once
// it has closed.
func (p *Particle) Current() systematics.Systematic { return p.current }

// InPass reports whether a SetGoodParticles pass is open.
func (p *Particle) InPass() bool { return p.inPass }

// Computed reports whether a pass for s has run since the last Clear.
func (p *Particle) Computed(s systematics.Systematic) bool {
	return p.computed&s.Bit() != 0
}

// Folded reports whether bitmaps reflect the current tables.
func (p *Particle) Folded() bool { return p.folded }

// Variation returns the current variation context: Central during a
// selection pass, afterwards the variation of the last scale-factor
// evaluation.
func (p *Particle) Variation() systematics.Variation { return p.variation }

// SetVariation changes the current variation context. Scale-factor methods
// set it to the variation they evaluate; SetGoodParticles resets it.
func (p *Particle) SetVariation(v systematics.Variation) { p.variation = v }

// List returns the active list for level: the list being built during a
// pass, or the last pass's list afterwards.
func (p *Particle) List(level Level) []int {
	return p.Generic.List(p.resolve(level))
}

// Len returns the length of the active list for level.
func (p *Particle) Len(level Level) int { return len(p.List(level)) }

// ListFor returns level's list for systematic s. Systematics not computed
// this event have an empty list.
func (p *Particle) ListFor(level Level, s systematics.Systematic) []int {
	if !s.Valid() {
		panic(fmt.Sprintf("particle %s: invalid systematic %d", p.name, int(s)))
	}
	return p.table(p.resolve(level))[s]
}

// Add appends idx to level's list for the open pass.
func (p *Particle) Add(level Level, idx int) {
	if !p.inPass {
		panic(fmt.Errorf("particle %s: add to %s: %w", p.name, level, ErrNoPass))
	}
	p.Generic.Add(p.resolve(level), idx)
}

// Bitmap returns level's per-candidate bitmap. Only valid after Fold.
func (p *Particle) Bitmap(level Level) []Bitmap {
	l := p.resolve(level)
	p.table(l)
	if !p.folded {
		panic(fmt.Errorf("particle %s: bitmap %s: %w", p.name, level, ErrNotFolded))
	}
	return p.bitmaps[l]
}

// Passes reports whether candidate idx passes level under systematic s.
func (p *Particle) Passes(level Level, idx int, s systematics.Systematic) bool {
	return p.Bitmap(level)[idx].Has(s)
}

// Members returns level's list for s as a roaring bitmap.
func (p *Particle) Members(level Level, s systematics.Systematic) *roaring.Bitmap {
	rb := roaring.New()
	for _, idx := range p.ListFor(level, s) {
		rb.Add(uint32(idx))
	}
	return rb
}

// Fold recomputes every level's bitmap from its tables. Folding twice
// without an intervening pass yields the same bitmaps.
func (p *Particle) Fold() {
	n := p.Size()
	for _, level := range p.order {
		bm := p.bitmaps[level][:0]
		bm = append(bm, make([]Bitmap, n)...)
		for s, list := range p.tables[level] {
			bit := Bitmap(systematics.Systematic(s).Bit())
			for _, idx := range list {
				bm[idx] |= bit
			}
		}
		p.bitmaps[level] = bm
	}
	p.folded = true
}

// Alias makes level `to` read and write through level `from`. The alias is
// resolved on every access, so later passes on `from` are visible via `to`.
func (p *Particle) Alias(from, to Level) {
	if from == to {
		panic(fmt.Sprintf("particle %s: alias %s onto itself", p.name, from))
	}
	target := p.resolve(from)
	p.table(target)
	if target == to {
		panic(fmt.Sprintf("particle %s: alias %s -> %s forms a cycle", p.name, to, from))
	}
	if p.aliases == nil {
		p.aliases = make(map[Level]Level)
	}
	p.aliases[to] = from
}

// AliasOf returns the level that reads of l resolve to.
func (p *Particle) AliasOf(l Level) Level { return p.resolve(l) }

// Clear resets tables and bitmaps for a new event. Registrations and aliases
// are kept.
func (p *Particle) Clear() {
	for level, t := range p.tables {
		for s := range t {
			t[s] = t[s][:0]
		}
		p.bitmaps[level] = p.bitmaps[level][:0]
		p.lists[level] = &t[systematics.Nominal]
	}
	p.current = systematics.Nominal
	p.variation = systematics.Central
	p.inPass = false
	p.computed = 0
	p.folded = false
}

func (p *Particle) beginPass(s systematics.Systematic) {
	if len(p.order) == 0 {
		panic(fmt.Errorf("particle %s: selection before any level: %w", p.name, ErrUnregisteredLevel))
	}
	if !s.Valid() {
		panic(fmt.Sprintf("particle %s: invalid systematic %d", p.name, int(s)))
	}
	p.variation = systematics.Central
	p.current = s
	for level, t := range p.tables {
		t[s] = t[s][:0]
		p.lists[level] = &t[s]
	}
	p.inPass = true
	p.computed |= s.Bit()
	p.folded = false
}

func (p *Particle) endPass() {
	p.inPass = false
}

func (p *Particle) table(level Level) *table {
	t, ok := p.tables[level]
	if !ok {
		panic(fmt.Errorf("particle %s: level %s: %w", p.name, level, ErrUnregisteredLevel))
	}
	return t
}

func (p *Particle) resolve(l Level) Level {
	for range len(p.aliases) + 1 {
		next, ok := p.aliases[l]
		if !ok {
			return l
		}
		l = next
	}
	panic(fmt.Sprintf("particle %s: alias cycle at %s", p.name, l))
}
