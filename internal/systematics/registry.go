package systematics

import (
	"fmt"
	"slices"
)

// Registry is the set of systematics enabled for a run, in enumeration
// order with Nominal first. A Registry is never mutated after construction.
type Registry struct {
	systs []Systematic
	mask  uint32
}

// NewRegistry builds a registry from systematic names. Nominal is always
// enabled and need not be listed; duplicates are ignored.
func NewRegistry(names []string) (*Registry, error) {
	enabled := [Count]bool{Nominal: true}
	for _, name := range names {
		s, err := Parse(name)
		if err != nil {
			return nil, err
		}
		enabled[s] = true
	}

	r := &Registry{}
	for i, on := range enabled {
		if !on {
			continue
		}
		s := Systematic(i)
		r.systs = append(r.systs, s)
		r.mask |= s.Bit()
	}
	if len(r.systs) > BitmapWidth {
		return nil, fmt.Errorf("%d systematics exceed bitmap width %d", len(r.systs), BitmapWidth)
	}
	return r, nil
}

// All returns a registry with every enumerated systematic enabled.
func All() *Registry {
	r := &Registry{systs: make([]Systematic, 0, Count)}
	for i := 0; i < Count; i++ {
		s := Systematic(i)
		r.systs = append(r.systs, s)
		r.mask |= s.Bit()
	}
	return r
}

// NominalOnly returns a registry with just the nominal pass.
func NominalOnly() *Registry {
	return &Registry{systs: []Systematic{Nominal}, mask: Nominal.Bit()}
}

// Systematics returns the enabled systematics in sweep order.
func (r *Registry) Systematics() []Systematic {
	return slices.Clone(r.systs)
}

// Len returns the number of enabled systematics.
func (r *Registry) Len() int { return len(r.systs) }

// Enabled reports whether s is part of the run.
func (r *Registry) Enabled(s Systematic) bool {
	return s.Valid() && r.mask&s.Bit() != 0
}

// Mask returns the OR of the bits of every enabled systematic.
func (r *Registry) Mask() uint32 { return r.mask }

// Variations returns the variations a systematic is evaluated under:
// Central for Nominal, Up and Down for everything else.
func (r *Registry) Variations(s Systematic) []Variation {
	if s == Nominal {
		return slices.Clone(nominalVariations)
	}
	return slices.Clone(shiftedVariations)
}

// Passes flattens the enabled systematics and their variations.
func (r *Registry) Passes() []Pass {
	passes := make([]Pass, 0, 2*len(r.systs))
	for _, s := range r.systs {
		for _, v := range r.Variations(s) {
			passes = append(passes, Pass{Systematic: s, Variation: v})
		}
	}
	return passes
}

// Names returns the canonical names of the enabled systematics.
func (r *Registry) Names() []string {
	out := make([]string, len(r.systs))
	for i, s := range r.systs {
		out[i] = s.String()
	}
	return out
}
