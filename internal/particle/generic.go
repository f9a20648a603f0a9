package particle

import (
	"fmt"
	"slices"

	"github.com/analysis-suite/objsel/internal/source"
)

// Generic is a named collection of candidates with pt/eta/phi/mass views and
// one index list per registered level.
type Generic struct {
	name  string
	pt    *source.Array[float32]
	eta   *source.Array[float32]
	phi   *source.Array[float32]
	mass  *source.Array[float32]
	lists map[Level]*[]int
	order []Level
}

// Setup binds <name>_pt, _eta, _phi and _mass. Bindings are made once; they
// follow the source from event to event.
func (g *Generic) Setup(name string, src source.Source) error {
	g.name = name
	var err error
	if g.pt, err = src.Floats(name + "_pt"); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if g.eta, err = src.Floats(name + "_eta"); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if g.phi, err = src.Floats(name + "_phi"); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if g.mass, err = src.Floats(name + "_mass"); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Name returns the branch prefix the collection was set up with.
func (g *Generic) Name() string { return g.name }

// Size returns the number of candidates in the current event, 0 if unbound.
func (g *Generic) Size() int {
	if g.pt == nil {
		return 0
	}
	return g.pt.Len()
}

// Pt returns candidate i's transverse momentum. Panics if i >= Size().
func (g *Generic) Pt(i int) float64 { return float64(g.pt.At(i)) }

// Eta returns candidate i's pseudorapidity.
func (g *Generic) Eta(i int) float64 { return float64(g.eta.At(i)) }

// Phi returns candidate i's azimuth.
func (g *Generic) Phi(i int) float64 { return float64(g.phi.At(i)) }

// Mass returns candidate i's mass.
func (g *Generic) Mass(i int) float64 { return float64(g.mass.At(i)) }

// SetupMap registers a level with an empty list.
func (g *Generic) SetupMap(level Level) {
	if g.lists == nil {
		g.lists = make(map[Level]*[]int)
	}
	if _, ok := g.lists[level]; ok {
		panic(fmt.Sprintf("particle %s: level %s registered twice", g.name, level))
	}
	g.lists[level] = new([]int)
	g.order = append(g.order, level)
}

// Levels returns the registered levels in registration order.
func (g *Generic) Levels() []Level { return slices.Clone(g.order) }

// Registered reports whether level has been set up.
func (g *Generic) Registered(level Level) bool {
	_, ok := g.lists[level]
	return ok
}

// List returns the current list for level. The slice must not be modified.
func (g *Generic) List(level Level) []int {
	return *g.listPtr(level)
}

// Len returns the length of the current list for level.
func (g *Generic) Len(level Level) int { return len(g.List(level)) }

// Add appends idx to level's current list. Indices must be in range and
// strictly increasing.
func (g *Generic) Add(level Level, idx int) {
	l := g.listPtr(level)
	if idx < 0 || idx >= g.Size() {
		panic(fmt.Errorf("particle %s: level %s: index %d outside [0,%d): %w", g.name, level, idx, g.Size(), ErrBadIndex))
	}
	if n := len(*l); n > 0 && (*l)[n-1] >= idx {
		panic(fmt.Errorf("particle %s: level %s: index %d after %d: %w", g.name, level, idx, (*l)[n-1], ErrBadIndex))
	}
	*l = append(*l, idx)
}

// Clear empties every list. Array bindings are kept.
func (g *Generic) Clear() {
	for _, l := range g.lists {
		*l = (*l)[:0]
	}
}

func (g *Generic) listPtr(level Level) *[]int {
	l, ok := g.lists[level]
	if !ok {
		panic(fmt.Errorf("particle %s: level %s: %w", g.name, level, ErrUnregisteredLevel))
	}
	return l
}
