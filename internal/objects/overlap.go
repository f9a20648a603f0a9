package objects

import "maps"

// OverlapDR2 is the squared cone inside which a jet is attributed to a
// selected lepton.
const OverlapDR2 = 0.4 * 0.4

// Overlap maps a jet index to its smallest squared separation from a lepton
// selected in the current pass.
type Overlap map[int]float64

// Record notes that jet lies dr2 away from a selected lepton.
func (o Overlap) Record(jet int, dr2 float64) {
	if prev, ok := o[jet]; ok && prev <= dr2 {
		return
	}
	o[jet] = dr2
}

// Excludes reports whether jet sits inside the overlap cone of a lepton.
func (o Overlap) Excludes(jet int) bool {
	dr2, ok := o[jet]
	return ok && dr2 < OverlapDR2
}

// Merge returns a new Overlap holding the entries of o and other.
func (o Overlap) Merge(other Overlap) Overlap {
	out := maps.Clone(o)
	if out == nil {
		out = make(Overlap, len(other))
	}
	for jet, dr2 := range other {
		out.Record(jet, dr2)
	}
	return out
}
