package output

import (
	"github.com/analysis-suite/objsel/internal/objects"
	"github.com/analysis-suite/objsel/internal/particle"
	"github.com/analysis-suite/objsel/internal/systematics"
)

// PDG identifiers written for leptons.
const (
	PdgElectron = 11
	PdgMuon     = 13
)

// Collection is what a fill reads: kinematics and a folded level bitmap.
type Collection interface {
	Size() int
	Pt(i int) float64
	Eta(i int) float64
	Phi(i int) float64
	Mass(i int) float64
	Bitmap(level particle.Level) []particle.Bitmap
}

// ParticleOut is a flat buffer of candidates.
type ParticleOut struct {
	Pt         []float64 `json:"pt"`
	Eta        []float64 `json:"eta"`
	Phi        []float64 `json:"phi"`
	Mass       []float64 `json:"mass"`
	SystBitmap []uint32  `json:"syst_bitmap"`
}

// Len returns the number of filled candidates.
func (o *ParticleOut) Len() int { return len(o.Pt) }

// Reset empties the buffer, keeping its capacity.
func (o *ParticleOut) Reset() {
	o.Pt = o.Pt[:0]
	o.Eta = o.Eta[:0]
	o.Phi = o.Phi[:0]
	o.Mass = o.Mass[:0]
	o.SystBitmap = o.SystBitmap[:0]
}

func (o *ParticleOut) append(c Collection, i int, bits uint32) {
	o.Pt = append(o.Pt, c.Pt(i))
	o.Eta = append(o.Eta, c.Eta(i))
	o.Phi = append(o.Phi, c.Phi(i))
	o.Mass = append(o.Mass, c.Mass(i))
	o.SystBitmap = append(o.SystBitmap, bits)
}

// FillParticle appends every candidate of level passing some systematic in
// pass, in index order.
func FillParticle(c Collection, level particle.Level, out *ParticleOut, pass uint32) {
	for i, bm := range c.Bitmap(level) {
		if bits := uint32(bm) & pass; bits != 0 {
			out.append(c, i, bits)
		}
	}
}

// FillParticleAt appends candidate i if it passes level under some
// systematic in pass. It returns the masked bitmap, 0 when nothing was
// appended.
func FillParticleAt(c Collection, level particle.Level, i int, out *ParticleOut, pass uint32) uint32 {
	bits := uint32(c.Bitmap(level)[i]) & pass
	if bits != 0 {
		out.append(c, i, bits)
	}
	return bits
}

// BJetOut adds the b-tag discriminant and the per-systematic b-tag
// multiplicities to ParticleOut.
type BJetOut struct {
	ParticleOut
	Discriminator []float64 `json:"discriminator"`
	// Counts is indexed by systematic id; only ids in the fill mask are set.
	Counts [systematics.Count]objects.BTagCounts `json:"-"`
}

// Reset empties the buffer.
func (o *BJetOut) Reset() {
	o.ParticleOut.Reset()
	o.Discriminator = o.Discriminator[:0]
	o.Counts = [systematics.Count]objects.BTagCounts{}
}

// FillBJet fills jets of level passing pass, with their discriminants, and
// copies the b-tag counts of every systematic in pass.
func FillBJet(jets *objects.Jet, level particle.Level, out *BJetOut, pass uint32) {
	for i := range jets.Size() {
		if FillParticleAt(jets, level, i, &out.ParticleOut, pass) != 0 {
			out.Discriminator = append(out.Discriminator, jets.BTag(i))
		}
	}
	for s := range systematics.Count {
		if syst := systematics.Systematic(s); pass&syst.Bit() != 0 {
			out.Counts[s] = jets.BTagCounts(syst)
		}
	}
}

// LeptonOut adds the PDG identifier to ParticleOut.
type LeptonOut struct {
	ParticleOut
	PdgID []int32 `json:"pdg_id"`
}

// Reset empties the buffer.
func (o *LeptonOut) Reset() {
	o.ParticleOut.Reset()
	o.PdgID = o.PdgID[:0]
}

// FillLeptons fills muons then electrons of level passing pass.
func FillLeptons(muons *objects.Muon, electrons *objects.Electron, level particle.Level, out *LeptonOut, pass uint32) {
	fill := func(c Collection, pdg int32) {
		for i := range c.Size() {
			if FillParticleAt(c, level, i, &out.ParticleOut, pass) != 0 {
				out.PdgID = append(out.PdgID, pdg)
			}
		}
	}
	fill(muons, PdgMuon)
	fill(electrons, PdgElectron)
}
