package objects

import (
	"fmt"
	"math"

	"github.com/analysis-suite/objsel/internal/kinematics"
	"github.com/analysis-suite/objsel/internal/particle"
	"github.com/analysis-suite/objsel/internal/source"
)

// Lepton cuts shared by muons and electrons.
const (
	LeptonLooseIso  = 0.4
	LeptonMaxDz     = 0.1
	LeptonMaxDxy    = 0.05
	LeptonMaxSip3d  = 4.0
	LeptonFakeModPt = 10.0
	LeptonTightPt   = 15.0
)

// noJet marks a lepton with no jet in the event.
const noJet = -1

// Lepton is the part of a lepton collection shared by Muon and Electron:
// impact parameters, isolation and the close-jet quantities behind the
// Fake and Tight tiers.
type Lepton struct {
	particle.Particle

	dz          *source.Array[float32]
	dxy         *source.Array[float32]
	iso         *source.Array[float32]
	sip3d       *source.Array[float32]
	tightCharge *source.Array[int32]

	isoCut     float64
	ptRatioCut float64
	ptRelCut   float64

	// Per-pass state, sized to the collection at the start of a pass.
	closeJet     []int
	closeJetDR2  []float64
	fakePtFactor []float64
	overlap      Overlap
}

func (l *Lepton) setup(name string, src source.Source, isoCut, ptRatioCut, ptRelCut float64) error {
	if err := l.Particle.Setup(name, src); err != nil {
		return err
	}
	var err error
	bindF := func(dst **source.Array[float32], branch string) {
		if err == nil {
			*dst, err = src.Floats(name + "_" + branch)
		}
	}
	bindF(&l.dz, "dz")
	bindF(&l.dxy, "dxy")
	bindF(&l.iso, "miniPFRelIso_all")
	bindF(&l.sip3d, "sip3d")
	if err == nil {
		l.tightCharge, err = src.Ints(name + "_tightCharge")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	l.isoCut, l.ptRatioCut, l.ptRelCut = isoCut, ptRatioCut, ptRelCut
	l.SetupMap(particle.Loose)
	l.SetupMap(particle.Fake)
	l.SetupMap(particle.Tight)
	return nil
}

// Particles implements particle.Selector.
func (l *Lepton) Particles() *particle.Particle { return &l.Particle }

// Iso returns lepton i's mini relative isolation.
func (l *Lepton) Iso(i int) float64 { return float64(l.iso.At(i)) }

// Overlap returns the jets recorded by Fake promotions of the last pass.
func (l *Lepton) Overlap() Overlap { return l.overlap }

// ModPt returns lepton i's pt scaled by its fake-pt factor from the last
// pass, or the plain pt if it never reached the fake selection.
func (l *Lepton) ModPt(i int) float64 {
	if i < len(l.fakePtFactor) && l.fakePtFactor[i] > 0 {
		return l.Pt(i) * l.fakePtFactor[i]
	}
	return l.Pt(i)
}

// CloseJet returns the jet closest to lepton i and their squared
// separation, or -1 when the event has no jets.
func (l *Lepton) CloseJet(i int, jets *Jet) (int, float64) {
	if i < len(l.closeJet) && l.closeJet[i] != noJet {
		return l.closeJet[i], l.closeJetDR2[i]
	}
	best, bestDR2 := noJet, math.Inf(1)
	lep := l.p4(i)
	for k := range jets.Size() {
		if dr2 := kinematics.DeltaR2(lep, jets.P4Under(l.Current(), k)); dr2 < bestDR2 {
			best, bestDR2 = k, dr2
		}
	}
	if i < len(l.closeJet) {
		l.closeJet[i], l.closeJetDR2[i] = best, bestDR2
	}
	return best, bestDR2
}

// PtRatio returns pt over the close-jet pt, 1 when there is no close jet.
func (l *Lepton) PtRatio(i int, jets *Jet) float64 {
	k, _ := l.CloseJet(i, jets)
	if k == noJet {
		return 1
	}
	return l.Pt(i) / jets.PtUnder(l.Current(), k)
}

// PtRel2 returns the squared lepton momentum transverse to the close jet
// with the lepton removed, 0 when there is no close jet.
func (l *Lepton) PtRel2(i int, jets *Jet) float64 {
	k, _ := l.CloseJet(i, jets)
	if k == noJet {
		return 0
	}
	return kinematics.PtRel2(l.p4(i), jets.P4Under(l.Current(), k))
}

// PassJetIsolation reports whether lepton i is isolated from jet activity:
// its close jet is either dominated by the lepton or the lepton is hard
// relative to it. A lepton with no close jet passes.
func (l *Lepton) PassJetIsolation(i int, jets *Jet) bool {
	if k, _ := l.CloseJet(i, jets); k == noJet {
		return true
	}
	return l.PtRatio(i, jets) > l.ptRatioCut || l.PtRel2(i, jets) > l.ptRelCut
}

// FakePtFactor returns the factor applied to lepton i's pt for the fake
// selection: 1+max(0, iso-isoCut) when jet-isolated, otherwise the close-jet
// pt scaled by the ptRatio cut, never below 1.
func (l *Lepton) FakePtFactor(i int, jets *Jet) float64 {
	if l.PassJetIsolation(i, jets) {
		return 1 + math.Max(0, l.Iso(i)-l.isoCut)
	}
	k, _ := l.CloseJet(i, jets)
	return math.Max(1, jets.PtUnder(l.Current(), k)*l.ptRatioCut/l.Pt(i))
}

// beginDerive resets the per-pass state. Kinds call it first in
// DeriveSelections.
func (l *Lepton) beginDerive() {
	n := l.Size()
	l.closeJet = resize(l.closeJet, n)
	l.closeJetDR2 = resize(l.closeJetDR2, n)
	l.fakePtFactor = resize(l.fakePtFactor, n)
	for i := range n {
		l.closeJet[i] = noJet
	}
	l.overlap = make(Overlap)
}

// passesLoose applies the loose cuts common to both flavours.
func (l *Lepton) passesLoose(i int, minPt, maxEta float64) bool {
	return l.Pt(i) > minPt &&
		math.Abs(l.Eta(i)) < maxEta &&
		l.Iso(i) < LeptonLooseIso &&
		math.Abs(float64(l.dz.At(i))) < LeptonMaxDz &&
		math.Abs(float64(l.dxy.At(i))) < LeptonMaxDxy
}

func (l *Lepton) tightCharged(i int) bool { return l.tightCharge.At(i) == 2 }

func (l *Lepton) sip3dBelow(i int, cut float64) bool { return float64(l.sip3d.At(i)) < cut }

// promoteFake computes lepton i's fake-pt factor and, if the modified pt is
// high enough, adds it to Fake and records its close jet in the overlap.
func (l *Lepton) promoteFake(i int, jets *Jet) {
	l.fakePtFactor[i] = l.FakePtFactor(i, jets)
	if l.ModPt(i) <= LeptonFakeModPt {
		return
	}
	l.Add(particle.Fake, i)
	if k, dr2 := l.CloseJet(i, jets); k != noJet {
		l.overlap.Record(k, dr2)
	}
}

// passesTight applies the tight cuts common to both flavours.
func (l *Lepton) passesTight(i int, jets *Jet) bool {
	return l.Pt(i) > LeptonTightPt &&
		l.Iso(i) < l.isoCut &&
		l.PassJetIsolation(i, jets)
}

// Clear resets the collection for a new event.
func (l *Lepton) Clear() {
	l.Particle.Clear()
	l.closeJet = l.closeJet[:0]
	l.closeJetDR2 = l.closeJetDR2[:0]
	l.fakePtFactor = l.fakePtFactor[:0]
	l.overlap = nil
}

func (l *Lepton) p4(i int) kinematics.P4 {
	return kinematics.P4{Pt: l.Pt(i), Eta: l.Eta(i), Phi: l.Phi(i), Mass: l.Mass(i)}
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	clear(s)
	return s
}
