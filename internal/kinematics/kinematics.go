package kinematics

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// P4 is a candidate's kinematics in collider coordinates.
type P4 struct {
	Pt, Eta, Phi, Mass float64
}

func (p P4) fmom() fmom.PtEtaPhiM {
	return fmom.NewPtEtaPhiM(p.Pt, p.Eta, p.Phi, p.Mass)
}

// Energy returns the energy of p.
func Energy(p P4) float64 {
	v := p.fmom()
	return v.E()
}

// DeltaPhi returns phi1-phi2 wrapped into [-pi, pi]. It is antisymmetric:
// DeltaPhi(a, b) == -DeltaPhi(b, a) exactly.
func DeltaPhi(phi1, phi2 float64) float64 {
	return math.Remainder(phi1-phi2, 2*math.Pi)
}

// DeltaR2 returns the squared angular separation of a and b.
func DeltaR2(a, b P4) float64 {
	deta := a.Eta - b.Eta
	dphi := DeltaPhi(a.Phi, b.Phi)
	return deta*deta + dphi*dphi
}

// Vec returns the three-momentum of p.
func Vec(p P4) r3.Vec {
	v := p.fmom()
	return r3.Vec{X: v.Px(), Y: v.Py(), Z: v.Pz()}
}

// PtRel2 returns the squared momentum of the lepton transverse to the
// jet-minus-lepton axis. A jet identical to the lepton gives 0.
func PtRel2(lep, jet P4) float64 {
	l := Vec(lep)
	axis := r3.Sub(Vec(jet), l)
	n := r3.Norm2(axis)
	if n == 0 {
		return 0
	}
	return r3.Norm2(r3.Cross(l, axis)) / n
}

// Sum returns the sum of xs, 0 for an empty slice.
func Sum(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs)
}
