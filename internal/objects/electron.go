package objects

import (
	"fmt"
	"math"

	"github.com/analysis-suite/objsel/internal/config"
	"github.com/analysis-suite/objsel/internal/particle"
	"github.com/analysis-suite/objsel/internal/scalefactors"
	"github.com/analysis-suite/objsel/internal/source"
	"github.com/analysis-suite/objsel/internal/systematics"
)

// Electron cuts.
const (
	ElectronLoosePt      = 7.0
	ElectronMaxEta       = 2.5
	ElectronLooseMaxLost = 1
)

// mvaShape is an MVA working point as a function of uncorrected pt x in the
// three |eta| regions: low below 10 GeV, b-c*(1-(x-10)/15) up to 25 GeV, b
// above. Below minPt the electron fails.
type mvaShape struct {
	minPt float64
	low   [3]float64
	b     [3]float64
	c     [3]float64
}

var (
	mvaLoose = mvaShape{
		minPt: 5,
		low:   [3]float64{0.488, -0.045, 0.176},
		b:     [3]float64{-0.64, -0.775, -0.733},
		c:     [3]float64{0.148, 0.075, 0.077},
	}
	mvaTight = mvaShape{
		minPt: 10,
		b:     [3]float64{0.68, 0.475, 0.32},
		c:     [3]float64{0.48, 0.375, 0.42},
	}
)

func mvaRegion(absEta float64) int {
	switch {
	case absEta < 0.8:
		return 0
	case absEta < 1.479:
		return 1
	case absEta < 2.5:
		return 2
	default:
		return -1
	}
}

// pass reports whether mva exceeds the working point at (x, eta).
func (s mvaShape) pass(x, eta, mva float64) bool {
	r := mvaRegion(math.Abs(eta))
	if r < 0 || x < s.minPt {
		return false
	}
	var cut float64
	switch {
	case x < 10:
		cut = s.low[r]
	case x < 25:
		cut = s.b[r] - s.c[r]*(1-(x-10)/15)
	default:
		cut = s.b[r]
	}
	return mva > cut
}

// Electron is the electron collection. Levels: Loose, Fake, Tight.
type Electron struct {
	Lepton

	eCorr    *source.Array[float32]
	mva      *source.Array[float32]
	lostHits *source.Array[int32]
	convVeto *source.Array[bool]
}

var _ particle.Selector[*Jet] = (*Electron)(nil)

// Setup binds the Electron_* branches with the period's isolation cuts.
func (e *Electron) Setup(src source.Source, th config.Thresholds) error {
	if err := e.setup("Electron", src, th.ElectronIso, th.ElectronPtRatio, th.ElectronPtRelSq); err != nil {
		return err
	}
	var err error
	if e.eCorr, err = src.Floats("Electron_eCorr"); err != nil {
		return fmt.Errorf("Electron: %w", err)
	}
	if e.mva, err = src.Floats("Electron_mvaFall17V1noIso"); err != nil {
		return fmt.Errorf("Electron: %w", err)
	}
	if e.lostHits, err = src.Ints("Electron_lostHits"); err != nil {
		return fmt.Errorf("Electron: %w", err)
	}
	if e.convVeto, err = src.Bools("Electron_convVeto"); err != nil {
		return fmt.Errorf("Electron: %w", err)
	}
	return nil
}

// UncorrectedPt returns electron i's pt before the energy correction.
func (e *Electron) UncorrectedPt(i int) float64 {
	return e.Pt(i) / float64(e.eCorr.At(i))
}

// MVALoose reports whether electron i passes the loose MVA working point.
func (e *Electron) MVALoose(i int) bool {
	return mvaLoose.pass(e.UncorrectedPt(i), e.Eta(i), float64(e.mva.At(i)))
}

// MVATight reports whether electron i passes the tight MVA working point.
func (e *Electron) MVATight(i int) bool {
	return mvaTight.pass(e.UncorrectedPt(i), e.Eta(i), float64(e.mva.At(i)))
}

// DeriveSelections fills Loose, Fake and Tight for the open pass.
func (e *Electron) DeriveSelections(jets *Jet) {
	e.beginDerive()
	for i := range e.Size() {
		if e.passesLoose(i, ElectronLoosePt, ElectronMaxEta) &&
			e.sip3dBelow(i, LeptonMaxSip3d) &&
			e.lostHits.At(i) <= ElectronLooseMaxLost &&
			e.MVALoose(i) {
			e.Add(particle.Loose, i)
		}
	}
	for _, i := range e.List(particle.Loose) {
		if e.tightCharged(i) && e.convVeto.At(i) && e.lostHits.At(i) == 0 {
			e.promoteFake(i, jets)
		}
	}
	for _, i := range e.List(particle.Fake) {
		if e.passesTight(i, jets) && e.MVATight(i) {
			e.Add(particle.Tight, i)
		}
	}
}

// ScaleFactor returns the product of the electron corrections over the
// tight electrons of pass, 1 when there are none.
func (e *Electron) ScaleFactor(pass systematics.Pass, w *scalefactors.Weights) (float64, error) {
	v := pass.VariationFor(systematics.ElectronSF)
	e.SetVariation(v)
	weight := 1.0
	for _, i := range e.ListFor(particle.Tight, pass.Systematic) {
		sf, err := w.Lookup(scalefactors.TableElectronSF, v, scalefactors.Point{Pt: e.Pt(i), Eta: e.Eta(i)})
		if err != nil {
			return 1, err
		}
		weight *= sf
	}
	return weight, nil
}
