package objects

import (
	"fmt"
	"math"

	"github.com/analysis-suite/objsel/internal/config"
	"github.com/analysis-suite/objsel/internal/kinematics"
	"github.com/analysis-suite/objsel/internal/particle"
	"github.com/analysis-suite/objsel/internal/scalefactors"
	"github.com/analysis-suite/objsel/internal/source"
	"github.com/analysis-suite/objsel/internal/systematics"
)

// Jet selection cuts.
const (
	JetLoosePt  = 5.0
	JetMaxEta   = 2.4
	JetTightPt  = 40.0
	jetLooseIDs = 0b11
)

// Corrector supplies the jet pt under a systematic. JEC numerics live
// outside this package; the default corrector returns the nominal pt.
type Corrector interface {
	Pt(s systematics.Systematic, idx int, nominal float64) float64
}

// NominalPt is the identity Corrector.
type NominalPt struct{}

// Pt returns nominal.
func (NominalPt) Pt(_ systematics.Systematic, _ int, nominal float64) float64 { return nominal }

// BTagCounts are the numbers of loose jets above each b-tag working point.
type BTagCounts struct {
	Loose  int
	Medium int
	Tight  int
}

// Jet is the jet collection. Levels: Loose, Bottom, Tight.
type Jet struct {
	particle.Particle

	jetID         *source.Array[int32]
	hadronFlavour *source.Array[int32]
	btag          *source.Array[float32]

	th        config.Thresholds
	corrector Corrector
	counts    [systematics.Count]BTagCounts
}

var _ particle.Selector[Overlap] = (*Jet)(nil)

// Setup binds the Jet_* branches and registers the jet levels.
func (j *Jet) Setup(src source.Source, th config.Thresholds) error {
	if err := j.Particle.Setup("Jet", src); err != nil {
		return err
	}
	var err error
	if j.jetID, err = src.Ints("Jet_jetId"); err != nil {
		return fmt.Errorf("Jet: %w", err)
	}
	if j.hadronFlavour, err = src.Ints("Jet_hadronFlavour"); err != nil {
		return fmt.Errorf("Jet: %w", err)
	}
	if j.btag, err = src.Floats("Jet_btagDeepB"); err != nil {
		return fmt.Errorf("Jet: %w", err)
	}
	j.th = th
	if j.corrector == nil {
		j.corrector = NominalPt{}
	}
	j.SetupMap(particle.Loose)
	j.SetupMap(particle.Bottom)
	j.SetupMap(particle.Tight)
	return nil
}

// SetCorrector replaces the pt corrector. nil restores NominalPt.
func (j *Jet) SetCorrector(c Corrector) {
	if c == nil {
		c = NominalPt{}
	}
	j.corrector = c
}

// Particles implements particle.Selector.
func (j *Jet) Particles() *particle.Particle { return &j.Particle }

// PtUnder returns jet i's pt under systematic s.
func (j *Jet) PtUnder(s systematics.Systematic, i int) float64 {
	if j.corrector == nil {
		return j.Pt(i)
	}
	return j.corrector.Pt(s, i, j.Pt(i))
}

// P4Under returns jet i's kinematics with the pt under systematic s.
func (j *Jet) P4Under(s systematics.Systematic, i int) kinematics.P4 {
	return kinematics.P4{Pt: j.PtUnder(s, i), Eta: j.Eta(i), Phi: j.Phi(i), Mass: j.Mass(i)}
}

// BTag returns jet i's b-tag discriminant.
func (j *Jet) BTag(i int) float64 { return float64(j.btag.At(i)) }

// HadronFlavour returns jet i's generator hadron flavour.
func (j *Jet) HadronFlavour(i int) int32 { return j.hadronFlavour.At(i) }

// DeriveSelections fills Loose, Bottom and Tight for the open pass. Jets
// that ov attributes to a selected lepton are not Loose.
func (j *Jet) DeriveSelections(ov Overlap) {
	s := j.Current()
	for i := range j.Size() {
		if j.PtUnder(s, i) > JetLoosePt &&
			math.Abs(j.Eta(i)) < JetMaxEta &&
			j.jetID.At(i)&jetLooseIDs != 0 &&
			!ov.Excludes(i) {
			j.Add(particle.Loose, i)
		}
	}

	var counts BTagCounts
	for _, i := range j.List(particle.Loose) {
		b := j.BTag(i)
		if b > j.th.MediumBTag {
			j.Add(particle.Bottom, i)
		}
		if b > j.th.LooseBTag {
			counts.Loose++
		}
		if b > j.th.MediumBTag {
			counts.Medium++
		}
		if b > j.th.TightBTag {
			counts.Tight++
		}
	}
	j.counts[s] = counts

	for _, i := range j.List(particle.Loose) {
		if j.PtUnder(s, i) > JetTightPt {
			j.Add(particle.Tight, i)
		}
	}
}

// BTagCounts returns the b-tag multiplicities of the pass for s.
func (j *Jet) BTagCounts(s systematics.Systematic) BTagCounts {
	return j.counts[s]
}

// Clear resets the collection and the b-tag counters for a new event.
func (j *Jet) Clear() {
	j.Particle.Clear()
	j.counts = [systematics.Count]BTagCounts{}
}

// HT returns the scalar pt sum of list under the current systematic.
func (j *Jet) HT(list []int) float64 {
	return j.ht(j.Current(), list)
}

// Centrality returns HT over the summed energy of list, 0 for an empty list.
func (j *Jet) Centrality(list []int) float64 {
	return j.centrality(j.Current(), list)
}

// HTFor returns the HT of level's list for systematic s.
func (j *Jet) HTFor(level particle.Level, s systematics.Systematic) float64 {
	return j.ht(s, j.ListFor(level, s))
}

// CentralityFor returns the centrality of level's list for systematic s.
func (j *Jet) CentralityFor(level particle.Level, s systematics.Systematic) float64 {
	return j.centrality(s, j.ListFor(level, s))
}

func (j *Jet) ht(s systematics.Systematic, list []int) float64 {
	pts := make([]float64, len(list))
	for k, i := range list {
		pts[k] = j.PtUnder(s, i)
	}
	return kinematics.Sum(pts)
}

func (j *Jet) centrality(s systematics.Systematic, list []int) float64 {
	energies := make([]float64, len(list))
	for k, i := range list {
		energies[k] = kinematics.Energy(j.P4Under(s, i))
	}
	etot := kinematics.Sum(energies)
	if etot == 0 {
		return 0
	}
	return j.ht(s, list) / etot
}

// BTagScaleFactor returns the b-tag event weight for pass. Tagged jets
// contribute their scale factor; tight untagged jets contribute
// (1-SF*eff)/(1-eff) with eff from the tagging-efficiency tables.
func (j *Jet) BTagScaleFactor(pass systematics.Pass, calib scalefactors.Calibration, w *scalefactors.Weights) (float64, error) {
	s := pass.Systematic
	calVar := pass.VariationFor(systematics.BJetBTagging)
	effVar := pass.VariationFor(systematics.BJetEff)

	weight := 1.0
	j.SetVariation(calVar)
	if calVar == systematics.Central {
		j.SetVariation(effVar)
	}

	bottom := j.ListFor(particle.Bottom, s)
	tagged := j.Members(particle.Bottom, s)
	for _, i := range bottom {
		f := scalefactors.FlavorOf(j.HadronFlavour(i))
		weight *= calib.Evaluate(calVar, f, j.Eta(i), j.PtUnder(s, i))
	}
	for _, i := range j.ListFor(particle.Tight, s) {
		if tagged.Contains(uint32(i)) {
			continue
		}
		pt, eta := j.PtUnder(s, i), j.Eta(i)
		f := scalefactors.FlavorOf(j.HadronFlavour(i))
		eff, err := w.Lookup(scalefactors.EfficiencyTable(f), effVar, scalefactors.Point{Pt: pt, Eta: eta})
		if err != nil {
			return 1, fmt.Errorf("jet %d: %w", i, err)
		}
		if eff >= 1 {
			continue
		}
		sf := calib.Evaluate(calVar, f, eta, pt)
		weight *= (1 - sf*eff) / (1 - eff)
	}
	return weight, nil
}
