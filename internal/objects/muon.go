package objects

import (
	"fmt"

	"github.com/analysis-suite/objsel/internal/config"
	"github.com/analysis-suite/objsel/internal/particle"
	"github.com/analysis-suite/objsel/internal/scalefactors"
	"github.com/analysis-suite/objsel/internal/source"
	"github.com/analysis-suite/objsel/internal/systematics"
)

// Muon cuts.
const (
	MuonLoosePt = 5.0
	MuonMaxEta  = 2.4
)

// Muon is the muon collection. Levels: Loose, Fake, Tight.
type Muon struct {
	Lepton

	isGlobal  *source.Array[bool]
	isTracker *source.Array[bool]
	isPFcand  *source.Array[bool]
	mediumID  *source.Array[bool]
}

var _ particle.Selector[*Jet] = (*Muon)(nil)

// Setup binds the Muon_* branches with the period's isolation cuts.
func (m *Muon) Setup(src source.Source, th config.Thresholds) error {
	if err := m.setup("Muon", src, th.MuonIso, th.MuonPtRatio, th.MuonPtRelSq); err != nil {
		return err
	}
	for _, b := range []struct {
		dst  **source.Array[bool]
		name string
	}{
		{&m.isGlobal, "Muon_isGlobal"},
		{&m.isTracker, "Muon_isTracker"},
		{&m.isPFcand, "Muon_isPFcand"},
		{&m.mediumID, "Muon_mediumId"},
	} {
		var err error
		if *b.dst, err = src.Bools(b.name); err != nil {
			return fmt.Errorf("Muon: %w", err)
		}
	}
	return nil
}

// DeriveSelections fills Loose, Fake and Tight for the open pass.
func (m *Muon) DeriveSelections(jets *Jet) {
	m.beginDerive()
	for i := range m.Size() {
		if m.passesLoose(i, MuonLoosePt, MuonMaxEta) &&
			(m.isGlobal.At(i) || m.isTracker.At(i)) &&
			m.isPFcand.At(i) {
			m.Add(particle.Loose, i)
		}
	}
	for _, i := range m.List(particle.Loose) {
		if m.tightCharged(i) && m.mediumID.At(i) && m.sip3dBelow(i, LeptonMaxSip3d) {
			m.promoteFake(i, jets)
		}
	}
	for _, i := range m.List(particle.Fake) {
		if m.passesTight(i, jets) {
			m.Add(particle.Tight, i)
		}
	}
}

// ScaleFactor returns the product of the identification and tracking
// corrections over the tight muons of pass, 1 when there are none.
func (m *Muon) ScaleFactor(pass systematics.Pass, w *scalefactors.Weights) (float64, error) {
	v := pass.VariationFor(systematics.MuonID)
	m.SetVariation(v)
	weight := 1.0
	for _, i := range m.ListFor(particle.Tight, pass.Systematic) {
		p := scalefactors.Point{Pt: m.Pt(i), Eta: m.Eta(i)}
		id, err := w.Lookup(scalefactors.TableMuonID, v, p)
		if err != nil {
			return 1, err
		}
		trk, err := w.Lookup(scalefactors.TableMuonTracking, systematics.Central, p)
		if err != nil {
			return 1, err
		}
		weight *= id * trk
	}
	return weight, nil
}
