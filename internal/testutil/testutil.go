// Package testutil provides shared test fixtures: candidate builders for the
// object kinds and in-memory events assembled from them.
package testutil

import (
	"testing"

	"github.com/analysis-suite/objsel/internal/source"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// JetCand is one jet's branch values.
type JetCand struct {
	Pt, Eta, Phi, Mass float32
	BTag               float32
	JetID              int32
	HadronFlavour      int32
}

// MuonCand is one muon's branch values.
type MuonCand struct {
	Pt, Eta, Phi, Mass float32
	Iso, Dz, Dxy       float32
	Sip3d              float32
	TightCharge        int32
	MediumID           bool
	IsGlobal           bool
	IsTracker          bool
	IsPFcand           bool
}

// ElectronCand is one electron's branch values.
type ElectronCand struct {
	Pt, Eta, Phi, Mass float32
	Iso, Dz, Dxy       float32
	Sip3d              float32
	TightCharge        int32
	ECorr              float32
	MVA                float32
	LostHits           int32
	ConvVeto           bool
}

// GoodJet returns a central, identified, untagged jet.
func GoodJet(pt float32) JetCand {
	return JetCand{Pt: pt, Mass: 5, JetID: 2}
}

// GoodMuon returns a prompt, isolated muon that passes every tier when no
// jet is nearby.
func GoodMuon(pt float32) MuonCand {
	return MuonCand{
		Pt: pt, Mass: 0.1057,
		Iso: 0.01, Sip3d: 1,
		TightCharge: 2, MediumID: true,
		IsGlobal: true, IsTracker: true, IsPFcand: true,
	}
}

// GoodElectron returns a prompt, isolated electron that passes every tier
// when no jet is nearby.
func GoodElectron(pt float32) ElectronCand {
	return ElectronCand{
		Pt: pt, Mass: 0.000511,
		Iso: 0.01, Sip3d: 1,
		TightCharge: 2, ECorr: 1, MVA: 0.99,
		ConvVeto: true,
	}
}

// Event holds the candidates of one event.
type Event struct {
	Run, Lumi, Number uint64
	NPU               float32
	Jets              []JetCand
	Muons             []MuonCand
	Electrons         []ElectronCand
}

func column[C any, T any](cands []C, f func(C) T) []T {
	out := make([]T, len(cands))
	for i, c := range cands {
		out[i] = f(c)
	}
	return out
}

// Build flattens the event into branches. Every collection's branches are
// present even when it is empty.
func (e Event) Build() *source.Event {
	ev := &source.Event{
		Run: e.Run, Lumi: e.Lumi, Event: e.Number, NPU: e.NPU,
		Float: map[string][]float32{},
		Int:   map[string][]int32{},
		Bool:  map[string][]bool{},
	}

	j := e.Jets
	ev.Float["Jet_pt"] = column(j, func(c JetCand) float32 { return c.Pt })
	ev.Float["Jet_eta"] = column(j, func(c JetCand) float32 { return c.Eta })
	ev.Float["Jet_phi"] = column(j, func(c JetCand) float32 { return c.Phi })
	ev.Float["Jet_mass"] = column(j, func(c JetCand) float32 { return c.Mass })
	ev.Float["Jet_btagDeepB"] = column(j, func(c JetCand) float32 { return c.BTag })
	ev.Int["Jet_jetId"] = column(j, func(c JetCand) int32 { return c.JetID })
	ev.Int["Jet_hadronFlavour"] = column(j, func(c JetCand) int32 { return c.HadronFlavour })

	m := e.Muons
	ev.Float["Muon_pt"] = column(m, func(c MuonCand) float32 { return c.Pt })
	ev.Float["Muon_eta"] = column(m, func(c MuonCand) float32 { return c.Eta })
	ev.Float["Muon_phi"] = column(m, func(c MuonCand) float32 { return c.Phi })
	ev.Float["Muon_mass"] = column(m, func(c MuonCand) float32 { return c.Mass })
	ev.Float["Muon_miniPFRelIso_all"] = column(m, func(c MuonCand) float32 { return c.Iso })
	ev.Float["Muon_dz"] = column(m, func(c MuonCand) float32 { return c.Dz })
	ev.Float["Muon_dxy"] = column(m, func(c MuonCand) float32 { return c.Dxy })
	ev.Float["Muon_sip3d"] = column(m, func(c MuonCand) float32 { return c.Sip3d })
	ev.Int["Muon_tightCharge"] = column(m, func(c MuonCand) int32 { return c.TightCharge })
	ev.Bool["Muon_mediumId"] = column(m, func(c MuonCand) bool { return c.MediumID })
	ev.Bool["Muon_isGlobal"] = column(m, func(c MuonCand) bool { return c.IsGlobal })
	ev.Bool["Muon_isTracker"] = column(m, func(c MuonCand) bool { return c.IsTracker })
	ev.Bool["Muon_isPFcand"] = column(m, func(c MuonCand) bool { return c.IsPFcand })

	el := e.Electrons
	ev.Float["Electron_pt"] = column(el, func(c ElectronCand) float32 { return c.Pt })
	ev.Float["Electron_eta"] = column(el, func(c ElectronCand) float32 { return c.Eta })
	ev.Float["Electron_phi"] = column(el, func(c ElectronCand) float32 { return c.Phi })
	ev.Float["Electron_mass"] = column(el, func(c ElectronCand) float32 { return c.Mass })
	ev.Float["Electron_miniPFRelIso_all"] = column(el, func(c ElectronCand) float32 { return c.Iso })
	ev.Float["Electron_dz"] = column(el, func(c ElectronCand) float32 { return c.Dz })
	ev.Float["Electron_dxy"] = column(el, func(c ElectronCand) float32 { return c.Dxy })
	ev.Float["Electron_sip3d"] = column(el, func(c ElectronCand) float32 { return c.Sip3d })
	ev.Float["Electron_eCorr"] = column(el, func(c ElectronCand) float32 { return c.ECorr })
	ev.Float["Electron_mvaFall17V1noIso"] = column(el, func(c ElectronCand) float32 { return c.MVA })
	ev.Int["Electron_tightCharge"] = column(el, func(c ElectronCand) int32 { return c.TightCharge })
	ev.Int["Electron_lostHits"] = column(el, func(c ElectronCand) int32 { return c.LostHits })
	ev.Bool["Electron_convVeto"] = column(el, func(c ElectronCand) bool { return c.ConvVeto })

	return ev
}

// Source returns an EventSource whose schema is that of e, with e loaded.
func Source(t testing.TB, e *source.Event) *source.EventSource {
	t.Helper()
	src := source.NewEventSource(source.SchemaOf(e))
	AssertNoError(t, src.SetEvent(e))
	return src
}
