package output

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analysis-suite/objsel/internal/config"
	"github.com/analysis-suite/objsel/internal/objects"
	"github.com/analysis-suite/objsel/internal/particle"
	"github.com/analysis-suite/objsel/internal/systematics"
	"github.com/analysis-suite/objsel/internal/testutil"
)

type selected struct {
	jets      objects.Jet
	muons     objects.Muon
	electrons objects.Electron
}

func selectEvent(t *testing.T, ev testutil.Event, systs ...systematics.Systematic) *selected {
	t.Helper()
	th, err := config.ThresholdsFor(config.Year2017)
	require.NoError(t, err)
	src := testutil.Source(t, ev.Build())

	s := &selected{}
	require.NoError(t, s.jets.Setup(src, th))
	require.NoError(t, s.muons.Setup(src, th))
	require.NoError(t, s.electrons.Setup(src, th))

	for _, sy := range systs {
		particle.SetGoodParticles(&s.muons, sy, &s.jets)
		particle.SetGoodParticles(&s.electrons, sy, &s.jets)
		particle.SetGoodParticles(&s.jets, sy, s.muons.Overlap().Merge(s.electrons.Overlap()))
	}
	s.jets.Fold()
	s.muons.Fold()
	s.electrons.Fold()
	return s
}

func TestFillParticle_MasksBitmap(t *testing.T) {
	t.Parallel()
	s := selectEvent(t, testutil.Event{
		Jets: []testutil.JetCand{testutil.GoodJet(3), testutil.GoodJet(30), testutil.GoodJet(60)},
	}, systematics.Nominal, systematics.JetJES)

	var out ParticleOut
	FillParticle(&s.jets, particle.Loose, &out, systematics.Nominal.Bit())

	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []float64{30, 60}, out.Pt)
	// Only the bits requested by the mask are written.
	assert.Equal(t, []uint32{1, 1}, out.SystBitmap)

	out.Reset()
	mask := systematics.Nominal.Bit() | systematics.JetJES.Bit()
	FillParticle(&s.jets, particle.Tight, &out, mask)
	assert.Equal(t, []float64{60}, out.Pt)
	assert.Equal(t, []uint32{mask}, out.SystBitmap)
}

func TestFillParticle_EmptyMask(t *testing.T) {
	t.Parallel()
	s := selectEvent(t, testutil.Event{Jets: []testutil.JetCand{testutil.GoodJet(60)}}, systematics.Nominal)

	var out ParticleOut
	FillParticle(&s.jets, particle.Loose, &out, systematics.Pileup.Bit())
	assert.Zero(t, out.Len())
}

func TestFillBJet(t *testing.T) {
	t.Parallel()
	tagged := testutil.GoodJet(50)
	tagged.BTag = 0.9
	loose := testutil.GoodJet(45)
	loose.BTag = 0.2
	s := selectEvent(t, testutil.Event{Jets: []testutil.JetCand{tagged, loose, testutil.GoodJet(20)}}, systematics.Nominal)

	var out BJetOut
	FillBJet(&s.jets, particle.Bottom, &out, systematics.Nominal.Bit())

	assert.Equal(t, []float64{50}, out.Pt)
	assert.InDeltaSlice(t, []float64{0.9}, out.Discriminator, 1e-6)
	assert.Equal(t, objects.BTagCounts{Loose: 2, Medium: 1, Tight: 1}, out.Counts[systematics.Nominal])
	assert.Zero(t, out.Counts[systematics.JetJES])

	out.Reset()
	assert.Zero(t, out.Len())
	assert.Empty(t, out.Discriminator)
	assert.Zero(t, out.Counts[systematics.Nominal])
}

func TestFillLeptons_MuonsFirst(t *testing.T) {
	t.Parallel()
	s := selectEvent(t, testutil.Event{
		Electrons: []testutil.ElectronCand{testutil.GoodElectron(40)},
		Muons:     []testutil.MuonCand{testutil.GoodMuon(30), testutil.GoodMuon(20)},
	}, systematics.Nominal)

	var out LeptonOut
	FillLeptons(&s.muons, &s.electrons, particle.Tight, &out, systematics.Nominal.Bit())

	assert.Equal(t, []int32{PdgMuon, PdgMuon, PdgElectron}, out.PdgID)
	assert.Equal(t, []float64{30, 20, 40}, out.Pt)
}

func TestEventRecord_Lookups(t *testing.T) {
	t.Parallel()
	up := systematics.Pass{Systematic: systematics.Pileup, Variation: systematics.Up}
	rec := &EventRecord{
		Run: 1,
		Weights: []Weight{
			{Pass: systematics.Pass{Systematic: systematics.Nominal}, Value: 0.9},
			{Pass: up, Value: 1.1},
		},
		Vars: []EventVars{{Systematic: systematics.Nominal, HT: 120}},
	}

	w, ok := rec.Weight(up)
	assert.True(t, ok)
	assert.Equal(t, 1.1, w)
	_, ok = rec.Weight(systematics.Pass{Systematic: systematics.MuonID, Variation: systematics.Down})
	assert.False(t, ok)

	v, ok := rec.VarsFor(systematics.Nominal)
	assert.True(t, ok)
	assert.Equal(t, 120.0, v.HT)

	rec.Reset()
	assert.Zero(t, rec.Run)
	assert.Empty(t, rec.Weights)
	assert.Empty(t, rec.Vars)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "objsel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenStore_Migrates(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objsel.db")
	s, err := OpenStore(path)
	require.NoError(t, err)
	run := &Run{Year: "2017", IsMC: true, Systematics: []string{"Nominal"}}
	require.NoError(t, s.CreateRun(run))
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
}

func TestStore_CreateAndGetRun(t *testing.T) {
	s := openTestStore(t)

	run := &Run{Year: "2018", IsMC: false, Systematics: []string{"Nominal", "Pileup"}}
	require.NoError(t, s.CreateRun(run))
	assert.NotEmpty(t, run.RunID)
	assert.NotZero(t, run.CreatedAt)

	got, err := s.GetRun(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
	}

	_, err = s.GetRun("missing")
	assert.ErrorIs(t, err, ErrUnknownRun)
}

func TestStore_WriteEvent(t *testing.T) {
	s := openTestStore(t)
	run := &Run{Year: "2017", IsMC: true, Systematics: []string{"Nominal"}}
	require.NoError(t, s.CreateRun(run))

	nominal := systematics.Pass{Systematic: systematics.Nominal}
	rec := &EventRecord{
		Run: 1, Lumi: 7, Event: 42, NPU: 31,
		Weights: []Weight{{Pass: nominal, Value: 0.95}},
		Vars: []EventVars{{
			Systematic: systematics.Nominal, HT: 150, HTB: 50, Centrality: 0.6,
			NJets: 2, NBJets: 1, NTightLeptons: 1,
			BTag: objects.BTagCounts{Loose: 2, Medium: 1},
		}},
		Jets: ParticleOut{
			Pt: []float64{100, 50}, Eta: []float64{0.1, -1}, Phi: []float64{0, 2},
			Mass: []float64{10, 5}, SystBitmap: []uint32{1, 1},
		},
		BJets: BJetOut{
			ParticleOut: ParticleOut{
				Pt: []float64{50}, Eta: []float64{-1}, Phi: []float64{2},
				Mass: []float64{5}, SystBitmap: []uint32{1},
			},
			Discriminator: []float64{0.8},
		},
		Leptons: LeptonOut{
			ParticleOut: ParticleOut{
				Pt: []float64{30}, Eta: []float64{0.5}, Phi: []float64{-1},
				Mass: []float64{0.1}, SystBitmap: []uint32{1},
			},
			PdgID: []int32{PdgMuon},
		},
	}
	require.NoError(t, s.WriteEvent(run.RunID, rec))

	n, err := s.EventCount(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	jets, err := s.Particles(run.RunID, CollectionJets)
	require.NoError(t, err)
	require.Len(t, jets, 2)
	assert.Equal(t, uint64(42), jets[0].Event)
	assert.Equal(t, 100.0, jets[0].Pt)
	assert.Equal(t, 1, jets[1].Position)
	assert.False(t, jets[0].Discriminator.Valid)
	assert.False(t, jets[0].PdgID.Valid)

	bjets, err := s.Particles(run.RunID, CollectionBJets)
	require.NoError(t, err)
	require.Len(t, bjets, 1)
	assert.True(t, bjets[0].Discriminator.Valid)
	assert.Equal(t, 0.8, bjets[0].Discriminator.Float64)

	leptons, err := s.Particles(run.RunID, CollectionLeptons)
	require.NoError(t, err)
	require.Len(t, leptons, 1)
	assert.Equal(t, int32(PdgMuon), leptons[0].PdgID.Int32)
	assert.Equal(t, uint32(1), leptons[0].SystBitmap)

	weights, err := s.Weights(run.RunID, 42)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Nominal_central": 0.95}, weights)
}

func TestStore_WriteEventUnknownRun(t *testing.T) {
	s := openTestStore(t)

	err := s.WriteEvent("nope", &EventRecord{Event: 1})
	assert.ErrorIs(t, err, ErrUnknownRun)

	n, err := s.EventCount("nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_WriteEventRollsBack(t *testing.T) {
	s := openTestStore(t)
	run := &Run{Year: "2017", Systematics: []string{"Nominal"}}
	require.NoError(t, s.CreateRun(run))

	nominal := systematics.Pass{Systematic: systematics.Nominal}
	// Duplicate pass violates the event_weights primary key.
	rec := &EventRecord{Event: 3, Weights: []Weight{{Pass: nominal, Value: 1}, {Pass: nominal, Value: 2}}}
	require.Error(t, s.WriteEvent(run.RunID, rec))

	n, err := s.EventCount(run.RunID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
