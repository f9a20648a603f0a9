package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBuild_EmptyCollections(t *testing.T) {
	t.Parallel()

	ev := Event{Run: 1, Lumi: 2, Number: 3}.Build()
	src := Source(t, ev)

	for _, name := range []string{"Jet_pt", "Muon_sip3d", "Electron_eCorr"} {
		arr, err := src.Floats(name)
		require.NoError(t, err)
		assert.Zero(t, arr.Len(), name)
	}
	_, err := src.Bools("Muon_isGlobal")
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), src.Event().Event)
}

func TestEventBuild_Columns(t *testing.T) {
	t.Parallel()

	j := GoodJet(30)
	j.BTag = 0.9
	ev := Event{
		Jets:      []JetCand{GoodJet(10), j},
		Muons:     []MuonCand{GoodMuon(25)},
		Electrons: []ElectronCand{GoodElectron(20), GoodElectron(12)},
	}.Build()

	assert.Equal(t, []float32{10, 30}, ev.Float["Jet_pt"])
	assert.Equal(t, []float32{0, 0.9}, ev.Float["Jet_btagDeepB"])
	assert.Equal(t, []int32{2, 2}, ev.Int["Jet_jetId"])
	assert.Equal(t, []bool{true}, ev.Bool["Muon_mediumId"])
	assert.Equal(t, []int32{2, 2}, ev.Int["Electron_tightCharge"])
	assert.Len(t, ev.Float["Electron_mvaFall17V1noIso"], 2)
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}
