package analyzer

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analysis-suite/objsel/internal/config"
	"github.com/analysis-suite/objsel/internal/monitoring"
	"github.com/analysis-suite/objsel/internal/objects"
	"github.com/analysis-suite/objsel/internal/output"
	"github.com/analysis-suite/objsel/internal/scalefactors"
	"github.com/analysis-suite/objsel/internal/source"
	"github.com/analysis-suite/objsel/internal/systematics"
	"github.com/analysis-suite/objsel/internal/testutil"
	"github.com/analysis-suite/objsel/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// ttbarLike is one tight muon, one b-tagged and one untagged tight jet.
func ttbarLike() testutil.Event {
	m := testutil.GoodMuon(25)
	m.Eta = 0.5

	tagged := testutil.GoodJet(50)
	tagged.BTag = 0.9
	tagged.HadronFlavour = 5
	tagged.Phi = 2

	light := testutil.GoodJet(50)
	light.Eta = 0.1
	light.Phi = -2

	return testutil.Event{
		Run: 1, Lumi: 2, Number: 3, NPU: 30,
		Muons: []testutil.MuonCand{m},
		Jets:  []testutil.JetCand{tagged, light},
	}
}

func newAnalyzer(t *testing.T, cfg *config.AnalysisConfig, ev testutil.Event, opts ...Option) (*Analyzer, *source.Event) {
	t.Helper()
	built := ev.Build()
	src := source.NewEventSource(source.SchemaOf(built))
	a, err := New(cfg, src, scalefactors.Builtin(), scalefactors.NewFormulaCalibration(scalefactors.WPMedium), opts...)
	require.NoError(t, err)
	return a, built
}

func nominalPass() systematics.Pass {
	return systematics.Pass{Systematic: systematics.Nominal, Variation: systematics.Central}
}

func TestProcessEvent_Nominal(t *testing.T) {
	a, ev := newAnalyzer(t, config.MustLoadDefaultConfig(), ttbarLike())

	r, err := a.ProcessEvent(ev)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), r.Run)
	assert.Equal(t, uint64(3), r.Event)
	assert.Equal(t, 30.0, r.NPU)

	v, ok := r.VarsFor(systematics.Nominal)
	require.True(t, ok)
	assert.Equal(t, 2, v.NJets)
	assert.Equal(t, 1, v.NBJets)
	assert.Equal(t, 1, v.NTightLeptons)
	assert.InDelta(t, 100, v.HT, 1e-9)
	assert.InDelta(t, 50, v.HTB, 1e-9)
	assert.Greater(t, v.Centrality, 0.0)
	assert.Equal(t, objects.BTagCounts{Loose: 1, Medium: 1, Tight: 1}, v.BTag)
	assert.Len(t, r.Vars, a.Registry().Len())

	calib := scalefactors.NewFormulaCalibration(scalefactors.WPMedium)
	sfB := calib.Evaluate(systematics.Central, scalefactors.FlavorB, 0, 50)
	sfL := calib.Evaluate(systematics.Central, scalefactors.FlavorUDSG, 0.1, 50)
	const eff = 0.01078179
	want := 0.9707 * 0.9959 * sfB * (1 - sfL*eff) / (1 - eff)

	w, ok := r.Weight(nominalPass())
	require.True(t, ok)
	assert.InDelta(t, want, w, 1e-6)
	assert.Len(t, r.Weights, len(a.Registry().Passes()))

	// Built-in tables carry no uncertainties.
	up, ok := r.Weight(systematics.Pass{Systematic: systematics.MuonID, Variation: systematics.Up})
	require.True(t, ok)
	assert.InDelta(t, w, up, 1e-12)

	mask := a.Registry().Mask()
	assert.Equal(t, []float64{50, 50}, r.Jets.Pt)
	assert.Equal(t, []uint32{mask, mask}, r.Jets.SystBitmap)
	assert.Equal(t, 1, r.BJets.Len())
	assert.Equal(t, []int32{output.PdgMuon}, r.Leptons.PdgID)
}

func TestProcessEvent_DataHasUnitWeights(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	isMC := false
	cfg.IsMC = &isMC
	a, ev := newAnalyzer(t, cfg, ttbarLike())

	r, err := a.ProcessEvent(ev)
	require.NoError(t, err)
	for _, w := range r.Weights {
		assert.Equal(t, 1.0, w.Value, "pass %s", w.Pass)
	}
}

type halveJES struct{}

func (halveJES) Pt(s systematics.Systematic, _ int, nominal float64) float64 {
	if s == systematics.JetJES {
		return nominal / 2
	}
	return nominal
}

func TestProcessEvent_ShiftedJets(t *testing.T) {
	cfg := &config.AnalysisConfig{Systematics: []string{"Jet_JES"}}
	a, ev := newAnalyzer(t, cfg, ttbarLike(), WithCorrector(halveJES{}))

	r, err := a.ProcessEvent(ev)
	require.NoError(t, err)

	jes, ok := r.VarsFor(systematics.JetJES)
	require.True(t, ok)
	assert.Zero(t, jes.NJets, "25 GeV jets are not tight")
	assert.Zero(t, jes.HT)
	assert.Zero(t, jes.Centrality)

	nominal, ok := r.VarsFor(systematics.Nominal)
	require.True(t, ok)
	assert.Equal(t, 2, nominal.NJets)

	// Output bitmaps only carry the Nominal bit.
	assert.Equal(t, []uint32{systematics.Nominal.Bit(), systematics.Nominal.Bit()}, r.Jets.SystBitmap)
}

func TestProcessEvent_ReusesResult(t *testing.T) {
	a, ev := newAnalyzer(t, config.EmptyAnalysisConfig(), ttbarLike())

	first, err := a.ProcessEvent(ev)
	require.NoError(t, err)
	require.Equal(t, 2, first.Jets.Len())

	empty := testutil.Event{Number: 9}.Build()
	second, err := a.ProcessEvent(empty)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Zero(t, second.Jets.Len())
	assert.Zero(t, second.Leptons.Len())

	w, ok := second.Weight(nominalPass())
	require.True(t, ok)
	assert.Equal(t, 1.0, w, "empty event has unit weight")
}

func TestProcessEvent_MissingBranch(t *testing.T) {
	a, _ := newAnalyzer(t, config.EmptyAnalysisConfig(), ttbarLike())
	m := monitoring.NewMetrics(nil)
	WithMetrics(m)(a)

	ev := ttbarLike().Build()
	delete(ev.Float, "Jet_btagDeepB")
	_, err := a.ProcessEvent(ev)
	assert.ErrorIs(t, err, source.ErrMissingBranch)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.EventErrors))
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing branch", func(t *testing.T) {
		src := source.NewEventSource(source.Schema{})
		_, err := New(config.EmptyAnalysisConfig(), src, nil, nil)
		assert.ErrorIs(t, err, source.ErrMissingBranch)
	})

	t.Run("unknown year", func(t *testing.T) {
		year := "2015"
		cfg := &config.AnalysisConfig{Year: &year}
		_, err := New(cfg, source.NewEventSource(source.SchemaOf(ttbarLike().Build())), nil, nil)
		assert.ErrorIs(t, err, config.ErrUnknownYear)
	})
}

func TestNew_WeightComponents(t *testing.T) {
	schema := source.SchemaOf(ttbarLike().Build())

	a, err := New(config.EmptyAnalysisConfig(), source.NewEventSource(schema), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, components{muon: true}, a.use, "no calibration, no pileup or electron tables")

	a, err = New(config.EmptyAnalysisConfig(), source.NewEventSource(schema), scalefactors.Builtin(),
		scalefactors.NewFormulaCalibration(scalefactors.WPTight))
	require.NoError(t, err)
	assert.Equal(t, components{muon: true, btag: true}, a.use)
}

func TestProcessEvent_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetrics(reg)
	a, ev := newAnalyzer(t, config.EmptyAnalysisConfig(), ttbarLike(), WithMetrics(m))

	_, err := a.ProcessEvent(ev)
	require.NoError(t, err)
	_, err = a.ProcessEvent(ev)
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.EventsProcessed))
	assert.Equal(t, 4.0, promtest.ToFloat64(m.Selected.WithLabelValues("jet", "Tight")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.Selected.WithLabelValues("muon", "Tight")))
	assert.Equal(t, 1, promtest.CollectAndCount(m.SweepSeconds))
}

func TestProcessEvent_Elapsed(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC), 3*time.Millisecond)
	a, ev := newAnalyzer(t, config.EmptyAnalysisConfig(), ttbarLike(), WithClock(clock))

	r, err := a.ProcessEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Millisecond, r.Elapsed)
}
