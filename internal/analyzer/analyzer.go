package analyzer

import (
	"fmt"
	"time"

	"github.com/analysis-suite/objsel/internal/config"
	"github.com/analysis-suite/objsel/internal/monitoring"
	"github.com/analysis-suite/objsel/internal/objects"
	"github.com/analysis-suite/objsel/internal/output"
	"github.com/analysis-suite/objsel/internal/particle"
	"github.com/analysis-suite/objsel/internal/scalefactors"
	"github.com/analysis-suite/objsel/internal/source"
	"github.com/analysis-suite/objsel/internal/systematics"
	"github.com/analysis-suite/objsel/internal/timeutil"
)

// Result is the output of one event. It is owned by the Analyzer and
// overwritten by the next ProcessEvent.
type Result struct {
	output.EventRecord

	// Elapsed is the wall time of the sweep, fold and fills.
	Elapsed time.Duration
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCorrector sets the jet pt corrector used for shifted systematics.
func WithCorrector(c objects.Corrector) Option {
	return func(a *Analyzer) { a.Jets.SetCorrector(c) }
}

// WithClock replaces the clock used to time each event.
func WithClock(c timeutil.Clock) Option {
	return func(a *Analyzer) { a.clock = c }
}

// WithMetrics records per-event metrics on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// components records which weight factors are evaluated.
type components struct {
	muon, electron, btag, pileup bool
}

// Analyzer owns the particle kinds bound to one source.
type Analyzer struct {
	Jets      objects.Jet
	Muons     objects.Muon
	Electrons objects.Electron

	src     *source.EventSource
	th      config.Thresholds
	reg     *systematics.Registry
	weights *scalefactors.Weights
	calib   scalefactors.Calibration
	isMC    bool
	use     components
	metrics *monitoring.Metrics
	clock   timeutil.Clock

	result Result
}

// New binds every kind to src. Weight factors whose tables are absent from
// weights (or, for b-tagging, a nil calib) are left out of the event weight.
// Data runs carry unit weights.
func New(cfg *config.AnalysisConfig, src *source.EventSource, weights *scalefactors.Weights, calib scalefactors.Calibration, opts ...Option) (*Analyzer, error) {
	year, err := cfg.GetYear()
	if err != nil {
		return nil, err
	}
	th, err := config.ThresholdsFor(year)
	if err != nil {
		return nil, err
	}
	reg, err := cfg.GetRegistry()
	if err != nil {
		return nil, err
	}
	if weights == nil {
		weights = scalefactors.Builtin()
	}

	a := &Analyzer{
		src:     src,
		th:      th,
		reg:     reg,
		weights: weights,
		calib:   calib,
		isMC:    cfg.GetIsMC(),
		clock:   timeutil.RealClock{},
	}
	if err := a.Jets.Setup(src, th); err != nil {
		return nil, fmt.Errorf("jets: %w", err)
	}
	if err := a.Muons.Setup(src, th); err != nil {
		return nil, fmt.Errorf("muons: %w", err)
	}
	if err := a.Electrons.Setup(src, th); err != nil {
		return nil, fmt.Errorf("electrons: %w", err)
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.isMC {
		a.use = components{
			muon:     weights.Has(scalefactors.TableMuonID) && weights.Has(scalefactors.TableMuonTracking),
			electron: weights.Has(scalefactors.TableElectronSF),
			btag: calib != nil &&
				weights.Has(scalefactors.TableBTagEffB) &&
				weights.Has(scalefactors.TableBTagEffC) &&
				weights.Has(scalefactors.TableBTagEffUDSG),
			pileup: weights.Has(scalefactors.TablePileup),
		}
	}

	monitoring.Logf("analyzer: period %s, mc=%t, systematics %v", year, a.isMC, reg.Names())
	monitoring.Logf("analyzer: weights muon=%t electron=%t btag=%t pileup=%t",
		a.use.muon, a.use.electron, a.use.btag, a.use.pileup)
	return a, nil
}

// Registry returns the systematics swept for every event.
func (a *Analyzer) Registry() *systematics.Registry { return a.reg }

// Thresholds returns the period cuts in use.
func (a *Analyzer) Thresholds() config.Thresholds { return a.th }

// ProcessEvent loads ev into the source and runs the sweep.
func (a *Analyzer) ProcessEvent(ev *source.Event) (*Result, error) {
	if err := a.src.SetEvent(ev); err != nil {
		a.countError()
		return nil, err
	}

	start := a.clock.Now()
	a.Jets.Clear()
	a.Muons.Clear()
	a.Electrons.Clear()

	systs := a.reg.Systematics()
	for _, s := range systs {
		particle.SetGoodParticles(&a.Muons, s, &a.Jets)
		particle.SetGoodParticles(&a.Electrons, s, &a.Jets)
		particle.SetGoodParticles(&a.Jets, s, a.Muons.Overlap().Merge(a.Electrons.Overlap()))
	}
	a.Jets.Fold()
	a.Muons.Fold()
	a.Electrons.Fold()

	r := &a.result.EventRecord
	r.Reset()
	r.Run, r.Lumi, r.Event, r.NPU = ev.Run, ev.Lumi, ev.Event, float64(ev.NPU)

	for _, s := range systs {
		r.Vars = append(r.Vars, a.eventVars(s))
	}

	for _, pass := range a.reg.Passes() {
		w, err := a.weight(pass)
		if err != nil {
			a.countError()
			return nil, fmt.Errorf("event %d/%d/%d: weight %s: %w", ev.Run, ev.Lumi, ev.Event, pass, err)
		}
		r.Weights = append(r.Weights, output.Weight{Pass: pass, Value: w})
	}

	mask := a.reg.Mask()
	output.FillParticle(&a.Jets, particle.Tight, &r.Jets, mask)
	output.FillBJet(&a.Jets, particle.Bottom, &r.BJets, mask)
	output.FillLeptons(&a.Muons, &a.Electrons, particle.Tight, &r.Leptons, mask)

	a.result.Elapsed = a.clock.Since(start)
	a.observe()
	return &a.result, nil
}

func (a *Analyzer) eventVars(s systematics.Systematic) output.EventVars {
	return output.EventVars{
		Systematic:    s,
		HT:            a.Jets.HTFor(particle.Tight, s),
		HTB:           a.Jets.HTFor(particle.Bottom, s),
		Centrality:    a.Jets.CentralityFor(particle.Tight, s),
		NJets:         len(a.Jets.ListFor(particle.Tight, s)),
		NBJets:        len(a.Jets.ListFor(particle.Bottom, s)),
		NTightLeptons: len(a.Muons.ListFor(particle.Tight, s)) + len(a.Electrons.ListFor(particle.Tight, s)),
		BTag:          a.Jets.BTagCounts(s),
	}
}

// weight is the product of the enabled scale factors for pass.
func (a *Analyzer) weight(pass systematics.Pass) (float64, error) {
	w := 1.0
	if a.use.muon {
		sf, err := a.Muons.ScaleFactor(pass, a.weights)
		if err != nil {
			return 1, fmt.Errorf("muon: %w", err)
		}
		w *= sf
	}
	if a.use.electron {
		sf, err := a.Electrons.ScaleFactor(pass, a.weights)
		if err != nil {
			return 1, fmt.Errorf("electron: %w", err)
		}
		w *= sf
	}
	if a.use.btag {
		sf, err := a.Jets.BTagScaleFactor(pass, a.calib, a.weights)
		if err != nil {
			return 1, fmt.Errorf("btag: %w", err)
		}
		w *= sf
	}
	if a.use.pileup {
		sf, err := scalefactors.PileupSF(a.weights, pass.VariationFor(systematics.Pileup), a.result.NPU)
		if err != nil {
			return 1, fmt.Errorf("pileup: %w", err)
		}
		w *= sf
	}
	return w, nil
}

func (a *Analyzer) countError() {
	if a.metrics != nil {
		a.metrics.EventErrors.Inc()
	}
}

func (a *Analyzer) observe() {
	if a.metrics == nil {
		return
	}
	m := a.metrics
	m.EventsProcessed.Inc()
	m.SweepSeconds.Observe(a.result.Elapsed.Seconds())

	nominal := systematics.Nominal
	m.Selected.WithLabelValues("jet", particle.Tight.String()).Add(float64(len(a.Jets.ListFor(particle.Tight, nominal))))
	m.Selected.WithLabelValues("jet", particle.Bottom.String()).Add(float64(len(a.Jets.ListFor(particle.Bottom, nominal))))
	m.Selected.WithLabelValues("muon", particle.Tight.String()).Add(float64(len(a.Muons.ListFor(particle.Tight, nominal))))
	m.Selected.WithLabelValues("electron", particle.Tight.String()).Add(float64(len(a.Electrons.ListFor(particle.Tight, nominal))))
	for _, w := range a.result.Weights {
		m.EventWeight.WithLabelValues(w.Pass.String()).Observe(w.Value)
	}
}
