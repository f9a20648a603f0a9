package output

import (
	"github.com/analysis-suite/objsel/internal/objects"
	"github.com/analysis-suite/objsel/internal/systematics"
)

// Collection names used in the particles table.
const (
	CollectionJets    = "jets"
	CollectionBJets   = "bjets"
	CollectionLeptons = "leptons"
)

// Weight is the event weight of one (systematic, variation) pass.
type Weight struct {
	Pass  systematics.Pass
	Value float64
}

// EventVars are the event-level quantities derived under one systematic.
type EventVars struct {
	Systematic    systematics.Systematic
	HT            float64
	HTB           float64
	Centrality    float64
	NJets         int
	NBJets        int
	NTightLeptons int
	BTag          objects.BTagCounts
}

// EventRecord is everything written for one event.
type EventRecord struct {
	Run, Lumi, Event uint64
	NPU              float64

	Weights []Weight
	Vars    []EventVars

	Jets    ParticleOut
	BJets   BJetOut
	Leptons LeptonOut
}

// Reset empties the record for reuse.
func (r *EventRecord) Reset() {
	r.Run, r.Lumi, r.Event, r.NPU = 0, 0, 0, 0
	r.Weights = r.Weights[:0]
	r.Vars = r.Vars[:0]
	r.Jets.Reset()
	r.BJets.Reset()
	r.Leptons.Reset()
}

// Weight returns the weight recorded for p.
func (r *EventRecord) Weight(p systematics.Pass) (float64, bool) {
	for _, w := range r.Weights {
		if w.Pass == p {
			return w.Value, true
		}
	}
	return 0, false
}

// VarsFor returns the event variables recorded for s.
func (r *EventRecord) VarsFor(s systematics.Systematic) (EventVars, bool) {
	for _, v := range r.Vars {
		if v.Systematic == s {
			return v, true
		}
	}
	return EventVars{}, false
}
