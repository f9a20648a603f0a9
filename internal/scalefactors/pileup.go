package scalefactors

import "github.com/analysis-suite/objsel/internal/systematics"

// PileupSF returns the pileup reweighting factor for nPU true interactions.
func PileupSF(w *Weights, v systematics.Variation, nPU float64) (float64, error) {
	return w.Lookup(TablePileup, v, Point{NPU: nPU})
}
