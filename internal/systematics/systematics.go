package systematics

import (
	"errors"
	"fmt"
)

// ErrUnknownSystematic is returned when a systematic name is not recognised.
var ErrUnknownSystematic = errors.New("unknown systematic")

// Systematic identifies one source of uncertainty. The numeric value is the
// bit position used in selection bitmaps.
type Systematic int

const (
	Nominal Systematic = iota
	LHEMuF
	LHEMuR

	BJetBTagging
	BJetEff
	BJetShapeHF
	BJetShapeHFStats1
	BJetShapeHFStats2
	BJetShapeLF
	BJetShapeLFStats1
	BJetShapeLFStats2
	BJetShapeCFErr1
	BJetShapeCFErr2

	MuonID
	MuonIso
	ElectronSF
	ElectronSusy
	TopSF
	Pileup
	JetJER
	JetJES

	numSystematics
)

const (
	// Count is the number of enumerated systematics, Nominal included.
	Count = int(numSystematics)

	// BitmapWidth is the width in bits of a selection bitmap word.
	BitmapWidth = 32
)

// Compile-time guard: converting a negative constant to uint fails the build.
const _ = uint(BitmapWidth - Count)

var names = [Count]string{
	Nominal:           "Nominal",
	LHEMuF:            "LHE_muF",
	LHEMuR:            "LHE_muR",
	BJetBTagging:      "BJet_BTagging",
	BJetEff:           "BJet_Eff",
	BJetShapeHF:       "BJet_Shape_hf",
	BJetShapeHFStats1: "BJet_Shape_hfstats1",
	BJetShapeHFStats2: "BJet_Shape_hfstats2",
	BJetShapeLF:       "BJet_Shape_lf",
	BJetShapeLFStats1: "BJet_Shape_lfstats1",
	BJetShapeLFStats2: "BJet_Shape_lfstats2",
	BJetShapeCFErr1:   "BJet_Shape_cferr1",
	BJetShapeCFErr2:   "BJet_Shape_cferr2",
	MuonID:            "Muon_ID",
	MuonIso:           "Muon_Iso",
	ElectronSF:        "Electron_SF",
	ElectronSusy:      "Electron_Susy",
	TopSF:             "Top_SF",
	Pileup:            "Pileup",
	JetJER:            "Jet_JER",
	JetJES:            "Jet_JES",
}

// String returns the canonical name, e.g. "BJet_Shape_hf".
func (s Systematic) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Systematic(%d)", int(s))
	}
	return names[s]
}

// Valid reports whether s is one of the enumerated systematics.
func (s Systematic) Valid() bool {
	return s >= 0 && s < numSystematics
}

// Bit returns the bitmap bit owned by s.
func (s Systematic) Bit() uint32 {
	return 1 << uint(s)
}

// Parse looks a systematic up by its canonical name.
func Parse(name string) (Systematic, error) {
	for i, n := range names {
		if n == name {
			return Systematic(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSystematic, name)
}

// Variation is the direction a systematic is evaluated in.
type Variation int

const (
	Central Variation = iota
	Up
	Down
)

// String returns "central", "up" or "down".
func (v Variation) String() string {
	switch v {
	case Central:
		return "central"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("Variation(%d)", int(v))
	}
}

var (
	shiftedVariations = []Variation{Up, Down}
	nominalVariations = []Variation{Central}
)

// Pass is one (systematic, variation) combination evaluated for weights.
type Pass struct {
	Systematic Systematic
	Variation  Variation
}

func (p Pass) String() string {
	return p.Systematic.String() + "_" + p.Variation.String()
}

// VariationFor returns the variation a weight owned by s is evaluated in
// for this pass: p.Variation when p shifts s, Central otherwise.
func (p Pass) VariationFor(s Systematic) Variation {
	if p.Systematic == s {
		return p.Variation
	}
	return Central
}
