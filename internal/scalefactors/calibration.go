package scalefactors

import (
	"fmt"
	"math"

	"github.com/analysis-suite/objsel/internal/systematics"
)

// Flavor is the jet flavour class a b-tag calibration is binned in.
type Flavor int

const (
	FlavorB Flavor = iota
	FlavorC
	FlavorUDSG
)

func (f Flavor) String() string {
	switch f {
	case FlavorB:
		return "b"
	case FlavorC:
		return "c"
	case FlavorUDSG:
		return "udsg"
	default:
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
}

// FlavorOf classifies a generator hadron flavour (5 bottom, 4 charm).
func FlavorOf(hadronFlavour int32) Flavor {
	switch hadronFlavour {
	case 5, -5:
		return FlavorB
	case 4, -4:
		return FlavorC
	default:
		return FlavorUDSG
	}
}

// EfficiencyTable returns the name of the tagging-efficiency table for f.
func EfficiencyTable(f Flavor) string {
	switch f {
	case FlavorB:
		return TableBTagEffB
	case FlavorC:
		return TableBTagEffC
	default:
		return TableBTagEffUDSG
	}
}

// WorkingPoint is a b-tag discriminant working point.
type WorkingPoint int

const (
	WPLoose WorkingPoint = iota
	WPMedium
	WPTight
)

func (wp WorkingPoint) String() string {
	switch wp {
	case WPLoose:
		return "loose"
	case WPMedium:
		return "medium"
	case WPTight:
		return "tight"
	default:
		return fmt.Sprintf("WorkingPoint(%d)", int(wp))
	}
}

// ParseWorkingPoint maps "loose", "medium" or "tight" to a WorkingPoint.
func ParseWorkingPoint(s string) (WorkingPoint, error) {
	switch s {
	case "loose":
		return WPLoose, nil
	case "medium":
		return WPMedium, nil
	case "tight":
		return WPTight, nil
	}
	return 0, fmt.Errorf("unknown b-tag working point %q", s)
}

// Calibration evaluates the data/simulation b-tag scale factor of a jet.
type Calibration interface {
	Evaluate(v systematics.Variation, f Flavor, eta, pt float64) float64
}

// FormulaCalibration is the DeepCSV parametrisation in jet pt for one
// working point. Pt is clamped into [PtMin, PtMax] before evaluation; the
// formulas do not depend on eta. They carry no uncertainty, so every
// variation evaluates to the central value.
type FormulaCalibration struct {
	WorkingPoint WorkingPoint
	PtMin        float64
	PtMax        float64
}

// NewFormulaCalibration returns the calibration for wp with the standard
// validity range.
func NewFormulaCalibration(wp WorkingPoint) *FormulaCalibration {
	return &FormulaCalibration{WorkingPoint: wp, PtMin: 20, PtMax: 1000}
}

// Evaluate implements Calibration.
func (c *FormulaCalibration) Evaluate(_ systematics.Variation, f Flavor, _, pt float64) float64 {
	x := math.Max(c.PtMin, math.Min(pt, c.PtMax))

	heavy := f == FlavorB || f == FlavorC
	switch c.WorkingPoint {
	case WPLoose:
		if heavy {
			return 0.733112 * ((1 + 0.336449*x) / (1 + 0.246914*x))
		}
		return 1.06765 + 0.000317422*x - 4.61732e-07*x*x + 2.03608e-10*x*x*x
	case WPTight:
		if heavy {
			return 0.506673 * ((1 + 0.464958*x) / (1 + 0.239689*x))
		}
		return 1.00762 + 51.6984/(x*x) + 0.000370519*x
	default:
		if heavy {
			return 0.637301 * ((1 + 0.479205*x) / (1 + 0.311514*x))
		}
		return 1.03216 + 0.000504744*x + 2.12276e-08*x*x - 2.27663e-10*x*x*x
	}
}
