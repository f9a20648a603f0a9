package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownYear is returned for a data-taking period with no threshold table.
var ErrUnknownYear = errors.New("unknown data-taking period")

// Year is a data-taking period.
type Year int

const (
	Year2016 Year = iota
	Year2017
	Year2018
)

func (y Year) String() string {
	switch y {
	case Year2016:
		return "2016"
	case Year2017:
		return "2017"
	case Year2018:
		return "2018"
	default:
		return fmt.Sprintf("Year(%d)", int(y))
	}
}

// ParseYear maps "2016", "2017" or "2018" to a Year.
func ParseYear(s string) (Year, error) {
	switch s {
	case "2016":
		return Year2016, nil
	case "2017":
		return Year2017, nil
	case "2018":
		return Year2018, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownYear, s)
}

// Thresholds are the period-dependent selection cuts. Relative-pt cuts are
// stored squared since they are compared against squared quantities.
type Thresholds struct {
	Year Year

	// DeepCSV discriminant working points.
	LooseBTag  float64
	MediumBTag float64
	TightBTag  float64

	MuonIso         float64
	MuonPtRatio     float64
	MuonPtRelSq     float64
	ElectronIso     float64
	ElectronPtRatio float64
	ElectronPtRelSq float64
}

var periods = [...]Thresholds{
	Year2016: {
		Year:            Year2016,
		LooseBTag:       0.2219,
		MediumBTag:      0.6324,
		TightBTag:       0.8958,
		MuonIso:         0.16,
		MuonPtRatio:     0.76,
		MuonPtRelSq:     math.Pow(7.2, 2),
		ElectronIso:     0.12,
		ElectronPtRatio: 0.80,
		ElectronPtRelSq: math.Pow(7.2, 2),
	},
	Year2017: {
		Year:            Year2017,
		LooseBTag:       0.1522,
		MediumBTag:      0.4941,
		TightBTag:       0.8001,
		MuonIso:         0.16,
		MuonPtRatio:     0.74,
		MuonPtRelSq:     math.Pow(6.8, 2),
		ElectronIso:     0.12,
		ElectronPtRatio: 0.78,
		ElectronPtRelSq: math.Pow(8.0, 2),
	},
	Year2018: {
		Year:            Year2018,
		LooseBTag:       0.1241,
		MediumBTag:      0.4184,
		TightBTag:       0.7527,
		MuonIso:         0.16,
		MuonPtRatio:     0.74,
		MuonPtRelSq:     math.Pow(6.8, 2),
		ElectronIso:     0.12,
		ElectronPtRatio: 0.78,
		ElectronPtRelSq: math.Pow(8.0, 2),
	},
}

// ThresholdsFor returns a copy of the threshold table for y.
func ThresholdsFor(y Year) (Thresholds, error) {
	if y < 0 || int(y) >= len(periods) {
		return Thresholds{}, fmt.Errorf("%w: %s", ErrUnknownYear, y)
	}
	return periods[y], nil
}
