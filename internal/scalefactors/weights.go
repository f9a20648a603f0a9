package scalefactors

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"go-hep.org/x/hep/hbook"

	"github.com/analysis-suite/objsel/internal/systematics"
)

var (
	// ErrUnknownTable is returned when a lookup names a table that was never loaded.
	ErrUnknownTable = errors.New("unknown weight table")
	// ErrBadTable is returned for a table whose edges and values disagree.
	ErrBadTable = errors.New("malformed weight table")
)

// Well-known table names.
const (
	TableMuonID       = "Muon_ID"
	TableMuonTracking = "Muon_Tracking"
	TableElectronSF   = "Electron_SF"
	TableBTagEffB     = "btagEff_b"
	TableBTagEffC     = "btagEff_c"
	TableBTagEffUDSG  = "btagEff_udsg"
	TablePileup       = "pileupSF"
)

// Axis names the candidate quantity a table is binned in.
type Axis int

const (
	AxisPt Axis = iota
	AxisEta
	AxisAbsEta
	AxisNPU
)

var axisNames = [...]string{
	AxisPt:     "pt",
	AxisEta:    "eta",
	AxisAbsEta: "abseta",
	AxisNPU:    "npu",
}

func (a Axis) String() string {
	if a < 0 || int(a) >= len(axisNames) {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axisNames[a]
}

// ParseAxis maps "pt", "eta", "abseta" or "npu" to an Axis.
func ParseAxis(s string) (Axis, error) {
	for i, n := range axisNames {
		if n == s {
			return Axis(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown axis %q", ErrBadTable, s)
}

// Point is where a table is evaluated.
type Point struct {
	Pt  float64
	Eta float64
	NPU float64
}

func (a Axis) of(p Point) float64 {
	switch a {
	case AxisPt:
		return p.Pt
	case AxisEta:
		return p.Eta
	case AxisAbsEta:
		return math.Abs(p.Eta)
	default:
		return p.NPU
	}
}

// TableSpec is the serialized form of a table. Values and Errors are
// row-major over the x bins, so a 2-D entry (ix, iy) is at ix*ny+iy.
type TableSpec struct {
	Name   string    `json:"name"`
	X      string    `json:"x"`
	Y      string    `json:"y,omitempty"`
	XEdges []float64 `json:"x_edges"`
	YEdges []float64 `json:"y_edges,omitempty"`
	Values []float64 `json:"values"`
	Errors []float64 `json:"errors,omitempty"`
}

type table struct {
	name   string
	x, y   Axis
	twoD   bool
	xedges []float64
	yedges []float64

	val1, err1 *hbook.H1D
	val2, err2 *hbook.H2D
	// bins2 maps (ix, iy) to the position in the H2D bin slice.
	bins2 [][]int
}

// Weights is a set of named lookup tables. It is read-only once built.
type Weights struct {
	tables map[string]*table
}

// NewWeights builds a table set from specs. Later specs replace earlier
// ones of the same name.
func NewWeights(specs ...TableSpec) (*Weights, error) {
	w := &Weights{tables: make(map[string]*table, len(specs))}
	for _, spec := range specs {
		if err := w.add(spec); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// LoadWeights returns the built-in tables overlaid with the tables in the
// JSON file at path.
func LoadWeights(path string) (*Weights, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("weights file must have .json extension, got %q", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat weights file: %w", err)
	}
	const maxFileSize = 16 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("weights file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}

	var file struct {
		Tables []TableSpec `json:"tables"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse weights JSON: %w", err)
	}
	return NewWeights(append(BuiltinSpecs(), file.Tables...)...)
}

// Has reports whether a table named name is loaded.
func (w *Weights) Has(name string) bool {
	_, ok := w.tables[name]
	return ok
}

// Names returns the loaded table names, sorted.
func (w *Weights) Names() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup evaluates table name at p under variation v.
func (w *Weights) Lookup(name string, v systematics.Variation, p Point) (float64, error) {
	t, ok := w.tables[name]
	if !ok {
		return 1, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	val, unc := t.at(p)
	switch v {
	case systematics.Up:
		return val + unc, nil
	case systematics.Down:
		return val - unc, nil
	default:
		return val, nil
	}
}

func (w *Weights) add(spec TableSpec) error {
	t, err := newTable(spec)
	if err != nil {
		return err
	}
	w.tables[spec.Name] = t
	return nil
}

func newTable(spec TableSpec) (*table, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: table without a name", ErrBadTable)
	}
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrBadTable, spec.Name, fmt.Sprintf(format, args...))
	}

	x, err := ParseAxis(spec.X)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	if err := checkEdges(spec.XEdges); err != nil {
		return nil, bad("x edges: %v", err)
	}
	t := &table{name: spec.Name, x: x, xedges: slices.Clone(spec.XEdges)}
	nx, ny := len(spec.XEdges)-1, 1

	if spec.Y != "" {
		if t.y, err = ParseAxis(spec.Y); err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		if err := checkEdges(spec.YEdges); err != nil {
			return nil, bad("y edges: %v", err)
		}
		t.twoD = true
		t.yedges = slices.Clone(spec.YEdges)
		ny = len(spec.YEdges) - 1
	}

	if len(spec.Values) != nx*ny {
		return nil, bad("%d values for %dx%d bins", len(spec.Values), nx, ny)
	}
	errs := spec.Errors
	if len(errs) == 0 {
		errs = make([]float64, nx*ny)
	} else if len(errs) != nx*ny {
		return nil, bad("%d errors for %dx%d bins", len(errs), nx, ny)
	}

	if !t.twoD {
		t.val1 = hbook.NewH1DFromEdges(t.xedges)
		t.err1 = hbook.NewH1DFromEdges(t.xedges)
		for ix := range nx {
			xc := center(t.xedges, ix)
			t.val1.Fill(xc, spec.Values[ix])
			t.err1.Fill(xc, errs[ix])
		}
		return t, nil
	}

	t.val2 = hbook.NewH2DFromEdges(t.xedges, t.yedges)
	t.err2 = hbook.NewH2DFromEdges(t.xedges, t.yedges)
	for ix := range nx {
		for iy := range ny {
			xc, yc := center(t.xedges, ix), center(t.yedges, iy)
			t.val2.Fill(xc, yc, spec.Values[ix*ny+iy])
			t.err2.Fill(xc, yc, errs[ix*ny+iy])
		}
	}
	t.bins2 = make([][]int, nx)
	for ix := range t.bins2 {
		t.bins2[ix] = make([]int, ny)
	}
	for k, b := range t.val2.Binning.Bins {
		ix := binOf(t.xedges, center2(b.XRange.Min, b.XRange.Max))
		iy := binOf(t.yedges, center2(b.YRange.Min, b.YRange.Max))
		t.bins2[ix][iy] = k
	}
	return t, nil
}

func (t *table) at(p Point) (val, unc float64) {
	ix := binOf(t.xedges, t.x.of(p))
	if !t.twoD {
		return t.val1.Binning.Bins[ix].SumW(), t.err1.Binning.Bins[ix].SumW()
	}
	k := t.bins2[ix][binOf(t.yedges, t.y.of(p))]
	return t.val2.Binning.Bins[k].SumW(), t.err2.Binning.Bins[k].SumW()
}

// binOf returns the bin [edges[i], edges[i+1]) holding x, clamped to the
// first and last bins.
func binOf(edges []float64, x float64) int {
	i := sort.SearchFloat64s(edges, x)
	if i < len(edges) && edges[i] == x {
		i++
	}
	i--
	return max(0, min(i, len(edges)-2))
}

func center(edges []float64, i int) float64 { return center2(edges[i], edges[i+1]) }

func center2(lo, hi float64) float64 { return 0.5 * (lo + hi) }

func checkEdges(edges []float64) error {
	if len(edges) < 2 {
		return fmt.Errorf("need at least 2 edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return fmt.Errorf("edges not strictly increasing at %d", i)
		}
	}
	return nil
}
