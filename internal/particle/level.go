package particle

import (
	"errors"
	"fmt"

	"github.com/analysis-suite/objsel/internal/systematics"
)

var (
	// ErrUnregisteredLevel marks a query for a level that was never set up.
	ErrUnregisteredLevel = errors.New("unregistered selection level")
	// ErrNotFolded marks a bitmap read before Fold.
	ErrNotFolded = errors.New("bitmaps not folded")
	// ErrNoPass marks an Add outside SetGoodParticles.
	ErrNoPass = errors.New("no selection pass open")
	// ErrBadIndex marks an Add that breaks the sorted, in-range invariant.
	ErrBadIndex = errors.New("bad candidate index")
)

// Level is a named selection tier.
type Level int

const (
	Loose Level = iota
	Fake
	Tight
	Top
	Bottom
	Jet
)

func (l Level) String() string {
	switch l {
	case Loose:
		return "Loose"
	case Fake:
		return "Fake"
	case Tight:
		return "Tight"
	case Top:
		return "Top"
	case Bottom:
		return "Bottom"
	case Jet:
		return "Jet"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Bitmap records, one bit per systematic id, under which systematics a
// candidate passes a level.
type Bitmap uint32

// Has reports whether the bit for s is set.
func (b Bitmap) Has(s systematics.Systematic) bool {
	return uint32(b)&s.Bit() != 0
}

// Any reports whether b shares a bit with mask.
func (b Bitmap) Any(mask uint32) bool {
	return uint32(b)&mask != 0
}
