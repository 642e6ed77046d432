// Package staff models the staves of a system: their lines, the pitch
// positions they define, and the ledgers accepted on each virtual line.
package staff

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"sync"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
)

// LineCount is the number of lines of a regular staff.
const LineCount = 5

var (
	// ErrLineCount is returned for a staff without exactly LineCount lines.
	ErrLineCount = errors.New("staff needs five lines")

	// ErrEmptyLine is returned for a line without points.
	ErrEmptyLine = errors.New("staff line has no points")
)

// Line is a staff line, a polyline sorted by abscissa.
type Line struct {
	Points    []geom.Point
	Thickness float64
}

// NewLine returns a line through points, sorted by abscissa.
func NewLine(points []geom.Point, thickness float64) (*Line, error) {
	if len(points) == 0 {
		return nil, ErrEmptyLine
	}
	pts := append([]geom.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	return &Line{Points: pts, Thickness: thickness}, nil
}

// YAt returns the line ordinate at abscissa x. Beyond the ends the first or
// last segment is extended.
func (l *Line) YAt(x float64) float64 {
	pts := l.Points
	if len(pts) == 1 {
		return pts[0].Y
	}
	i := sort.Search(len(pts), func(i int) bool { return pts[i].X >= x })
	switch {
	case i == 0:
		i = 1
	case i == len(pts):
		i = len(pts) - 1
	}
	return geom.IntersectionAtX(pts[i-1], pts[i], x).Y
}

// Bounds returns the box covering the line and its thickness.
func (l *Line) Bounds() image.Rectangle {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range l.Points {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	half := l.Thickness / 2
	first, last := l.Points[0], l.Points[len(l.Points)-1]
	return image.Rect(
		int(math.Floor(first.X)), int(math.Floor(minY-half)),
		int(math.Floor(last.X))+1, int(math.Ceil(maxY+half)))
}

// Staff is one five-line staff.
//
// The ledger sets are guarded by a mutex: the two sides of a staff are
// scanned concurrently.
type Staff struct {
	ID    int
	Lines []*Line

	mu      sync.Mutex
	ledgers map[int][]sig.ID
}

// New returns a staff over lines, ordered top to bottom.
func New(id int, lines []*Line) (*Staff, error) {
	if len(lines) != LineCount {
		return nil, fmt.Errorf("%w: staff %d has %d", ErrLineCount, id, len(lines))
	}
	return &Staff{ID: id, Lines: lines, ledgers: make(map[int][]sig.ID)}, nil
}

// FirstLine returns the top line.
func (s *Staff) FirstLine() *Line { return s.Lines[0] }

// LastLine returns the bottom line.
func (s *Staff) LastLine() *Line { return s.Lines[len(s.Lines)-1] }

// PitchPositionOf returns the pitch position of p: 0 on the middle line,
// -4 and +4 on the top and bottom lines, positive downward, one unit per half
// interline.
func (s *Staff) PitchPositionOf(p geom.Point) float64 {
	top := s.FirstLine().YAt(p.X)
	bottom := s.LastLine().YAt(p.X)
	return 4 * (2*p.Y - top - bottom) / (bottom - top)
}

// Ledgers returns the ledgers accepted on the virtual line at index.
func (s *Staff) Ledgers(index int) []sig.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sig.ID(nil), s.ledgers[index]...)
}

// AddLedger registers a ledger on the virtual line at index.
func (s *Staff) AddLedger(index int, id sig.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ledgers[index] {
		if existing == id {
			return
		}
	}
	s.ledgers[index] = append(s.ledgers[index], id)
}

// Purge drops deleted inters from every ledger set.
func (s *Staff) Purge(deleted []sig.ID) {
	if len(deleted) == 0 {
		return
	}
	gone := make(map[sig.ID]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for index, ids := range s.ledgers {
		kept := ids[:0]
		for _, id := range ids {
			if !gone[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(s.ledgers, index)
		} else {
			s.ledgers[index] = kept
		}
	}
}

// LedgerIndexes returns the indexes holding at least one ledger, ascending.
func (s *Staff) LedgerIndexes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.ledgers))
	for index := range s.ledgers {
		out = append(out, index)
	}
	sort.Ints(out)
	return out
}
