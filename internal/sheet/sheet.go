// Package sheet holds the upstream model of a page: its scale, its picture
// and its systems with their staves and interpretation graphs.
package sheet

import (
	"errors"
	"image"
	"math"

	"github.com/google/uuid"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/scale"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
	"github.com/ironsheep/omr-tools-mcp/internal/staff"
	"github.com/ironsheep/omr-tools-mcp/internal/sticks"
)

// ErrNoStaff is returned when a system has no staff.
var ErrNoStaff = errors.New("system has no staff")

// Sheet is one page under recognition.
type Sheet struct {
	// RunID correlates the log records of one recognition run.
	RunID   uuid.UUID
	Scale   *scale.Scale
	Picture *imaging.Picture
	Systems []*System

	// Source assembles glyph candidates from the staff-line-free raster.
	Source *sticks.Source
}

// FlagCandidate is a flag glyph proposed by the symbol classifier.
type FlagCandidate struct {
	Glyph *glyph.Glyph
	Shape glyph.Shape
	Grade float64
}

// System is a horizontal band of the page, processed independently.
type System struct {
	ID     int
	Area   image.Rectangle
	Staves []*staff.Staff
	Sig    *sig.Graph

	Flags []FlagCandidate
}

// StaffAt returns the staff closest to p, measured in pitch positions, or
// nil when the system has no staff.
func (s *System) StaffAt(p geom.Point) *staff.Staff {
	var best *staff.Staff
	bestDist := math.Inf(1)
	for _, st := range s.Staves {
		d := math.Max(0, math.Abs(st.PitchPositionOf(p))-4)
		if d < bestDist {
			best, bestDist = st, d
		}
	}
	return best
}

// Staff returns the staff with the given identifier.
func (s *System) Staff(id int) *staff.Staff {
	for _, st := range s.Staves {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// GoodBeams returns the beam and beam hook inters graded at least minGrade.
func (s *System) GoodBeams(minGrade float64) []*sig.Inter {
	return s.Sig.Inters(func(in *sig.Inter) bool {
		return (in.Kind == sig.Beam || in.Kind == sig.BeamHook) && in.Grade >= minGrade
	})
}

// Stems returns the stem inters sorted by abscissa.
func (s *System) Stems() []*sig.Inter {
	stems := s.Sig.Inters(sig.OfKind(sig.Stem))
	sig.SortByAbscissa(stems)
	return stems
}

// System returns the system with the given identifier.
func (sh *Sheet) System(id int) *System {
	for _, sys := range sh.Systems {
		if sys.ID == id {
			return sys
		}
	}
	return nil
}
