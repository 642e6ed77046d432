package sticks

import (
	"image"
	"sync/atomic"

	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
)

// Source retrieves glyph candidates from one raster.
//
// Source is safe for concurrent use: the raster is read-only and glyph
// identifiers come from an atomic counter, so systems of one sheet can share it.
type Source struct {
	pixels imaging.Pixels
	nextID atomic.Int64
}

// NewSource returns a source reading px. Glyph identifiers start at firstID.
func NewSource(px imaging.Pixels, firstID int) *Source {
	s := &Source{pixels: px}
	s.nextID.Store(int64(firstID))
	return s
}

// HorizontalSections returns the sections found in area.
func (s *Source) HorizontalSections(area image.Rectangle) []*Section {
	return BuildSections(s.pixels, area, 1)
}

// RetrieveFilaments assembles glyphs from sections. Each call reserves a
// contiguous block of identifiers.
func (s *Source) RetrieveFilaments(sections []*Section, p Params) []*glyph.Glyph {
	// Upper bound: one filament per section
	n := int64(len(sections))
	first := s.nextID.Add(n) - n
	return RetrieveFilaments(sections, p, int(first))
}
