// Package glyph defines the geometric candidate records consumed by the OMR builders.
//
// A Glyph is assembled from pixel runs by a candidate source (see package sticks)
// and is immutable afterwards, except for its shape tag, set once when an
// interpretation is accepted, and for the diagnostic failures recorded by graders.
// Builders reference glyphs, they never copy them.
package glyph

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
)

// Orientation is the dominant axis of a glyph.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Failure is a named reason recorded when a check rejects a glyph.
type Failure string

// Geometry is the measured shape of a glyph.
//
// Start and Stop are the ends along the dominant axis: left/right for horizontal
// glyphs, top/bottom for vertical ones.
type Geometry struct {
	Bounds        image.Rectangle
	Orientation   Orientation
	Start         geom.Point
	Stop          geom.Point
	Centroid      geom.Point
	Line          geom.Line
	MeanThickness float64
	MeanDistance  float64
	Weight        int
}

// Glyph is a candidate shape assembled from pixel runs.
type Glyph struct {
	id  int
	geo Geometry

	// Vip enables verbose tracing of this glyph through builders.
	Vip bool

	mu       sync.Mutex
	shape    Shape
	failures []Failure
}

// New returns a glyph with the given identifier and geometry.
func New(id int, geo Geometry) *Glyph {
	return &Glyph{id: id, geo: geo}
}

// NewStick builds the geometry of a straight stick from its two ends and its
// thickness, used for sticks described upstream (stems, beams) rather than
// assembled from runs.
func NewStick(id int, start, stop geom.Point, thickness float64, o Orientation) *Glyph {
	half := thickness / 2
	var bounds image.Rectangle
	if o == Horizontal {
		minY := math.Min(start.Y, stop.Y) - half
		maxY := math.Max(start.Y, stop.Y) + half
		bounds = image.Rect(int(math.Floor(start.X)), int(math.Floor(minY)),
			int(math.Floor(stop.X))+1, int(math.Ceil(maxY)))
	} else {
		minX := math.Min(start.X, stop.X) - half
		maxX := math.Max(start.X, stop.X) + half
		bounds = image.Rect(int(math.Floor(minX)), int(math.Floor(start.Y)),
			int(math.Ceil(maxX)), int(math.Floor(stop.Y))+1)
	}
	length := math.Hypot(stop.X-start.X, stop.Y-start.Y)
	return New(id, Geometry{
		Bounds:        bounds,
		Orientation:   o,
		Start:         start,
		Stop:          stop,
		Centroid:      geom.Middle(start, stop),
		Line:          geom.LineThrough(start, stop),
		MeanThickness: thickness,
		Weight:        int(math.Round(length * thickness)),
	})
}

// ID returns the glyph identifier, unique within a sheet.
func (g *Glyph) ID() int { return g.id }

// Geometry returns a copy of the glyph geometry.
func (g *Glyph) Geometry() Geometry { return g.geo }

func (g *Glyph) Bounds() image.Rectangle  { return g.geo.Bounds }
func (g *Glyph) Orientation() Orientation { return g.geo.Orientation }
func (g *Glyph) Start() geom.Point        { return g.geo.Start }
func (g *Glyph) Stop() geom.Point         { return g.geo.Stop }
func (g *Glyph) Centroid() geom.Point     { return g.geo.Centroid }
func (g *Glyph) Line() geom.Line          { return g.geo.Line }
func (g *Glyph) MeanThickness() float64   { return g.geo.MeanThickness }
func (g *Glyph) MeanDistance() float64    { return g.geo.MeanDistance }
func (g *Glyph) Weight() int              { return g.geo.Weight }
func (g *Glyph) AreaCenter() geom.Point   { return geom.AreaCenter(g.geo.Bounds) }
func (g *Glyph) Slope() float64           { return g.geo.Line.Slope }

// Middle returns the point halfway between the two ends.
func (g *Glyph) Middle() geom.Point {
	return geom.Middle(g.geo.Start, g.geo.Stop)
}

// Length returns the extent along the dominant axis, in pixels.
func (g *Glyph) Length() int {
	if g.geo.Orientation == Vertical {
		return g.geo.Bounds.Dy()
	}
	return g.geo.Bounds.Dx()
}

// Shape returns the assigned shape, NoShape when none was accepted yet.
func (g *Glyph) Shape() Shape {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shape
}

// SetShape assigns the shape once. Assigning a different shape to an already
// tagged glyph is refused and reported as false.
func (g *Glyph) SetShape(s Shape) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shape != NoShape && g.shape != s {
		return false
	}
	g.shape = s
	return true
}

// AddFailure records a diagnostic rejection reason.
func (g *Glyph) AddFailure(f Failure) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.failures {
		if existing == f {
			return
		}
	}
	g.failures = append(g.failures, f)
}

// Failures returns the recorded failures in insertion order.
func (g *Glyph) Failures() []Failure {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Failure, len(g.failures))
	copy(out, g.failures)
	return out
}

func (g *Glyph) String() string {
	return fmt.Sprintf("glyph#%d", g.id)
}
