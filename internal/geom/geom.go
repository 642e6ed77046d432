// Package geom provides the small set of planar helpers shared by the OMR packages.
//
// Pixel bounds use image.Rectangle (Min inclusive, Max exclusive). Sub-pixel
// positions use Point, with the same orientation as the image: X grows rightward
// and Y grows downward.
package geom

import (
	"image"
	"math"
)

// Point is a sub-pixel location.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Middle returns the point halfway between a and b.
func Middle(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Contains reports whether p lies inside r, using r's half-open convention.
func Contains(r image.Rectangle, p Point) bool {
	return p.X >= float64(r.Min.X) && p.X < float64(r.Max.X) &&
		p.Y >= float64(r.Min.Y) && p.Y < float64(r.Max.Y)
}

// XOverlap returns the abscissa overlap of a and b.
// A negative value is the horizontal gap between disjoint boxes.
func XOverlap(a, b image.Rectangle) int {
	return min(a.Max.X, b.Max.X) - max(a.Min.X, b.Min.X)
}

// YOverlap returns the ordinate overlap of a and b, negative for a gap.
func YOverlap(a, b image.Rectangle) int {
	return min(a.Max.Y, b.Max.Y) - max(a.Min.Y, b.Min.Y)
}

// XEmbraces reports whether abscissa x falls within r's horizontal span.
func XEmbraces(r image.Rectangle, x float64) bool {
	return x >= float64(r.Min.X) && x < float64(r.Max.X)
}

// AreaCenter returns the center of a pixel rectangle.
func AreaCenter(r image.Rectangle) Point {
	return Point{
		X: float64(r.Min.X+r.Max.X) / 2,
		Y: float64(r.Min.Y+r.Max.Y) / 2,
	}
}

// IntersectionAtX returns the point of line (p1, p2) at abscissa x,
// extrapolating beyond the segment when needed.
func IntersectionAtX(p1, p2 Point, x float64) Point {
	if p1.X == p2.X {
		return Point{X: x, Y: (p1.Y + p2.Y) / 2}
	}
	t := (x - p1.X) / (p2.X - p1.X)
	return Point{X: x, Y: p1.Y + t*(p2.Y-p1.Y)}
}

// IntersectionAtY returns the point of line (p1, p2) at ordinate y.
func IntersectionAtY(p1, p2 Point, y float64) Point {
	if p1.Y == p2.Y {
		return Point{X: (p1.X + p2.X) / 2, Y: y}
	}
	t := (y - p1.Y) / (p2.Y - p1.Y)
	return Point{X: p1.X + t*(p2.X-p1.X), Y: y}
}

// XAtY returns the abscissa of line (p1, p2) at ordinate y.
func XAtY(p1, p2 Point, y float64) float64 {
	return IntersectionAtY(p1, p2, y).X
}

// RoundHalfEven rounds like Java's Math.rint, used where pixel counts are derived
// from fractions.
func RoundHalfEven(v float64) int {
	return int(math.RoundToEven(v))
}
