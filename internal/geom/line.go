package geom

import "math"

// Line is a least-squares fitted line y = Slope*x + Intercept, suited to rather
// horizontal sticks.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// YAtX returns the line ordinate at abscissa x.
func (l Line) YAtX(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// Distance returns the vertical distance from p to the line.
func (l Line) Distance(p Point) float64 {
	return math.Abs(p.Y - l.YAtX(p.X))
}

// LineThrough returns the line passing through p1 and p2.
// A vertical pair yields a horizontal line through their mean ordinate.
func LineThrough(p1, p2 Point) Line {
	if p1.X == p2.X {
		return Line{Intercept: (p1.Y + p2.Y) / 2}
	}
	slope := (p2.Y - p1.Y) / (p2.X - p1.X)
	return Line{Slope: slope, Intercept: p1.Y - slope*p1.X}
}

// LineFitter accumulates weighted samples for a least-squares fit.
type LineFitter struct {
	n, sx, sy, sxx, sxy float64
}

// Include adds a sample with the given weight.
func (f *LineFitter) Include(x, y, weight float64) {
	f.n += weight
	f.sx += weight * x
	f.sy += weight * y
	f.sxx += weight * x * x
	f.sxy += weight * x * y
}

// Line returns the fitted line. With a degenerate abscissa spread, the line is
// horizontal through the mean ordinate.
func (f *LineFitter) Line() Line {
	if f.n == 0 {
		return Line{}
	}
	den := f.n*f.sxx - f.sx*f.sx
	if math.Abs(den) < 1e-9 {
		return Line{Intercept: f.sy / f.n}
	}
	slope := (f.n*f.sxy - f.sx*f.sy) / den
	return Line{Slope: slope, Intercept: (f.sy - slope*f.sx) / f.n}
}
