package geom

import "image"

// Polygon is a closed outline, such as the parallelogram area of a beam.
type Polygon []Point

// Parallelogram builds the area swept by a segment of the given vertical height,
// centered on the segment (p1, p2).
func Parallelogram(p1, p2 Point, height float64) Polygon {
	h := height / 2
	return Polygon{
		{X: p1.X, Y: p1.Y - h},
		{X: p2.X, Y: p2.Y - h},
		{X: p2.X, Y: p2.Y + h},
		{X: p1.X, Y: p1.Y + h},
	}
}

// Contains reports whether p lies inside the polygon (even-odd rule).
func (pg Polygon) Contains(p Point) bool {
	inside := false
	for i, j := 0, len(pg)-1; i < len(pg); j, i = i, i+1 {
		a, b := pg[i], pg[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// Bounds returns the smallest pixel rectangle enclosing the polygon.
func (pg Polygon) Bounds() image.Rectangle {
	if len(pg) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pg[0].X, pg[0].Y
	maxX, maxY := minX, minY
	for _, p := range pg[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return image.Rect(int(minX), int(minY), int(maxX)+1, int(maxY)+1)
}
