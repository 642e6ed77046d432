package geom

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Rectangle
		want int
	}{
		{"overlapping", image.Rect(0, 0, 10, 2), image.Rect(5, 0, 20, 2), 5},
		{"touching", image.Rect(0, 0, 10, 2), image.Rect(10, 0, 20, 2), 0},
		{"gap", image.Rect(0, 0, 10, 2), image.Rect(13, 0, 20, 2), -3},
		{"nested", image.Rect(0, 0, 30, 2), image.Rect(10, 5, 20, 7), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, XOverlap(tt.a, tt.b))
			assert.Equal(t, tt.want, XOverlap(tt.b, tt.a))
		})
	}
}

func TestIntersections(t *testing.T) {
	p1, p2 := Pt(0, 10), Pt(10, 20)

	assert.InDelta(t, 15.0, IntersectionAtX(p1, p2, 5).Y, 1e-9)
	assert.InDelta(t, 30.0, IntersectionAtX(p1, p2, 20).Y, 1e-9, "extrapolates past the segment")
	assert.InDelta(t, 5.0, XAtY(p1, p2, 15), 1e-9)

	vertical := IntersectionAtY(Pt(4, 0), Pt(4, 40), 12)
	assert.Equal(t, Pt(4, 12), vertical)
}

func TestLineFitter(t *testing.T) {
	var f LineFitter
	for x := 0; x < 10; x++ {
		f.Include(float64(x), 2*float64(x)+3, 1)
	}
	l := f.Line()
	assert.InDelta(t, 2.0, l.Slope, 1e-9)
	assert.InDelta(t, 3.0, l.Intercept, 1e-9)
	assert.InDelta(t, 23.0, l.YAtX(10), 1e-9)

	var single LineFitter
	single.Include(5, 7, 3)
	assert.Equal(t, Line{Intercept: 7}, single.Line())
}

func TestPolygonContains(t *testing.T) {
	beam := Parallelogram(Pt(0, 100), Pt(100, 80), 10)

	assert.True(t, beam.Contains(Pt(50, 90)))
	assert.False(t, beam.Contains(Pt(50, 100)))
	assert.False(t, beam.Contains(Pt(150, 80)))
	assert.Equal(t, image.Rect(0, 75, 101, 106), beam.Bounds())
}

func TestRoundHalfEven(t *testing.T) {
	assert.Equal(t, 2, RoundHalfEven(2.5))
	assert.Equal(t, 4, RoundHalfEven(3.5))
	assert.Equal(t, 3, RoundHalfEven(3.2))
}
