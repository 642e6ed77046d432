package sticks

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
)

// Params tunes filament retrieval. All values are in pixels.
type Params struct {
	// MaxThickness bounds the thickness of sections and of merged filaments.
	MaxThickness float64
	// MinCoreSectionLength is the minimum length of a section seeding a filament.
	MinCoreSectionLength int
	// MaxCoordGap is the maximum horizontal gap between two aligned filaments.
	MaxCoordGap int
	// MaxPosGap is the maximum ordinate delta across a horizontal gap.
	MaxPosGap float64
	// MaxOverlapSpace is the maximum vertical space between overlapping filaments.
	MaxOverlapSpace int
	// MaxOverlapDeltaPos is the maximum ordinate delta within an abscissa overlap.
	MaxOverlapDeltaPos float64
}

type column struct {
	count int
	sumY  float64
}

type filament struct {
	sections []*Section
	bounds   image.Rectangle
	line     geom.Line
}

func newFilament(sections ...*Section) *filament {
	f := &filament{}
	f.add(sections...)
	return f
}

func (f *filament) add(sections ...*Section) {
	for _, s := range sections {
		if len(f.sections) == 0 {
			f.bounds = s.Bounds()
		} else {
			f.bounds = f.bounds.Union(s.Bounds())
		}
		f.sections = append(f.sections, s)
	}
	f.refit()
}

// columns returns the pixel count and ordinate sum per column, indexed from
// bounds.Min.X.
func (f *filament) columns() []column {
	cols := make([]column, f.bounds.Dx())
	for _, s := range f.sections {
		for _, r := range s.Runs {
			for x := r.X; x < r.End(); x++ {
				c := &cols[x-f.bounds.Min.X]
				c.count++
				c.sumY += float64(r.Y)
			}
		}
	}
	return cols
}

func (f *filament) refit() {
	var fit geom.LineFitter
	for i, c := range f.columns() {
		if c.count > 0 {
			fit.Include(float64(f.bounds.Min.X+i), c.sumY/float64(c.count), 1)
		}
	}
	f.line = fit.Line()
}

func (f *filament) weight() int {
	w := 0
	for _, s := range f.sections {
		w += s.Weight()
	}
	return w
}

func (f *filament) thickness() float64 {
	n := 0
	for _, c := range f.columns() {
		if c.count > 0 {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(f.weight()) / float64(n)
}

// tryMerge returns the union of a and b when they are aligned neighbours,
// nil otherwise.
func tryMerge(a, b *filament, p Params) *filament {
	if b.bounds.Min.X < a.bounds.Min.X {
		a, b = b, a
	}

	gap := b.bounds.Min.X - a.bounds.Max.X
	if gap >= 0 {
		if gap > p.MaxCoordGap {
			return nil
		}
		xa := float64(a.bounds.Max.X - 1)
		xb := float64(b.bounds.Min.X)
		if math.Abs(a.line.YAtX(xa)-b.line.YAtX(xb)) > p.MaxPosGap {
			return nil
		}
	} else {
		space := max(a.bounds.Min.Y, b.bounds.Min.Y) - min(a.bounds.Max.Y, b.bounds.Max.Y)
		if space > p.MaxOverlapSpace {
			return nil
		}
		xm := float64(b.bounds.Min.X+min(a.bounds.Max.X, b.bounds.Max.X)) / 2
		if math.Abs(a.line.YAtX(xm)-b.line.YAtX(xm)) > p.MaxOverlapDeltaPos {
			return nil
		}
	}

	merged := newFilament(append(append([]*Section{}, a.sections...), b.sections...)...)
	if merged.thickness() > p.MaxThickness {
		return nil
	}
	return merged
}

// mergeAll merges aligned filaments until no pair qualifies.
func mergeAll(fils []*filament, p Params) []*filament {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(fils); i++ {
			for j := i + 1; j < len(fils); j++ {
				if m := tryMerge(fils[i], fils[j], p); m != nil {
					fils[i] = m
					fils = append(fils[:j], fils[j+1:]...)
					merged = true
					j--
				}
			}
		}
	}
	return fils
}

// RetrieveFilaments assembles horizontal glyphs from sections.
//
// Thin sections at least MinCoreSectionLength long seed filaments; seeds are
// merged while aligned, then the remaining thin sections join the filament
// they touch. Glyphs are returned sorted by abscissa and numbered from firstID.
func RetrieveFilaments(sections []*Section, p Params, firstID int) []*glyph.Glyph {
	var fils []*filament
	var others []*Section
	for _, s := range sections {
		if float64(s.Thickness()) > p.MaxThickness {
			continue
		}
		if s.Length() >= p.MinCoreSectionLength {
			fils = append(fils, newFilament(s))
		} else {
			others = append(others, s)
		}
	}

	sort.SliceStable(fils, func(i, j int) bool {
		return fils[i].bounds.Min.X < fils[j].bounds.Min.X
	})
	fils = mergeAll(fils, p)

	for _, s := range others {
		single := newFilament(s)
		for i, f := range fils {
			if m := tryMerge(f, single, p); m != nil {
				fils[i] = m
				break
			}
		}
	}

	sort.SliceStable(fils, func(i, j int) bool {
		bi, bj := fils[i].bounds, fils[j].bounds
		if bi.Min.X != bj.Min.X {
			return bi.Min.X < bj.Min.X
		}
		return bi.Min.Y < bj.Min.Y
	})

	glyphs := make([]*glyph.Glyph, 0, len(fils))
	for i, f := range fils {
		glyphs = append(glyphs, f.toGlyph(firstID+i))
	}
	return glyphs
}

func (f *filament) toGlyph(id int) *glyph.Glyph {
	b := f.bounds
	line := f.line

	var weight int
	var sumX, sumY float64
	for _, s := range f.sections {
		for _, r := range s.Runs {
			weight += r.Length
			sumY += float64(r.Y * r.Length)
			sumX += float64(r.Length) * float64(r.X+r.End()-1) / 2
		}
	}

	var dist float64
	n := 0
	for i, c := range f.columns() {
		if c.count == 0 {
			continue
		}
		x := float64(b.Min.X + i)
		dist += math.Abs(c.sumY/float64(c.count) - line.YAtX(x))
		n++
	}

	x0, x1 := float64(b.Min.X), float64(b.Max.X-1)
	return glyph.New(id, glyph.Geometry{
		Bounds:        b,
		Orientation:   glyph.Horizontal,
		Start:         geom.Pt(x0, line.YAtX(x0)),
		Stop:          geom.Pt(x1, line.YAtX(x1)),
		Centroid:      geom.Pt(sumX/float64(weight), sumY/float64(weight)),
		Line:          line,
		MeanThickness: float64(weight) / float64(n),
		MeanDistance:  dist / float64(n),
		Weight:        weight,
	})
}
