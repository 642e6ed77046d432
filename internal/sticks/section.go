package sticks

import (
	"image"

	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
)

// Run is a horizontal sequence of foreground pixels in one row.
type Run struct {
	Y      int `json:"y"`
	X      int `json:"x"`
	Length int `json:"length"`
}

// End returns the first column after the run.
func (r Run) End() int { return r.X + r.Length }

func (r Run) overlaps(o Run) bool {
	return r.X < o.End() && o.X < r.End()
}

// Section is a vertical pile of runs, one per consecutive row.
type Section struct {
	ID   int
	Runs []Run
}

// Bounds returns the bounding box of the section.
func (s *Section) Bounds() image.Rectangle {
	if len(s.Runs) == 0 {
		return image.Rectangle{}
	}
	b := image.Rect(s.Runs[0].X, s.Runs[0].Y, s.Runs[0].End(), s.Runs[0].Y+1)
	for _, r := range s.Runs[1:] {
		b = b.Union(image.Rect(r.X, r.Y, r.End(), r.Y+1))
	}
	return b
}

// Weight returns the number of pixels.
func (s *Section) Weight() int {
	w := 0
	for _, r := range s.Runs {
		w += r.Length
	}
	return w
}

// Length returns the horizontal extent in pixels.
func (s *Section) Length() int { return s.Bounds().Dx() }

// Thickness returns the number of rows.
func (s *Section) Thickness() int { return len(s.Runs) }

// rowRuns extracts the runs of row y restricted to columns [minX, maxX).
func rowRuns(px imaging.Pixels, y, minX, maxX int) []Run {
	var runs []Run
	start := -1
	for x := minX; x < maxX; x++ {
		if px.IsFore(x, y) {
			if start < 0 {
				start = x
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, Run{Y: y, X: start, Length: x - start})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, Run{Y: y, X: start, Length: maxX - start})
	}
	return runs
}

// BuildSections scans area row by row and links runs into sections.
//
// A run continues the section of the run above when they overlap and neither
// overlaps any other run of the adjacent row; otherwise it starts a new
// section. Section IDs start at firstID and follow creation order.
func BuildSections(px imaging.Pixels, area image.Rectangle, firstID int) []*Section {
	area = area.Intersect(px.Bounds())
	if area.Empty() {
		return nil
	}

	var sections []*Section
	var prevRuns []Run
	var prevOwners []*Section

	for y := area.Min.Y; y < area.Max.Y; y++ {
		runs := rowRuns(px, y, area.Min.X, area.Max.X)
		owners := make([]*Section, len(runs))

		for i, run := range runs {
			link := -1
			count := 0
			for j, prev := range prevRuns {
				if run.overlaps(prev) {
					link = j
					count++
				}
			}
			if count == 1 && overlapCount(prevRuns[link], runs) == 1 {
				owners[i] = prevOwners[link]
				owners[i].Runs = append(owners[i].Runs, run)
				continue
			}
			sec := &Section{ID: firstID + len(sections), Runs: []Run{run}}
			sections = append(sections, sec)
			owners[i] = sec
		}

		prevRuns, prevOwners = runs, owners
	}

	return sections
}

func overlapCount(r Run, runs []Run) int {
	n := 0
	for _, o := range runs {
		if r.overlaps(o) {
			n++
		}
	}
	return n
}
