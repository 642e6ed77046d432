package sheet

import (
	"fmt"
	"image"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/scale"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
	"github.com/ironsheep/omr-tools-mcp/internal/staff"
	"github.com/ironsheep/omr-tools-mcp/internal/sticks"
)

// Grid is the description of a page produced by the upstream grid and
// symbol steps: scale, systems, staves, and the inters already accepted.
type Grid struct {
	Scale   scale.Scale  `yaml:"scale"`
	Systems []GridSystem `yaml:"systems"`
}

// GridSystem describes one system. An empty area is derived from the staves.
type GridSystem struct {
	ID     int          `yaml:"id"`
	Area   [4]int       `yaml:"area"`
	Staves []GridStaff  `yaml:"staves"`
	Beams  []GridBeam   `yaml:"beams"`
	Stems  []GridStem   `yaml:"stems"`
	Flags  []GridSymbol `yaml:"flags"`
}

// GridStaff describes a staff by its lines, top to bottom.
type GridStaff struct {
	ID    int        `yaml:"id"`
	Lines []GridLine `yaml:"lines"`
}

// GridLine is a staff line polyline.
type GridLine struct {
	Points    [][2]float64 `yaml:"points"`
	Thickness float64      `yaml:"thickness"`
}

// GridBeam is a beam (or beam hook) given by its median segment and height.
type GridBeam struct {
	Start  [2]float64 `yaml:"start"`
	Stop   [2]float64 `yaml:"stop"`
	Height float64    `yaml:"height"`
	Grade  float64    `yaml:"grade"`
	Hook   bool       `yaml:"hook"`
}

// GridStem is a stem with the heads attached to it.
type GridStem struct {
	Top    [2]float64   `yaml:"top"`
	Bottom [2]float64   `yaml:"bottom"`
	Width  float64      `yaml:"width"`
	Grace  bool         `yaml:"grace"`
	Grade  float64      `yaml:"grade"`
	Heads  []GridSymbol `yaml:"heads"`
}

// GridSymbol is a symbol given by its shape, box and classifier grade.
type GridSymbol struct {
	Shape string  `yaml:"shape"`
	Box   [4]int  `yaml:"box"`
	Grade float64 `yaml:"grade"`
}

// LoadGrid reads a YAML grid description.
func LoadGrid(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid: %w", err)
	}
	return ParseGrid(data)
}

// ParseGrid decodes a YAML grid description.
func ParseGrid(data []byte) (*Grid, error) {
	var g Grid
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse grid: %w", err)
	}
	if err := g.Scale.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

func pt(p [2]float64) geom.Point { return geom.Pt(p[0], p[1]) }

func rect(b [4]int) image.Rectangle { return image.Rect(b[0], b[1], b[2], b[3]) }

// Build creates the sheet described by the grid on top of pic.
//
// Upstream symbols become glyphs numbered from 1; the candidate source of the
// sheet numbers its glyphs after them.
func (g *Grid) Build(pic *imaging.Picture) (*Sheet, error) {
	sc := g.Scale
	sh := &Sheet{RunID: uuid.New(), Scale: &sc, Picture: pic}

	nextID := 1
	newID := func() int {
		id := nextID
		nextID++
		return id
	}

	for _, gs := range g.Systems {
		sys, err := g.buildSystem(gs, pic.Page().Bounds(), newID)
		if err != nil {
			return nil, fmt.Errorf("system %d: %w", gs.ID, err)
		}
		sh.Systems = append(sh.Systems, sys)
	}

	free, err := pic.Source(imaging.StaffLineFreeSource)
	if err != nil {
		return nil, err
	}
	sh.Source = sticks.NewSource(free, nextID)
	return sh, nil
}

func (g *Grid) buildSystem(gs GridSystem, page image.Rectangle, newID func() int) (*System, error) {
	if len(gs.Staves) == 0 {
		return nil, ErrNoStaff
	}
	sys := &System{ID: gs.ID, Area: rect(gs.Area), Sig: sig.NewGraph()}

	var covered image.Rectangle
	for _, gst := range gs.Staves {
		lines := make([]*staff.Line, 0, len(gst.Lines))
		for _, gl := range gst.Lines {
			pts := make([]geom.Point, 0, len(gl.Points))
			for _, p := range gl.Points {
				pts = append(pts, pt(p))
			}
			thickness := gl.Thickness
			if thickness == 0 {
				thickness = float64(g.Scale.LineThickness)
			}
			line, err := staff.NewLine(pts, thickness)
			if err != nil {
				return nil, fmt.Errorf("staff %d: %w", gst.ID, err)
			}
			lines = append(lines, line)
			covered = covered.Union(line.Bounds())
		}
		st, err := staff.New(gst.ID, lines)
		if err != nil {
			return nil, err
		}
		sys.Staves = append(sys.Staves, st)
	}

	if sys.Area.Empty() {
		margin := 4 * g.Scale.Interline
		sys.Area = covered.Inset(-margin).Intersect(page)
	}

	for _, gb := range gs.Beams {
		start, stop := pt(gb.Start), pt(gb.Stop)
		kind := sig.Beam
		if gb.Hook {
			kind = sig.BeamHook
		}
		gl := glyph.NewStick(newID(), start, stop, gb.Height, glyph.Horizontal)
		in := sig.NewInter(kind, gl, gb.Grade)
		in.Area = geom.Parallelogram(start, stop, gb.Height)
		in.Bounds = in.Area.Bounds()
		sys.Sig.Insert(in)
	}

	for _, gst := range gs.Stems {
		width := gst.Width
		if width == 0 {
			width = float64(g.Scale.MaxStem)
		}
		gl := glyph.NewStick(newID(), pt(gst.Top), pt(gst.Bottom), width, glyph.Vertical)
		gl.SetShape(glyph.Stem)
		stem := sig.NewInter(sig.Stem, gl, gst.Grade)
		stem.Grace = gst.Grace
		if st := sys.StaffAt(gl.Middle()); st != nil {
			stem.Staff = st.ID
		}
		sys.Sig.Insert(stem)

		for _, gh := range gst.Heads {
			hg := glyph.New(newID(), glyph.Geometry{
				Bounds:   rect(gh.Box),
				Centroid: geom.AreaCenter(rect(gh.Box)),
			})
			hg.SetShape(glyph.NoteheadBlack)
			head := sig.NewInter(sig.Head, hg, gh.Grade)
			head.Staff = stem.Staff
			sys.Sig.Insert(head)
			if _, err := sys.Sig.Relate(head.ID, stem.ID, sig.Relation{Kind: sig.HeadStem, Grade: 1}); err != nil {
				return nil, err
			}
		}
	}

	for _, gf := range gs.Flags {
		shape, ok := glyph.ParseShape(gf.Shape)
		if !ok || !shape.IsFlag() {
			return nil, fmt.Errorf("unknown flag shape %q", gf.Shape)
		}
		box := rect(gf.Box)
		gl := glyph.New(newID(), glyph.Geometry{
			Bounds:   box,
			Centroid: geom.AreaCenter(box),
			Weight:   box.Dx() * box.Dy(),
		})
		sys.Flags = append(sys.Flags, FlagCandidate{Glyph: gl, Shape: shape, Grade: gf.Grade})
	}

	return sys, nil
}
