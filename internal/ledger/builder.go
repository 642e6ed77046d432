// Package ledger retrieves the ledgers of a system.
//
// Candidates are horizontal filaments of the staff-line-free raster. Starting
// from each staff, virtual lines are examined one interline further at a
// time, above and below: a candidate is accepted on a line when its
// ordinates match the target derived from the staff line or from a ledger
// accepted on the previous line. A side stops at the first line without any
// accepted ledger.
package ledger

import (
	"image"
	"log/slog"
	"sort"
	"sync"

	"github.com/ironsheep/omr-tools-mcp/internal/check"
	"github.com/ironsheep/omr-tools-mcp/internal/config"
	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/scale"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
	"github.com/ironsheep/omr-tools-mcp/internal/sticks"
)

// CandidateSource supplies the sections and filaments of a raster.
type CandidateSource interface {
	HorizontalSections(area image.Rectangle) []*sticks.Section
	RetrieveFilaments(sections []*sticks.Section, p sticks.Params) []*glyph.Glyph
}

// LineReport is the outcome of one virtual line lookup.
type LineReport struct {
	Staff    int `json:"staff"`
	Index    int `json:"index"`
	Accepted int `json:"accepted"`
}

// Report summarizes a build.
type Report struct {
	Candidates int          `json:"candidates"`
	Lines      []LineReport `json:"lines"`
	Ledgers    int          `json:"ledgers"`
}

// Builder retrieves the ledgers of one system.
type Builder struct {
	system    *sheet.System
	scale     *scale.Scale
	cfg       config.LedgerConfig
	goodGrade float64
	source    CandidateSource
	suite     *check.Suite[Context]
	logger    *slog.Logger

	candidates []*glyph.Glyph

	mu    sync.Mutex
	lines []LineReport
}

// NewBuilder returns a ledger builder for sys. Pixels is the staff-line-free
// raster used by the convexity check.
func NewBuilder(sys *sheet.System, sc *scale.Scale, pixels imaging.Pixels,
	source CandidateSource, cfg *config.Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		system:    sys,
		scale:     sc,
		cfg:       cfg.Ledgers,
		goodGrade: cfg.Beams.GoodGrade,
		source:    source,
		suite:     NewSuite(sc, pixels, cfg.Ledgers),
		logger:    logger.With(slog.String("builder", "ledger")),
	}
}

// Suite returns the check suite used to grade candidates.
func (b *Builder) Suite() *check.Suite[Context] { return b.suite }

// Build retrieves the candidates and scans every staff of the system.
func (b *Builder) Build() (*Report, error) {
	b.candidates = b.retrieveCandidates()
	b.logger.Debug("ledger candidates", slog.Int("count", len(b.candidates)))

	err := b.filterLedgers()
	return b.report(), err
}

// Candidates returns the candidates of the last retrieval, sorted by abscissa.
func (b *Builder) Candidates() []*glyph.Glyph {
	if b.candidates == nil {
		b.candidates = b.retrieveCandidates()
	}
	return b.candidates
}

// Check grades stick against a target ordinate with the ledger suite.
func (b *Builder) Check(stick *glyph.Glyph, target float64) *check.Impacts {
	return b.suite.Evaluate(Context{Stick: stick, Target: target})
}

func (b *Builder) filamentParams() sticks.Params {
	sc, c := b.scale, b.cfg
	return sticks.Params{
		MaxThickness:         sc.LineToPixelsDouble(c.MaxThicknessHigh),
		MinCoreSectionLength: sc.ToPixels(c.MinCoreSectionLength),
		MaxCoordGap:          sc.ToPixels(c.MaxCoordGap),
		MaxPosGap:            sc.ToPixelsDouble(c.MaxPosGap),
		MaxOverlapSpace:      sc.ToPixels(c.MaxOverlapSpace),
		MaxOverlapDeltaPos:   sc.LineToPixelsDouble(c.MaxOverlapDeltaPos),
	}
}

// retrieveCandidates assembles filaments from the long enough sections of
// the system and drops those lying on a good beam. It does not touch the graph.
func (b *Builder) retrieveCandidates() []*glyph.Glyph {
	minWidth := b.scale.ToPixels(b.cfg.MinLedgerLengthLow)

	var kept []*sticks.Section
	for _, s := range b.source.HorizontalSections(b.system.Area) {
		if s.Length() >= minWidth {
			kept = append(kept, s)
		}
	}

	glyphs := b.source.RetrieveFilaments(kept, b.filamentParams())

	beams := b.system.GoodBeams(b.goodGrade)
	sig.SortByAbscissa(beams)

	candidates := make([]*glyph.Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if b.cfg.IsVip(g.ID()) {
			g.Vip = true
		}
		if b.beamOverlap(g, beams) {
			continue
		}
		candidates = append(candidates, g)
	}
	return candidates
}

// beamOverlap reports whether the stick middle lies in the area of one of
// beams, sorted by abscissa.
func (b *Builder) beamOverlap(stick *glyph.Glyph, beams []*sig.Inter) bool {
	middle := stick.Middle()
	for _, beam := range beams {
		if beam.Area.Contains(middle) {
			b.vip(stick, "ledger stick overlaps beam", "beam", beam.ID)
			return true
		}
		if float64(beam.Bounds.Min.X) > middle.X {
			return false
		}
	}
	return false
}

func (b *Builder) record(line LineReport) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

func (b *Builder) report() *Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := append([]LineReport(nil), b.lines...)
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Staff != lines[j].Staff {
			return lines[i].Staff < lines[j].Staff
		}
		return lines[i].Index < lines[j].Index
	})

	total := 0
	for _, l := range lines {
		total += l.Accepted
	}
	return &Report{Candidates: len(b.candidates), Lines: lines, Ledgers: total}
}

// vip logs a tracing message for VIP sticks only.
func (b *Builder) vip(stick *glyph.Glyph, msg string, args ...any) {
	if !stick.Vip {
		return
	}
	b.logger.Info(msg, append([]any{slog.Int("glyph", stick.ID())}, args...)...)
}

// middleIn reports whether the stick middle lies in box.
func middleIn(stick *glyph.Glyph, box image.Rectangle) bool {
	return geom.Contains(box, stick.Middle())
}
