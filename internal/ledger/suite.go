package ledger

import (
	"math"

	"github.com/ironsheep/omr-tools-mcp/internal/check"
	"github.com/ironsheep/omr-tools-mcp/internal/config"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/scale"
)

// Failures recorded on rejected ledger candidates.
const (
	TooThin    glyph.Failure = "Hori-TooThin"
	TooThick   glyph.Failure = "Hori-TooThick"
	TooShort   glyph.Failure = "Hori-TooShort"
	TooConcave glyph.Failure = "Hori-TooConcave"
	TooBended  glyph.Failure = "Hori-TooBended"
	TooShifted glyph.Failure = "Hori-TooShifted"
)

// Context is a ledger candidate with the ordinate it should lie on.
type Context struct {
	Stick  *glyph.Glyph
	Target float64
}

// NewSuite returns the ledger check suite. Convexity reads pixels, which
// should be the staff-line-free raster.
func NewSuite(sc *scale.Scale, pixels imaging.Pixels, cfg config.LedgerConfig) *check.Suite[Context] {
	return &check.Suite[Context]{
		Name:         "Ledger",
		MinThreshold: cfg.MinThreshold,
		Checks: []check.Check[Context]{
			{
				Name:        "MinTh.",
				Description: "Check that stick is thick enough",
				Weight:      0.5,
				Low:         float64(cfg.MinThicknessLow),
				High:        float64(cfg.MinThicknessHigh),
				Polarity:    check.HigherIsBetter,
				Failure:     TooThin,
				Eval: func(c Context) float64 {
					return sc.PixelsToFrac(c.Stick.MeanThickness())
				},
			},
			{
				Name:        "MaxTh.",
				Description: "Check that stick is not too thick",
				Weight:      0,
				Low:         float64(cfg.MaxThicknessLow),
				High:        float64(cfg.MaxThicknessHigh),
				Polarity:    check.LowerIsBetter,
				Failure:     TooThick,
				Eval: func(c Context) float64 {
					return sc.PixelsToLineFrac(c.Stick.MeanThickness())
				},
			},
			{
				Name:        "Length",
				Description: "Check that stick is long enough",
				Weight:      4,
				Low:         float64(cfg.MinLedgerLengthLow),
				High:        float64(cfg.MinLedgerLengthHigh),
				Polarity:    check.HigherIsBetter,
				Failure:     TooShort,
				Eval: func(c Context) float64 {
					return sc.PixelsToFrac(float64(c.Stick.Length()))
				},
			},
			{
				Name:        "Convex",
				Description: "Check number of convex stick ends",
				Weight:      2,
				Low:         cfg.ConvexityLow,
				High:        2,
				Polarity:    check.HigherIsBetter,
				Failure:     TooConcave,
				Eval: func(c Context) float64 {
					return float64(convexEnds(pixels, c.Stick))
				},
			},
			{
				Name:        "Straight",
				Description: "Check that stick is rather straight",
				Weight:      1,
				Low:         0,
				High:        float64(cfg.MaxDistanceHigh),
				Polarity:    check.LowerIsBetter,
				Failure:     TooBended,
				Eval: func(c Context) float64 {
					return sc.PixelsToFrac(c.Stick.MeanDistance())
				},
			},
			{
				Name:        "LPitch",
				Description: "Check that left ordinate is close to theoretical value",
				Weight:      0.5,
				Low:         0,
				High:        float64(cfg.LedgerMarginY),
				Polarity:    check.LowerIsBetter,
				Failure:     TooShifted,
				Eval: func(c Context) float64 {
					return sc.PixelsToFrac(math.Abs(c.Stick.Start().Y - c.Target))
				},
			},
			{
				Name:        "RPitch",
				Description: "Check that right ordinate is close to theoretical value",
				Weight:      0.5,
				Low:         0,
				High:        float64(cfg.LedgerMarginY),
				Polarity:    check.LowerIsBetter,
				Failure:     TooShifted,
				Eval: func(c Context) float64 {
					return sc.PixelsToFrac(math.Abs(c.Stick.Stop().Y - c.Target))
				},
			},
		},
	}
}

// convexEnds counts the stick ends whose pixels just above and just below
// the bounds are both background, so that the stick points out.
//
//	X                         X
//	+-------------------------+
//	|                         |
//	+-------------------------+
//	X                         X
func convexEnds(px imaging.Pixels, g *glyph.Glyph) int {
	box := g.Bounds()
	n := 0
	for _, x := range []int{box.Min.X, box.Max.X - 1} {
		if !px.IsFore(x, box.Min.Y-1) && !px.IsFore(x, box.Max.Y) {
			n++
		}
	}
	return n
}
