// Package flag attaches flag candidates to the stems of a system.
//
// A flag is looked for stems around its foot, the lower third of an up flag
// or the upper third of a down flag. Each compatible stem yields a
// flag-stem relation; the flag inter is created on the first one.
package flag

import (
	"image"
	"log/slog"
	"math"

	"github.com/ironsheep/omr-tools-mcp/internal/config"
	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/scale"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
)

// Create links the flag glyph g, of the given shape and grade, to the
// matching stems of sys and returns the flag inter, or nil when no stem
// fits. Stems must be sorted by abscissa.
func Create(g *glyph.Glyph, shape glyph.Shape, grade float64, sys *sheet.System,
	stems []*sig.Inter, sc *scale.Scale, cfg config.FlagConfig, logger *slog.Logger) *sig.Inter {
	if logger == nil {
		logger = slog.Default()
	}
	graph := sys.Sig
	maxGapY := sc.ToPixels(cfg.YGapMax)

	isUp := shape.IsFlagUp()
	isSmall := shape.IsSmallFlag()
	stemWidth := sc.MaxStem
	box := g.Bounds()
	footHeight := int(math.RoundToEven(float64(box.Dy()) / 3))

	// Reference point used to measure the gaps to a stem
	ref := image.Pt(box.Min.X, box.Min.Y+footHeight)
	y := box.Min.Y + maxGapY
	midFootY := ref.Y - footHeight/2
	if isUp {
		ref.Y = box.Max.Y - footHeight
		y = box.Max.Y - footHeight - maxGapY
		midFootY = ref.Y + footHeight/2
	}

	// -1 copes with the stem margin when erased
	luBox := image.Rect(box.Min.X-1-stemWidth, y, box.Min.X-1+stemWidth, y+footHeight)

	limits := sig.GapLimits{
		XGapMax:  float64(cfg.XGapMax),
		YGapMax:  float64(cfg.YGapMax),
		MinGrade: cfg.MinRelationGrade,
	}
	refY := float64(ref.Y)
	endY := box.Min.Y
	if isUp {
		endY = box.Max.Y - 1
	}

	var flag *sig.Inter
	for _, stem := range sig.IntersectedInters(stems, luBox) {
		// Small flags go with grace stems only
		if stem.Grace != isSmall {
			continue
		}

		start, stop := stem.Glyph.Start(), stem.Glyph.Stop()
		xGap := float64(ref.X) - geom.XAtY(start, stop, refY)
		var yGap float64
		switch {
		case refY < start.Y:
			yGap = start.Y - refY
		case refY > stop.Y:
			yGap = refY - stop.Y
		}

		ext := geom.IntersectionAtY(start, stop, float64(endY))
		rel, ok := sig.NewFlagStemRelation(sc.PixelsToFrac(xGap), sc.PixelsToFrac(yGap), ext, limits)
		if !ok {
			continue
		}

		// Flag direction must agree with its position on the stem and with
		// the direction given by the stem heads
		midStemY := (start.Y + stop.Y) / 2
		dir := graph.StemDirection(stem.ID)
		if isUp {
			if float64(midFootY) <= midStemY || dir == -1 {
				continue
			}
		} else if float64(midFootY) >= midStemY || dir == 1 {
			continue
		}

		if flag == nil {
			kind := sig.Flag
			if isSmall {
				kind = sig.SmallFlag
			}
			flag = sig.NewInter(kind, g, grade)
			flag.Shape = shape
			flag.Staff = stem.Staff
			graph.Insert(flag)
			g.SetShape(shape)
		} else if flag.Staff != stem.Staff {
			logger.Warn("different staves for flag and stem",
				slog.String("flag", flag.String()), slog.String("stem", stem.String()))
		}

		if _, err := graph.Relate(flag.ID, stem.ID, rel); err != nil {
			logger.Error("cannot relate flag to stem", slog.Any("error", err))
		}
	}

	return flag
}

// Build attaches every flag candidate of sys and returns the created flag
// inters.
func Build(sys *sheet.System, sc *scale.Scale, cfg config.FlagConfig, logger *slog.Logger) []*sig.Inter {
	if logger == nil {
		logger = slog.Default()
	}
	stems := sys.Stems()

	var flags []*sig.Inter
	for _, fc := range sys.Flags {
		f := Create(fc.Glyph, fc.Shape, fc.Grade, sys, stems, sc, cfg, logger)
		if f == nil {
			logger.Debug("flag without stem", slog.Int("glyph", fc.Glyph.ID()), slog.String("shape", string(fc.Shape)))
			continue
		}
		flags = append(flags, f)
	}
	return flags
}

// Value returns the number of individual flags carried by a flag inter.
func Value(in *sig.Inter) int {
	v, _ := glyph.FlagValue(in.Shape)
	return v
}
