package sig

import (
	"math"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
)

// GapLimits bounds the gaps of a stem relation, in interline fractions.
type GapLimits struct {
	XGapMax  float64
	YGapMax  float64
	MinGrade float64
}

// NewFlagStemRelation grades a flag-stem connection from its gaps.
//
// Each gap yields a partial score 1-|gap|/max clamped to [0, 1]; the relation
// grade is their geometric mean. ok reports whether the grade reaches
// limits.MinGrade.
func NewFlagStemRelation(xGap, yGap float64, ext geom.Point, limits GapLimits) (rel Relation, ok bool) {
	rel = Relation{
		Kind:           FlagStem,
		XGap:           xGap,
		YGap:           yGap,
		Grade:          gapGrade(xGap, yGap, limits),
		ExtensionPoint: ext,
	}
	return rel, rel.Grade >= limits.MinGrade && rel.Grade > 0
}

func gapGrade(xGap, yGap float64, limits GapLimits) float64 {
	if limits.XGapMax <= 0 || limits.YGapMax <= 0 {
		return 0
	}
	x := clampUnit(1 - math.Abs(xGap)/limits.XGapMax)
	y := clampUnit(1 - math.Abs(yGap)/limits.YGapMax)
	return math.Sqrt(x * y)
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
