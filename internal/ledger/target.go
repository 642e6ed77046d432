package ledger

import (
	"log/slog"
	"math"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/staff"
)

// Target is the virtual line a candidate belongs to and the ordinate it
// should lie on.
type Target struct {
	Staff int     `json:"staff"`
	Index int     `json:"index"`
	Y     float64 `json:"y"`
}

// pitchFloor is the pitch magnitude of the outer staff lines.
const pitchFloor = 4

// yReference returns the ordinate the virtual line at index is measured
// from: the outer staff line for index ±1, otherwise an accepted ledger of
// the next line toward the staff that overlaps stick in abscissa.
func (b *Builder) yReference(st *staff.Staff, index int, stick *glyph.Glyph) (float64, bool) {
	prevIndex := index - 1
	if index < 0 {
		prevIndex = index + 1
	}

	if prevIndex == 0 {
		line := st.LastLine()
		if index < 0 {
			line = st.FirstLine()
		}
		return line.YAt(stick.AreaCenter().X), true
	}

	prev := st.Ledgers(prevIndex)
	if len(prev) == 0 {
		b.vip(stick, "ledger candidate orphan", "staff", st.ID, "index", index)
		return 0, false
	}

	box := stick.Bounds()
	for _, id := range prev {
		ledger, ok := b.system.Sig.Inter(id)
		if !ok || ledger.Glyph == stick {
			continue
		}
		if geom.XOverlap(box, ledger.Bounds) <= 0 {
			continue
		}

		xMid := stick.AreaCenter().X
		lg := ledger.Glyph
		if geom.XEmbraces(ledger.Bounds, xMid) {
			return lg.Line().YAtX(xMid), true
		}
		// The stick middle falls outside the reference ledger
		return geom.IntersectionAtX(lg.Start(), lg.Stop(), xMid).Y, true
	}

	b.vip(stick, "ledger candidate local orphan", "staff", st.ID, "index", index)
	return 0, false
}

// LedgerTarget finds the virtual line best suited to stick.
//
// The raw pitch of the stick centroid gives a coarse line index; the indexes
// around it are tried and the one whose target ordinate is closest to the
// stick middle wins. Sticks within the staff, or without any reference, have
// no target.
func (b *Builder) LedgerTarget(stick *glyph.Glyph) (Target, bool) {
	center := stick.Centroid()
	st := b.system.StaffAt(center)
	if st == nil {
		return Target{}, false
	}

	rawPitch := st.PitchPositionOf(center)
	if math.Abs(rawPitch) <= pitchFloor {
		return Target{}, false
	}

	sign := 1
	if rawPitch < 0 {
		sign = -1
	}
	rawIndex := geom.RoundHalfEven((math.Abs(rawPitch) - pitchFloor) / 2)
	iMin := max(1, rawIndex-1)
	iMax := rawIndex + 1

	var best Target
	found := false
	bestDy := math.Inf(1)
	yMid := stick.Middle().Y

	for i := iMin; i <= iMax; i++ {
		index := i * sign
		yRef, ok := b.yReference(st, index, stick)
		if !ok {
			continue
		}
		yTarget := yRef + float64(sign*b.scale.Interline)
		if dy := math.Abs(yTarget - yMid); dy < bestDy {
			bestDy = dy
			best = Target{Staff: st.ID, Index: index, Y: yTarget}
			found = true
		}
	}

	return best, found
}

// ResolveTarget is LedgerTarget restricted to rather horizontal sticks, as
// used when checking one candidate on demand.
func (b *Builder) ResolveTarget(stick *glyph.Glyph) (Target, bool) {
	if math.Abs(stick.Slope()) > b.cfg.MaxSlopeForCheck {
		b.logger.Debug("stick too sloped for ledger check",
			slog.Int("glyph", stick.ID()), slog.Float64("slope", stick.Slope()))
		return Target{}, false
	}
	return b.LedgerTarget(stick)
}
