package ledger

import (
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
	"github.com/ironsheep/omr-tools-mcp/internal/staff"
)

// filterLedgers scans each staff outward, the two sides concurrently.
func (b *Builder) filterLedgers() error {
	for _, st := range b.system.Staves {
		var g errgroup.Group
		for _, dir := range []int{-1, 1} {
			dir := dir
			g.Go(func() error { return b.scanSide(st, dir) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// scanSide looks up virtual lines dir, 2*dir, ... until one stays empty.
func (b *Builder) scanSide(st *staff.Staff, dir int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("staff %d side %d: panic: %v", st.ID, dir, r)
		}
	}()

	for index := dir; ; index += dir {
		if b.lookupLine(st, index) == 0 {
			return nil
		}
	}
}

// lineBox returns the rough region of the virtual line at index: the outer
// staff line box shifted by index interlines and enlarged vertically.
func (b *Builder) lineBox(st *staff.Staff, index int) image.Rectangle {
	yMargin := b.scale.ToPixels(b.cfg.LedgerMarginY)
	line := st.LastLine()
	if index < 0 {
		line = st.FirstLine()
	}
	box := line.Bounds().Add(image.Pt(0, index*b.scale.Interline))
	box.Min.Y -= 2 * yMargin
	box.Max.Y += 2 * yMargin
	return box
}

// lookupLine accepts the ledgers of the virtual line at index and returns
// how many survive the reduction.
//
// The region is rough on purpose: the pitch checks against the target
// ordinate discard the candidates too far from the line.
func (b *Builder) lookupLine(st *staff.Staff, index int) int {
	logger := b.logger.With(slog.Int("staff", st.ID), slog.Int("index", index))
	box := b.lineBox(st, index)
	sign := 1
	if index < 0 {
		sign = -1
	}

	var ledgers []*sig.Inter
	for _, stick := range b.candidates {
		if !middleIn(stick, box) {
			continue
		}
		b.vip(stick, "lookup line", "staff", st.ID, "index", index)

		yRef, ok := b.yReference(st, index, stick)
		if !ok {
			b.vip(stick, "no line reference", "staff", st.ID, "index", index)
			continue
		}

		target := yRef + float64(sign*b.scale.Interline)
		impacts := b.Check(stick, target)
		for _, f := range impacts.Failures() {
			stick.AddFailure(f)
		}
		b.vip(stick, "ledger impacts", "staff", st.ID, "index", index, "dump", impacts.Dump())

		if !impacts.Passed() {
			continue
		}

		if existing := b.system.Sig.InterOf(stick, sig.Ledger); existing != nil {
			logger.Error("double ledger definition",
				slog.String("inter", existing.String()), slog.Int("glyph", stick.ID()))
			continue
		}

		ledger := sig.NewInter(sig.Ledger, stick, impacts.Grade)
		ledger.Shape = glyph.Ledger
		ledger.Impacts = impacts
		ledger.Index = index
		ledger.Staff = st.ID
		b.system.Sig.Insert(ledger)
		ledgers = append(ledgers, ledger)
	}

	if len(ledgers) > 0 {
		ledgers = b.reduceLedgers(st, index, ledgers, logger)
		for _, ledger := range ledgers {
			ledger.Glyph.SetShape(glyph.Ledger)
			st.AddLedger(index, ledger.ID)
			b.vip(ledger.Glyph, "ledger accepted", "inter", ledger.ID, "staff", st.ID, "index", index)
		}
	}

	logger.Debug("virtual line", slog.Int("accepted", len(ledgers)))
	b.record(LineReport{Staff: st.ID, Index: index, Accepted: len(ledgers)})
	return len(ledgers)
}

// reduceLedgers excludes the ledgers of one line that overlap in abscissa,
// reduces the exclusions and returns the survivors sorted by abscissa.
func (b *Builder) reduceLedgers(st *staff.Staff, index int, ledgers []*sig.Inter, logger *slog.Logger) []*sig.Inter {
	sig.SortByAbscissa(ledgers)

	var exclusions []sig.EdgeID
	for i, ledger := range ledgers {
		// Right neighbours only, while they overlap
		for _, other := range ledgers[i+1:] {
			if geom.XOverlap(ledger.Bounds, other.Bounds) <= 0 {
				break
			}
			eid, err := b.system.Sig.Exclude(ledger.ID, other.ID, sig.Overlap)
			if err != nil {
				logger.Error("cannot exclude ledgers", slog.Any("error", err))
				continue
			}
			exclusions = append(exclusions, eid)
		}
	}

	if len(exclusions) == 0 {
		return ledgers
	}

	deleted := b.system.Sig.Reduce(exclusions)
	st.Purge(deleted)
	logger.Debug("ledger reduction", slog.Int("deleted", len(deleted)))

	gone := make(map[sig.ID]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}
	kept := ledgers[:0]
	for _, ledger := range ledgers {
		if !gone[ledger.ID] {
			kept = append(kept, ledger)
		}
	}
	return kept
}
