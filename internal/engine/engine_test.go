package engine

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-tools-mcp/internal/config"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/ledger"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
	"github.com/ironsheep/omr-tools-mcp/internal/sticks"
)

// Two systems, one staff each, bottom lines at 300 and 800. Each has a
// ledger below its staff and system 1 has a flagged stem.
const twoSystems = `
scale: {interline: 20, line_thickness: 3, max_stem: 4}
systems:
  - id: 1
    staves:
      - id: 1
        lines:
          - points: [[0, 220], [400, 220]]
          - points: [[0, 240], [400, 240]]
          - points: [[0, 260], [400, 260]]
          - points: [[0, 280], [400, 280]]
          - points: [[0, 300], [400, 300]]
    stems:
      - top: [201, 200]
        bottom: [201, 280]
        grade: 0.8
        heads:
          - {shape: NOTEHEAD_BLACK, box: [190, 275, 202, 287], grade: 0.9}
    flags:
      - {shape: FLAG_1, box: [203, 200, 215, 230], grade: 0.8}
  - id: 2
    staves:
      - id: 2
        lines:
          - points: [[0, 720], [400, 720]]
          - points: [[0, 740], [400, 740]]
          - points: [[0, 760], [400, 760]]
          - points: [[0, 780], [400, 780]]
          - points: [[0, 800], [400, 800]]
`

func newSheet(t *testing.T) *sheet.Sheet {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 400, 1000))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, y := range []int{319, 819} {
		draw.Draw(img, image.Rect(100, y, 141, y+3), image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	g, err := sheet.ParseGrid([]byte(twoSystems))
	require.NoError(t, err)
	sh, err := g.Build(imaging.NewPicture(img, imaging.DefaultThreshold))
	require.NoError(t, err)
	return sh
}

// panicky delegates to a real source but panics on the lower part of the page.
type panicky struct {
	inner *sticks.Source
}

func (p panicky) HorizontalSections(area image.Rectangle) []*sticks.Section {
	if area.Min.Y > 500 {
		panic("corrupted raster")
	}
	return p.inner.HorizontalSections(area)
}

func (p panicky) RetrieveFilaments(sections []*sticks.Section, params sticks.Params) []*glyph.Glyph {
	return p.inner.RetrieveFilaments(sections, params)
}

func TestRun(t *testing.T) {
	sh := newSheet(t)
	e := New(config.Default(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	report := e.Run(sh)
	assert.Equal(t, sh.RunID, report.RunID)
	require.Len(t, report.Systems, 2)
	assert.Empty(t, report.Failed())

	first := report.Systems[0]
	assert.Equal(t, 1, first.System)
	assert.Equal(t, 1, first.Ledgers.Ledgers)
	assert.Equal(t, 1, first.Flags)

	second := report.Systems[1]
	assert.Equal(t, 2, second.System)
	assert.Equal(t, 1, second.Ledgers.Ledgers)
	assert.Zero(t, second.Flags)

	flags := sh.Systems[0].Sig.Inters(sig.OfKind(sig.Flag))
	require.Len(t, flags, 1)
	assert.Len(t, sh.Systems[0].Sig.Relations(flags[0].ID, sig.FlagStem), 1)
}

func TestRun_PartialResultsOnPanic(t *testing.T) {
	sh := newSheet(t)
	var logs bytes.Buffer
	e := New(config.Default(), slog.New(slog.NewTextHandler(&logs, nil)))
	e.candidates = func(sh *sheet.Sheet) ledger.CandidateSource {
		return panicky{inner: sh.Source}
	}

	report := e.Run(sh)
	require.Len(t, report.Systems, 2)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].System)
	assert.ErrorIs(t, failed[0].Err, ErrSystemPanic)
	assert.Contains(t, failed[0].Error, "corrupted raster")

	// The healthy system is complete
	ok := report.Systems[0]
	assert.NoError(t, ok.Err)
	assert.Equal(t, 1, ok.Ledgers.Ledgers)
	assert.Equal(t, 1, ok.Flags)
	assert.Len(t, sh.Systems[0].Staves[0].Ledgers(1), 1)

	assert.Contains(t, logs.String(), "system panic")
}

func TestRun_SingleWorker(t *testing.T) {
	sh := newSheet(t)
	cfg := config.Default()
	cfg.Engine.Workers = 1

	report := New(cfg, nil).Run(sh)
	require.Len(t, report.Systems, 2)
	assert.Empty(t, report.Failed())
	assert.Equal(t, 1, report.Systems[1].Ledgers.Ledgers)
}

func TestLedgerBuilder_ChecksCandidate(t *testing.T) {
	sh := newSheet(t)
	e := New(nil, nil)

	b, err := e.LedgerBuilder(sh, sh.Systems[0])
	require.NoError(t, err)

	candidates := b.Candidates()
	require.Len(t, candidates, 1)
	target, ok := b.ResolveTarget(candidates[0])
	require.True(t, ok)
	assert.Equal(t, 1, target.Index)

	impacts := b.Check(candidates[0], target.Y)
	assert.True(t, impacts.Passed())
}
