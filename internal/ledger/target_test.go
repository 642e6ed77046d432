package ledger

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
)

func TestCheck_RejectsShiftedStick(t *testing.T) {
	// Two interlines below the bottom line, but checked against the first
	// virtual line.
	stick := flatStick(1, 100, 141, 1038)
	f := newFakeFixture(t, stick)

	impacts := f.builder.Check(stick, 1020)
	assert.Zero(t, impacts.Grade)
	assert.False(t, impacts.Passed())
	assert.Equal(t, []glyph.Failure{TooShifted, TooShifted}, impacts.Failures())
}

func TestCheck_FailureTags(t *testing.T) {
	f := newFakeFixture(t)

	short := flatStick(1, 100, 115, 1020)
	impacts := f.builder.Check(short, 1020)
	assert.False(t, impacts.Passed())
	assert.Contains(t, impacts.Failures(), TooShort)

	bended := glyph.New(2, glyph.Geometry{
		Bounds:        image.Rect(100, 1015, 141, 1026),
		Start:         geom.Pt(100, 1020),
		Stop:          geom.Pt(140, 1020),
		MeanThickness: 3,
		MeanDistance:  7,
	})
	impacts = f.builder.Check(bended, 1020)
	assert.Contains(t, impacts.Failures(), TooBended)
}

func TestLedgerTarget_FirstLine(t *testing.T) {
	stick := flatStick(1, 100, 141, 1038)
	f := newFakeFixture(t, stick)

	target, ok := f.builder.LedgerTarget(stick)
	require.True(t, ok)
	assert.Equal(t, Target{Staff: 1, Index: 1, Y: 1020}, target)
}

func TestLedgerTarget_Above(t *testing.T) {
	stick := flatStick(1, 100, 141, 899)
	f := newFakeFixture(t, stick)

	target, ok := f.builder.LedgerTarget(stick)
	require.True(t, ok)
	assert.Equal(t, Target{Staff: 1, Index: -1, Y: 900}, target)
}

func TestLedgerTarget_WithinStaff(t *testing.T) {
	stick := flatStick(1, 100, 141, 975)
	f := newFakeFixture(t, stick)

	_, ok := f.builder.LedgerTarget(stick)
	assert.False(t, ok)
}

func TestLedgerTarget_UsesAcceptedLedger(t *testing.T) {
	first := flatStick(1, 100, 141, 1020)
	second := flatStick(2, 110, 151, 1041)
	f := newFakeFixture(t, first, second)

	_, err := f.builder.Build()
	require.NoError(t, err)
	require.Len(t, f.system.Staves[0].Ledgers(2), 1)

	target, ok := f.builder.LedgerTarget(second)
	require.True(t, ok)
	assert.Equal(t, 2, target.Index)
	assert.InDelta(t, 1040, target.Y, 1e-9)
}

func TestYReference_ExtrapolatesBeyondLedger(t *testing.T) {
	// A slightly sloped ledger on the first line
	ledger := glyph.New(1, glyph.Geometry{
		Bounds:        image.Rect(100, 1018, 141, 1023),
		Start:         geom.Pt(100, 1019),
		Stop:          geom.Pt(140, 1021),
		Line:          geom.Line{Slope: 0.05, Intercept: 1014},
		MeanThickness: 3,
	})
	beyond := flatStick(2, 130, 201, 1040)
	f := newFakeFixture(t, ledger)

	_, err := f.builder.Build()
	require.NoError(t, err)
	require.Len(t, f.system.Staves[0].Ledgers(1), 1)

	// Middle of beyond bounds is 165.5, right of the ledger
	y, ok := f.builder.yReference(f.system.Staves[0], 2, beyond)
	require.True(t, ok)
	assert.InDelta(t, 1019+2*65.5/40, y, 1e-9)

	// A stick that does not overlap any first-line ledger is an orphan
	_, ok = f.builder.yReference(f.system.Staves[0], 2, flatStick(3, 300, 341, 1040))
	assert.False(t, ok)
}

func TestResolveTarget_RejectsSlopedStick(t *testing.T) {
	sloped := glyph.New(1, glyph.Geometry{
		Bounds:        image.Rect(100, 1030, 141, 1046),
		Start:         geom.Pt(100, 1031),
		Stop:          geom.Pt(140, 1045),
		Centroid:      geom.Pt(120, 1038),
		Line:          geom.Line{Slope: 0.35, Intercept: 996},
		MeanThickness: 3,
	})
	f := newFakeFixture(t, sloped)

	_, ok := f.builder.ResolveTarget(sloped)
	assert.False(t, ok)

	_, ok = f.builder.LedgerTarget(sloped)
	assert.True(t, ok)
}
