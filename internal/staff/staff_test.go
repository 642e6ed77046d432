package staff

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
)

func flatStaff(t *testing.T, top, interline float64) *Staff {
	t.Helper()
	lines := make([]*Line, LineCount)
	for i := range lines {
		y := top + float64(i)*interline
		l, err := NewLine([]geom.Point{{X: 0, Y: y}, {X: 1000, Y: y}}, 3)
		require.NoError(t, err)
		lines[i] = l
	}
	s, err := New(1, lines)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresFiveLines(t *testing.T) {
	_, err := New(1, nil)
	assert.ErrorIs(t, err, ErrLineCount)

	_, err = NewLine(nil, 3)
	assert.ErrorIs(t, err, ErrEmptyLine)
}

func TestLine_YAt(t *testing.T) {
	l, err := NewLine([]geom.Point{{X: 100, Y: 20}, {X: 0, Y: 10}, {X: 200, Y: 20}}, 2)
	require.NoError(t, err)

	tests := []struct {
		x, want float64
	}{
		{0, 10},
		{50, 15},
		{150, 20},
		{-100, 0},
		{300, 20},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, l.YAt(tt.x), 1e-9, "x=%v", tt.x)
	}

	assert.Equal(t, image.Rect(0, 9, 201, 21), l.Bounds())
}

func TestStaff_PitchPosition(t *testing.T) {
	s := flatStaff(t, 920, 20)

	assert.InDelta(t, -4, s.PitchPositionOf(geom.Pt(10, 920)), 1e-9)
	assert.InDelta(t, 0, s.PitchPositionOf(geom.Pt(10, 960)), 1e-9)
	assert.InDelta(t, 4, s.PitchPositionOf(geom.Pt(10, 1000)), 1e-9)
	assert.InDelta(t, 7.8, s.PitchPositionOf(geom.Pt(10, 1038)), 1e-9)
	assert.InDelta(t, -6, s.PitchPositionOf(geom.Pt(10, 900)), 1e-9)
}

func TestStaff_LedgerSets(t *testing.T) {
	s := flatStaff(t, 920, 20)

	s.AddLedger(1, 3)
	s.AddLedger(1, 5)
	s.AddLedger(1, 3)
	s.AddLedger(-1, 7)

	assert.Equal(t, []sig.ID{3, 5}, s.Ledgers(1))
	assert.Equal(t, []int{-1, 1}, s.LedgerIndexes())

	s.Purge([]sig.ID{5, 7})
	assert.Equal(t, []sig.ID{3}, s.Ledgers(1))
	assert.Empty(t, s.Ledgers(-1))
	assert.Equal(t, []int{1}, s.LedgerIndexes())
}
