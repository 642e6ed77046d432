// Package sig implements the symbol interpretation graph of one system.
//
// Interpretations (inters) are vertices held in an arena and addressed by
// stable identifiers allocated in creation order. Edges store identifier
// pairs: relations bind compatible inters (a flag to its stem), exclusions
// mark two inters that cannot both hold until a reduction removes the weaker.
package sig

import (
	"fmt"
	"image"

	"github.com/ironsheep/omr-tools-mcp/internal/check"
	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
)

// ID identifies an inter within its graph. Zero is never allocated.
type ID int

// Kind is the interpretation variant.
type Kind int

const (
	Ledger Kind = iota + 1
	Flag
	SmallFlag
	Stem
	Head
	Beam
	BeamHook
)

var kindNames = map[Kind]string{
	Ledger:    "ledger",
	Flag:      "flag",
	SmallFlag: "small-flag",
	Stem:      "stem",
	Head:      "head",
	Beam:      "beam",
	BeamHook:  "beam-hook",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Inter is an accepted interpretation of a glyph.
type Inter struct {
	ID      ID
	Kind    Kind
	Shape   glyph.Shape
	Glyph   *glyph.Glyph
	Grade   float64
	Impacts *check.Impacts
	Bounds  image.Rectangle

	// Staff is the identifier of the related staff, 0 when unknown.
	Staff int

	// Index is the ledger slot, signed from the staff (negative above).
	Index int
	// Grace marks small (cue or grace) stems.
	Grace bool
	// Area is the beam parallelogram.
	Area geom.Polygon
}

// NewInter returns an inter of a glyph, bounded by the glyph bounds.
func NewInter(kind Kind, g *glyph.Glyph, grade float64) *Inter {
	in := &Inter{Kind: kind, Glyph: g, Grade: grade}
	if g != nil {
		in.Bounds = g.Bounds()
		in.Shape = g.Shape()
	}
	return in
}

// Center returns the center of the inter bounds.
func (in *Inter) Center() geom.Point {
	return geom.AreaCenter(in.Bounds)
}

func (in *Inter) String() string {
	return fmt.Sprintf("%s#%d", in.Kind, in.ID)
}

// EdgeID identifies an edge within its graph.
type EdgeID int

// RelationKind types a relation edge.
type RelationKind int

const (
	FlagStem RelationKind = iota + 1
	HeadStem
)

func (k RelationKind) String() string {
	switch k {
	case FlagStem:
		return "flag-stem"
	case HeadStem:
		return "head-stem"
	}
	return fmt.Sprintf("relation(%d)", int(k))
}

// Relation carries the geometry of a compatibility between two inters.
// Gaps are expressed in interline fractions.
type Relation struct {
	Kind           RelationKind
	XGap           float64
	YGap           float64
	Grade          float64
	ExtensionPoint geom.Point
}

// Cause tags an exclusion.
type Cause string

// Overlap excludes two inters competing for the same pixels.
const Overlap Cause = "overlap"

// Edge links two inters. Exactly one of Relation and Cause is set.
type Edge struct {
	ID       EdgeID
	Source   ID
	Target   ID
	Relation *Relation
	Cause    Cause
}

// IsExclusion reports whether the edge is an exclusion.
func (e *Edge) IsExclusion() bool { return e.Relation == nil }

// Opposite returns the other end of e, or 0 if id is not an end of e.
func (e *Edge) Opposite(id ID) ID {
	switch id {
	case e.Source:
		return e.Target
	case e.Target:
		return e.Source
	}
	return 0
}
