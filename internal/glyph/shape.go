package glyph

// Shape is the symbol tag assigned to a glyph once an interpretation is accepted.
type Shape string

const (
	NoShape        Shape = ""
	Ledger         Shape = "LEDGER"
	Stem           Shape = "STEM"
	Beam           Shape = "BEAM"
	BeamHook       Shape = "BEAM_HOOK"
	NoteheadBlack  Shape = "NOTEHEAD_BLACK"
	Flag1          Shape = "FLAG_1"
	Flag2          Shape = "FLAG_2"
	Flag3          Shape = "FLAG_3"
	Flag4          Shape = "FLAG_4"
	Flag5          Shape = "FLAG_5"
	Flag1Up        Shape = "FLAG_1_UP"
	Flag2Up        Shape = "FLAG_2_UP"
	Flag3Up        Shape = "FLAG_3_UP"
	Flag4Up        Shape = "FLAG_4_UP"
	Flag5Up        Shape = "FLAG_5_UP"
	SmallFlag      Shape = "SMALL_FLAG"
	SmallFlagSlash Shape = "SMALL_FLAG_SLASH"
)

var flagValues = map[Shape]int{
	Flag1: 1, Flag1Up: 1, SmallFlag: 1, SmallFlagSlash: 1,
	Flag2: 2, Flag2Up: 2,
	Flag3: 3, Flag3Up: 3,
	Flag4: 4, Flag4Up: 4,
	Flag5: 5, Flag5Up: 5,
}

// IsFlag reports whether s is any flag shape, standard or small.
func (s Shape) IsFlag() bool {
	_, ok := flagValues[s]
	return ok
}

// IsFlagUp reports whether s is a flag drawn upward, i.e. hanging from the
// bottom end of a stem.
func (s Shape) IsFlagUp() bool {
	switch s {
	case Flag1Up, Flag2Up, Flag3Up, Flag4Up, Flag5Up:
		return true
	}
	return false
}

// IsSmallFlag reports whether s is a grace-note flag.
func (s Shape) IsSmallFlag() bool {
	return s == SmallFlag || s == SmallFlagSlash
}

// FlagValue returns the count of individual flags represented by a flag shape,
// or 0 (and false) for a shape that is not a flag.
func FlagValue(s Shape) (int, bool) {
	v, ok := flagValues[s]
	return v, ok
}

// ParseShape maps a shape name to its Shape, accepting only known tags.
func ParseShape(name string) (Shape, bool) {
	s := Shape(name)
	switch s {
	case Ledger, Stem, Beam, BeamHook, NoteheadBlack:
		return s, true
	}
	if s.IsFlag() {
		return s, true
	}
	return NoShape, false
}
