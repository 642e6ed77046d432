// Package scale converts between pixels and the physical units of a sheet.
//
// Two units are used by the OMR constants:
//   - Fraction: a fraction of the interline (distance between two staff lines)
//   - LineFraction: a fraction of the mean staff line thickness
//
// A Scale is read-only once built and safe for concurrent use.
package scale

import (
	"errors"
	"fmt"
	"math"
)

// Fraction is a length expressed in interline units.
type Fraction float64

// LineFraction is a length expressed in staff line thickness units.
type LineFraction float64

// ErrInvalidScale is returned when a scale cannot support conversions.
var ErrInvalidScale = errors.New("invalid scale")

// Scale holds the reference dimensions of a sheet, in pixels.
type Scale struct {
	Interline     int `json:"interline" yaml:"interline"`
	LineThickness int `json:"line_thickness" yaml:"line_thickness"`
	MaxStem       int `json:"max_stem" yaml:"max_stem"`
}

// New validates and returns a scale.
func New(interline, lineThickness, maxStem int) (*Scale, error) {
	s := &Scale{Interline: interline, LineThickness: lineThickness, MaxStem: maxStem}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that every reference dimension is positive.
func (s *Scale) Validate() error {
	if s.Interline <= 0 || s.LineThickness <= 0 || s.MaxStem <= 0 {
		return fmt.Errorf("%w: interline=%d line=%d stem=%d",
			ErrInvalidScale, s.Interline, s.LineThickness, s.MaxStem)
	}
	return nil
}

// ToPixels converts an interline fraction to a rounded pixel count.
func (s *Scale) ToPixels(f Fraction) int {
	return int(math.Round(float64(f) * float64(s.Interline)))
}

// ToPixelsDouble converts an interline fraction to pixels without rounding.
func (s *Scale) ToPixelsDouble(f Fraction) float64 {
	return float64(f) * float64(s.Interline)
}

// LineToPixels converts a line fraction to a rounded pixel count.
func (s *Scale) LineToPixels(f LineFraction) int {
	return int(math.Round(float64(f) * float64(s.LineThickness)))
}

// LineToPixelsDouble converts a line fraction to pixels without rounding.
func (s *Scale) LineToPixelsDouble(f LineFraction) float64 {
	return float64(f) * float64(s.LineThickness)
}

// PixelsToFrac converts a pixel length to interline units.
func (s *Scale) PixelsToFrac(pixels float64) float64 {
	return pixels / float64(s.Interline)
}

// PixelsToLineFrac converts a pixel length to line thickness units.
func (s *Scale) PixelsToLineFrac(pixels float64) float64 {
	return pixels / float64(s.LineThickness)
}
