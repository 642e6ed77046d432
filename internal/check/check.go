// Package check grades candidates with table-driven suites of weighted checks.
//
// Each Check maps a candidate to a scalar value and normalizes it against a
// [Low, High] band into an impact in [0, 1]. A Suite combines the impacts of
// its weighted checks into one grade (weighted geometric mean) and compares it
// to the suite minimum threshold.
//
// Evaluation is pure: it reads the candidate and never records anything, so
// suites may run concurrently on independent candidates.
package check

import (
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
)

// Polarity tells which side of the band is good.
type Polarity int

const (
	HigherIsBetter Polarity = iota
	LowerIsBetter
)

func (p Polarity) String() string {
	if p == LowerIsBetter {
		return "lower-is-better"
	}
	return "higher-is-better"
}

// Check is one row of a suite table.
type Check[C any] struct {
	Name        string
	Description string
	Weight      float64
	Low         float64
	High        float64
	Polarity    Polarity
	Failure     glyph.Failure
	Eval        func(C) float64
}

// Impact normalizes value against the check band.
//
// For HigherIsBetter, values at or below Low give 0 and values at or above
// High give 1. LowerIsBetter mirrors this: at or below Low gives 1, at or
// above High gives 0. The impact is linear in between.
func (c Check[C]) Impact(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	var v float64
	if c.High == c.Low {
		if value >= c.High {
			v = 1
		}
	} else {
		v = (value - c.Low) / (c.High - c.Low)
	}
	v = math.Max(0, math.Min(1, v))
	if c.Polarity == LowerIsBetter {
		return 1 - v
	}
	return v
}

// Entry is the outcome of one check.
type Entry struct {
	Name    string        `json:"name"`
	Value   float64       `json:"value"`
	Impact  float64       `json:"impact"`
	Weight  float64       `json:"weight"`
	Failure glyph.Failure `json:"failure,omitempty"`
}

// Impacts is the outcome of a suite on one candidate.
type Impacts struct {
	Suite        string  `json:"suite"`
	Entries      []Entry `json:"entries"`
	Grade        float64 `json:"grade"`
	MinThreshold float64 `json:"min_threshold"`
}

// Passed reports whether the grade reaches the suite minimum threshold.
func (im *Impacts) Passed() bool {
	return im.Grade >= im.MinThreshold
}

// Failures returns the failure tags of the checks whose impact is zero, in
// suite order.
func (im *Impacts) Failures() []glyph.Failure {
	var out []glyph.Failure
	for _, e := range im.Entries {
		if e.Failure != "" {
			out = append(out, e.Failure)
		}
	}
	return out
}

// Dump returns a one-line diagnostic of the evaluation.
func (im *Impacts) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s grade=%.3f min=%.3f", im.Suite, im.Grade, im.MinThreshold)
	for _, e := range im.Entries {
		fmt.Fprintf(&sb, " %s=%.3f(%.2f)", e.Name, e.Value, e.Impact)
	}
	return sb.String()
}

// Suite is an ordered table of checks over candidates of type C.
type Suite[C any] struct {
	Name         string
	MinThreshold float64
	Checks       []Check[C]
}

// Evaluate runs every check on c and combines the weighted impacts.
//
// The grade is the weighted geometric mean of the impacts of checks with a
// positive weight, so a zero impact on any weighted check gives a zero grade.
func (s *Suite[C]) Evaluate(c C) *Impacts {
	im := &Impacts{
		Suite:        s.Name,
		Entries:      make([]Entry, 0, len(s.Checks)),
		MinThreshold: s.MinThreshold,
	}

	var logSum, weights float64
	zero := false
	for _, chk := range s.Checks {
		value := chk.Eval(c)
		impact := chk.Impact(value)
		e := Entry{Name: chk.Name, Value: value, Impact: impact, Weight: chk.Weight}
		if impact == 0 {
			e.Failure = chk.Failure
		}
		im.Entries = append(im.Entries, e)

		if chk.Weight <= 0 {
			continue
		}
		weights += chk.Weight
		if impact == 0 {
			zero = true
			continue
		}
		logSum += chk.Weight * math.Log(impact)
	}

	switch {
	case zero:
		im.Grade = 0
	case weights == 0:
		im.Grade = 1
	default:
		im.Grade = math.Exp(logSum / weights)
	}
	return im
}

// Describe lists the checks of the suite, one per line.
func (s *Suite[C]) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (min %.2f)\n", s.Name, s.MinThreshold)
	for _, chk := range s.Checks {
		fmt.Fprintf(&sb, "  %-14s w=%-4g [%g, %g] %s %s\n",
			chk.Name, chk.Weight, chk.Low, chk.High, chk.Polarity, chk.Description)
	}
	return sb.String()
}
