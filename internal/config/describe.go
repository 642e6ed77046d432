package config

import (
	"fmt"
	"strings"
)

// Constant documents one tunable value.
type Constant struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// Describe lists the tunable constants with their current values.
func (c *Config) Describe() []Constant {
	l, f := c.Ledgers, c.Flags
	num := func(v float64) string { return fmt.Sprintf("%g", v) }

	return []Constant{
		{"log.level", c.Log.Level, "", "Log level"},
		{"engine.workers", fmt.Sprint(c.WorkerCount()), "systems", "Systems processed in parallel"},
		{"imaging.threshold", fmt.Sprint(c.Imaging.Threshold), "gray", "Gray level below which a pixel is foreground"},
		{"ledgers.min_threshold", num(l.MinThreshold), "grade", "Minimum grade of an accepted ledger"},
		{"ledgers.max_thickness_high", num(float64(l.MaxThicknessHigh)), "line", "High maximum thickness of an interesting stick"},
		{"ledgers.max_thickness_low", num(float64(l.MaxThicknessLow)), "line", "Low maximum thickness of an interesting stick"},
		{"ledgers.min_core_section_length", num(float64(l.MinCoreSectionLength)), "interline", "Minimum length for a section to be considered as core"},
		{"ledgers.max_overlap_delta_pos", num(float64(l.MaxOverlapDeltaPos)), "line", "Maximum delta position between two overlapping filaments"},
		{"ledgers.max_coord_gap", num(float64(l.MaxCoordGap)), "interline", "Maximum delta coordinate for a gap between filaments"},
		{"ledgers.max_pos_gap", num(float64(l.MaxPosGap)), "interline", "Maximum delta position for a gap between filaments"},
		{"ledgers.max_overlap_space", num(float64(l.MaxOverlapSpace)), "interline", "Maximum space between overlapping filaments"},
		{"ledgers.min_thickness_low", num(float64(l.MinThicknessLow)), "interline", "Low minimum thickness of an interesting stick"},
		{"ledgers.min_thickness_high", num(float64(l.MinThicknessHigh)), "interline", "High minimum thickness of an interesting stick"},
		{"ledgers.min_ledger_length_low", num(float64(l.MinLedgerLengthLow)), "interline", "Low minimum length for a ledger"},
		{"ledgers.min_ledger_length_high", num(float64(l.MinLedgerLengthHigh)), "interline", "High minimum length for a ledger"},
		{"ledgers.convexity_low", num(l.ConvexityLow), "ends", "Minimum convexity ends"},
		{"ledgers.max_distance_high", num(float64(l.MaxDistanceHigh)), "interline", "Maximum average distance to straight line"},
		{"ledgers.ledger_margin_y", num(float64(l.LedgerMarginY)), "interline", "Margin on ledger ordinate with respect to theoretical ordinate"},
		{"ledgers.max_slope_for_check", num(l.MaxSlopeForCheck), "slope", "Maximum slope for checking a single candidate"},
		{"beams.good_grade", num(c.Beams.GoodGrade), "grade", "Minimum grade of a beam vetoing ledgers"},
		{"flags.x_gap_max", num(float64(f.XGapMax)), "interline", "Maximum abscissa gap between flag and stem"},
		{"flags.y_gap_max", num(float64(f.YGapMax)), "interline", "Maximum ordinate gap between flag and stem end"},
		{"flags.min_relation_grade", num(f.MinRelationGrade), "grade", "Minimum grade of a flag-stem relation"},
	}
}

// Dump renders Describe as an aligned text table.
func (c *Config) Dump() string {
	var sb strings.Builder
	for _, k := range c.Describe() {
		fmt.Fprintf(&sb, "%-34s %-8s %-10s %s\n", k.Key, k.Value, k.Unit, k.Description)
	}
	return sb.String()
}
