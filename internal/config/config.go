// Package config holds the tunable constants of the OMR tools.
//
// Defaults reproduce the reference tuning. A YAML or TOML file (chosen by
// extension) may override any subset, then a .env file and OMR_* environment
// variables take precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/omr-tools-mcp/internal/scale"
)

// Config is the complete tuning.
type Config struct {
	Log     LogConfig     `yaml:"log" toml:"log"`
	Engine  EngineConfig  `yaml:"engine" toml:"engine"`
	Imaging ImagingConfig `yaml:"imaging" toml:"imaging"`
	Ledgers LedgerConfig  `yaml:"ledgers" toml:"ledgers"`
	Beams   BeamConfig    `yaml:"beams" toml:"beams"`
	Flags   FlagConfig    `yaml:"flags" toml:"flags"`
}

// LogConfig selects the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// SlogLevel maps the configured level name to a slog level, info when
// unknown.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// EngineConfig sizes the system worker pool. Zero means one worker per CPU.
type EngineConfig struct {
	Workers int `yaml:"workers" toml:"workers"`
}

// ImagingConfig tunes page binarization.
type ImagingConfig struct {
	Threshold uint8 `yaml:"threshold" toml:"threshold"`
}

// LedgerConfig tunes ledger retrieval and grading.
type LedgerConfig struct {
	MinThreshold float64 `yaml:"min_threshold" toml:"min_threshold"`

	// Candidate assembly
	MaxThicknessHigh     scale.LineFraction `yaml:"max_thickness_high" toml:"max_thickness_high"`
	MinCoreSectionLength scale.Fraction     `yaml:"min_core_section_length" toml:"min_core_section_length"`
	MaxOverlapDeltaPos   scale.LineFraction `yaml:"max_overlap_delta_pos" toml:"max_overlap_delta_pos"`
	MaxCoordGap          scale.Fraction     `yaml:"max_coord_gap" toml:"max_coord_gap"`
	MaxPosGap            scale.Fraction     `yaml:"max_pos_gap" toml:"max_pos_gap"`
	MaxOverlapSpace      scale.Fraction     `yaml:"max_overlap_space" toml:"max_overlap_space"`

	// Check suite bands
	MaxThicknessLow     scale.LineFraction `yaml:"max_thickness_low" toml:"max_thickness_low"`
	MinThicknessLow     scale.Fraction     `yaml:"min_thickness_low" toml:"min_thickness_low"`
	MinThicknessHigh    scale.Fraction     `yaml:"min_thickness_high" toml:"min_thickness_high"`
	MinLedgerLengthLow  scale.Fraction     `yaml:"min_ledger_length_low" toml:"min_ledger_length_low"`
	MinLedgerLengthHigh scale.Fraction     `yaml:"min_ledger_length_high" toml:"min_ledger_length_high"`
	ConvexityLow        float64            `yaml:"convexity_low" toml:"convexity_low"`
	MaxDistanceHigh     scale.Fraction     `yaml:"max_distance_high" toml:"max_distance_high"`
	LedgerMarginY       scale.Fraction     `yaml:"ledger_margin_y" toml:"ledger_margin_y"`

	// Review
	MaxSlopeForCheck float64 `yaml:"max_slope_for_check" toml:"max_slope_for_check"`
	VipGlyphs        []int   `yaml:"vip_glyphs" toml:"vip_glyphs"`
}

// BeamConfig tells which beams are reliable enough to veto ledgers.
type BeamConfig struct {
	GoodGrade float64 `yaml:"good_grade" toml:"good_grade"`
}

// FlagConfig tunes flag-stem relations.
type FlagConfig struct {
	XGapMax          scale.Fraction `yaml:"x_gap_max" toml:"x_gap_max"`
	YGapMax          scale.Fraction `yaml:"y_gap_max" toml:"y_gap_max"`
	MinRelationGrade float64        `yaml:"min_relation_grade" toml:"min_relation_grade"`
}

// Default returns the reference tuning.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info"},
		Engine:  EngineConfig{Workers: 0},
		Imaging: ImagingConfig{Threshold: 128},
		Ledgers: LedgerConfig{
			MinThreshold:         0.5,
			MaxThicknessHigh:     2.5,
			MinCoreSectionLength: 1.0,
			MaxOverlapDeltaPos:   1.0,
			MaxCoordGap:          0,
			MaxPosGap:            0.2,
			MaxOverlapSpace:      0,
			MaxThicknessLow:      1.0,
			MinThicknessLow:      0.06,
			MinThicknessHigh:     0.25,
			MinLedgerLengthLow:   1.0,
			MinLedgerLengthHigh:  1.5,
			ConvexityLow:         -0.5,
			MaxDistanceHigh:      0.3,
			LedgerMarginY:        0.35,
			MaxSlopeForCheck:     0.1,
		},
		Beams: BeamConfig{GoodGrade: 0.5},
		Flags: FlagConfig{
			XGapMax:          0.3,
			YGapMax:          0.8,
			MinRelationGrade: 0.1,
		},
	}
}

// Load returns the defaults overridden by the file at path (skipped when
// path is empty) and by the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		case ".toml":
			err = toml.Unmarshal(data, cfg)
		default:
			return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if level := os.Getenv("OMR_MCP_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if v := os.Getenv("OMR_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OMR_WORKERS: %w", err)
		}
		c.Engine.Workers = n
	}
	if v := os.Getenv("OMR_THRESHOLD"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("OMR_THRESHOLD: %w", err)
		}
		c.Imaging.Threshold = uint8(n)
	}
	if v := os.Getenv("OMR_LEDGER_MIN_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OMR_LEDGER_MIN_THRESHOLD: %w", err)
		}
		c.Ledgers.MinThreshold = f
	}
	if v := os.Getenv("OMR_VIP_GLYPHS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("OMR_VIP_GLYPHS: %w", err)
		}
		c.Ledgers.VipGlyphs = ids
	}
	return nil
}

func parseIDs(list string) ([]int, error) {
	var ids []int
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate rejects tunings the builders cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", c.Engine.Workers)
	}
	if t := c.Ledgers.MinThreshold; t < 0 || t > 1 {
		return fmt.Errorf("ledger min threshold %v outside [0, 1]", t)
	}
	if c.Ledgers.LedgerMarginY <= 0 {
		return fmt.Errorf("ledger margin must be positive")
	}
	if c.Flags.XGapMax <= 0 || c.Flags.YGapMax <= 0 {
		return fmt.Errorf("flag gap maxima must be positive")
	}
	return nil
}

// WorkerCount returns the effective worker pool size.
func (c *Config) WorkerCount() int {
	if c.Engine.Workers > 0 {
		return c.Engine.Workers
	}
	return runtime.NumCPU()
}

// IsVip reports whether a glyph identifier is traced.
func (c *LedgerConfig) IsVip(id int) bool {
	for _, vip := range c.VipGlyphs {
		if vip == id {
			return true
		}
	}
	return false
}
