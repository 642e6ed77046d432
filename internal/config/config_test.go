package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-tools-mcp/internal/scale"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.5, cfg.Ledgers.MinThreshold)
	assert.Equal(t, scale.Fraction(0.35), cfg.Ledgers.LedgerMarginY)
	assert.Equal(t, scale.LineFraction(2.5), cfg.Ledgers.MaxThicknessHigh)
	assert.Equal(t, -0.5, cfg.Ledgers.ConvexityLow)
	assert.Positive(t, cfg.WorkerCount())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "omr.yaml", `
log:
  level: debug
engine:
  workers: 3
ledgers:
  ledger_margin_y: 0.4
  vip_glyphs: [12, 15]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.WorkerCount())
	assert.Equal(t, scale.Fraction(0.4), cfg.Ledgers.LedgerMarginY)
	assert.True(t, cfg.Ledgers.IsVip(15))
	assert.False(t, cfg.Ledgers.IsVip(14))
	// Untouched keys keep their defaults
	assert.Equal(t, scale.Fraction(1.5), cfg.Ledgers.MinLedgerLengthHigh)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "omr.toml", `
[imaging]
threshold = 100

[flags]
x_gap_max = 0.5
min_relation_grade = 0.2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint8(100), cfg.Imaging.Threshold)
	assert.Equal(t, scale.Fraction(0.5), cfg.Flags.XGapMax)
	assert.Equal(t, 0.2, cfg.Flags.MinRelationGrade)
	assert.Equal(t, scale.Fraction(0.8), cfg.Flags.YGapMax)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OMR_MCP_LOG_LEVEL", "warn")
	t.Setenv("OMR_WORKERS", "2")
	t.Setenv("OMR_THRESHOLD", "90")
	t.Setenv("OMR_LEDGER_MIN_THRESHOLD", "0.6")
	t.Setenv("OMR_VIP_GLYPHS", "4, 9,")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, uint8(90), cfg.Imaging.Threshold)
	assert.Equal(t, 0.6, cfg.Ledgers.MinThreshold)
	assert.Equal(t, []int{4, 9}, cfg.Ledgers.VipGlyphs)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "omr.json", `{}`))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "log: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "level.yaml", "log: {level: loud}"))
	assert.Error(t, err)

	t.Setenv("OMR_WORKERS", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	cfg := Default()
	keys := map[string]Constant{}
	for _, k := range cfg.Describe() {
		keys[k.Key] = k
	}

	require.Contains(t, keys, "ledgers.ledger_margin_y")
	assert.Equal(t, "0.35", keys["ledgers.ledger_margin_y"].Value)
	assert.Equal(t, "interline", keys["ledgers.ledger_margin_y"].Unit)
	assert.Contains(t, cfg.Dump(), "flags.y_gap_max")
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, LogConfig{Level: name}.SlogLevel(), name)
	}
}
