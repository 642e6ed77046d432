// Package engine runs the ledger and flag builders over every system of a
// sheet.
//
// Systems are independent: each owns its interpretation graph and is
// processed by its own worker. A failing system reports its error and keeps
// whatever it committed; the other systems are not affected.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/omr-tools-mcp/internal/config"
	"github.com/ironsheep/omr-tools-mcp/internal/flag"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/ledger"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
	"github.com/ironsheep/omr-tools-mcp/internal/sig"
)

// ErrSystemPanic wraps a panic recovered while processing a system.
var ErrSystemPanic = errors.New("system processing panicked")

// SystemResult is the outcome of one system. Counts reflect what was
// committed to the system graph, even when Err is set.
type SystemResult struct {
	System  int            `json:"system"`
	Ledgers *ledger.Report `json:"ledgers,omitempty"`
	Flags   int            `json:"flags"`
	Inters  int            `json:"inters"`
	Edges   int            `json:"edges"`
	Err     error          `json:"-"`
	Error   string         `json:"error,omitempty"`

	// Builder keeps the candidates of the run for later review.
	Builder *ledger.Builder `json:"-"`
}

// Report gathers the system results of one run, ordered by system.
type Report struct {
	RunID    uuid.UUID      `json:"run_id"`
	Systems  []SystemResult `json:"systems"`
	Duration time.Duration  `json:"duration_ns"`
}

// Failed returns the results carrying an error.
func (r *Report) Failed() []SystemResult {
	var out []SystemResult
	for _, s := range r.Systems {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Engine processes sheets with a fixed tuning.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	// candidates returns the ledger candidate source of a sheet.
	candidates func(*sheet.Sheet) ledger.CandidateSource
}

// New returns an engine. A nil logger uses the default one.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		candidates: func(sh *sheet.Sheet) ledger.CandidateSource {
			return sh.Source
		},
	}
}

// Config returns the engine tuning.
func (e *Engine) Config() *config.Config { return e.cfg }

// LedgerBuilder returns a ledger builder bound to one system of sh.
func (e *Engine) LedgerBuilder(sh *sheet.Sheet, sys *sheet.System) (*ledger.Builder, error) {
	pixels, err := sh.Picture.Source(imaging.StaffLineFreeSource)
	if err != nil {
		return nil, fmt.Errorf("system %d: %w", sys.ID, err)
	}
	logger := e.logger.With(slog.String("run", sh.RunID.String()), slog.Int("system", sys.ID))
	return ledger.NewBuilder(sys, sh.Scale, pixels, e.candidates(sh), e.cfg, logger), nil
}

// Run builds the ledgers, then the flags, of every system of sh.
func (e *Engine) Run(sh *sheet.Sheet) *Report {
	start := time.Now()
	results := make([]SystemResult, len(sh.Systems))

	var g errgroup.Group
	g.SetLimit(e.cfg.WorkerCount())
	for i, sys := range sh.Systems {
		i, sys := i, sys
		g.Go(func() error {
			results[i] = e.runSystem(sh, sys)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].System < results[j].System })

	report := &Report{RunID: sh.RunID, Systems: results, Duration: time.Since(start)}
	e.logger.Info("sheet processed",
		slog.String("run", sh.RunID.String()),
		slog.Int("systems", len(results)),
		slog.Int("failed", len(report.Failed())),
		slog.Duration("duration", report.Duration))
	return report
}

// runSystem processes one system and never panics.
func (e *Engine) runSystem(sh *sheet.Sheet, sys *sheet.System) (res SystemResult) {
	logger := e.logger.With(slog.String("run", sh.RunID.String()), slog.Int("system", sys.ID))
	res.System = sys.ID

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: system %d: %v", ErrSystemPanic, sys.ID, r)
			logger.Error("system panic", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
		summarize(&res, sys)
	}()

	builder, err := e.LedgerBuilder(sh, sys)
	if err != nil {
		res.Err = err
		return res
	}
	res.Builder = builder
	report, err := builder.Build()
	res.Ledgers = report
	if err != nil {
		res.Err = fmt.Errorf("system %d ledgers: %w", sys.ID, err)
		logger.Error("ledger build failed", slog.Any("error", err))
		return res
	}

	flags := flag.Build(sys, sh.Scale, e.cfg.Flags, logger)
	res.Flags = len(flags)
	logger.Debug("system processed",
		slog.Int("ledgers", report.Ledgers), slog.Int("flags", res.Flags))
	return res
}

func summarize(res *SystemResult, sys *sheet.System) {
	res.Inters = sys.Sig.Len()
	res.Edges = sys.Sig.EdgeCount()
	if res.Flags == 0 {
		res.Flags = len(sys.Sig.Inters(sig.OfKind(sig.Flag, sig.SmallFlag)))
	}
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
}
