package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ironsheep/omr-tools-mcp/internal/check"
	"github.com/ironsheep/omr-tools-mcp/internal/engine"
	"github.com/ironsheep/omr-tools-mcp/internal/geom"
	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/ledger"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

var (
	// ErrUnknownRun is returned for a run identifier the server never issued.
	ErrUnknownRun = errors.New("unknown run")

	// ErrUnknownGlyph is returned for a glyph that is not a candidate of the system.
	ErrUnknownGlyph = errors.New("unknown candidate glyph")
)

// scan is a processed page kept for review.
type scan struct {
	sheet  *sheet.Sheet
	report *engine.Report
}

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "omr_scan_page", "omr_overlay").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", slog.String("tool", params.Name), slog.Any("error", err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "omr_scan_page":
		return s.handleScanPage(args)

	// Review
	case "omr_list_candidates":
		return s.handleListCandidates(args)
	case "omr_resolve_target":
		return s.handleResolveTarget(args)
	case "omr_check_candidate":
		return s.handleCheckCandidate(args)
	case "omr_crop_candidate":
		return s.handleCropCandidate(args)
	case "omr_overlay":
		return s.handleOverlay(args)

	// Configuration
	case "omr_constants":
		return s.engine.Config().Describe(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Recognition Handlers ===

type scanPageArgs struct {
	Path          string `json:"path"`
	StaffFreePath string `json:"staff_free_path"`
	GridPath      string `json:"grid_path"`
	Threshold     *int   `json:"threshold"`
}

type scanPageResult struct {
	RunID   string                `json:"run_id"`
	Width   int                   `json:"width"`
	Height  int                   `json:"height"`
	Systems []engine.SystemResult `json:"systems"`
}

func (s *Server) handleScanPage(args json.RawMessage) (interface{}, error) {
	var a scanPageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" || a.GridPath == "" {
		return nil, fmt.Errorf("path and grid_path are required")
	}

	threshold := s.engine.Config().Imaging.Threshold
	if a.Threshold != nil {
		if *a.Threshold < 0 || *a.Threshold > 255 {
			return nil, fmt.Errorf("threshold %d outside [0, 255]", *a.Threshold)
		}
		threshold = uint8(*a.Threshold)
	}

	pic, err := s.cache.LoadPicture(a.Path, a.StaffFreePath, threshold)
	if err != nil {
		return nil, err
	}
	grid, err := sheet.LoadGrid(a.GridPath)
	if err != nil {
		return nil, err
	}
	sh, err := grid.Build(pic)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet: %w", err)
	}

	report := s.engine.Run(sh)
	runID := sh.RunID.String()

	s.mu.Lock()
	s.scans[runID] = &scan{sheet: sh, report: report}
	s.mu.Unlock()

	b := pic.Page().Bounds()
	return &scanPageResult{RunID: runID, Width: b.Dx(), Height: b.Dy(), Systems: report.Systems}, nil
}

// === Review Handlers ===

type systemArgs struct {
	RunID  string `json:"run_id"`
	System int    `json:"system"`
}

func (s *Server) lookupScan(runID string) (*scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scans[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRun, runID)
	}
	return sc, nil
}

// lookupBuilder returns the ledger builder that processed a system.
func (s *Server) lookupBuilder(a systemArgs) (*scan, *ledger.Builder, error) {
	sc, err := s.lookupScan(a.RunID)
	if err != nil {
		return nil, nil, err
	}
	for _, res := range sc.report.Systems {
		if res.System != a.System {
			continue
		}
		if res.Builder == nil {
			return nil, nil, fmt.Errorf("system %d has no candidates: %s", a.System, res.Error)
		}
		return sc, res.Builder, nil
	}
	return nil, nil, fmt.Errorf("unknown system %d", a.System)
}

func lookupCandidate(b *ledger.Builder, id int) (*glyph.Glyph, error) {
	for _, g := range b.Candidates() {
		if g.ID() == id {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownGlyph, id)
}

type candidateInfo struct {
	Glyph     int             `json:"glyph"`
	Bounds    [4]int          `json:"bounds"`
	Start     geom.Point      `json:"start"`
	Stop      geom.Point      `json:"stop"`
	Length    int             `json:"length"`
	Thickness float64         `json:"thickness"`
	Slope     float64         `json:"slope"`
	Shape     glyph.Shape     `json:"shape,omitempty"`
	Failures  []glyph.Failure `json:"failures,omitempty"`
}

func newCandidateInfo(g *glyph.Glyph) candidateInfo {
	b := g.Bounds()
	return candidateInfo{
		Glyph:     g.ID(),
		Bounds:    [4]int{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y},
		Start:     g.Start(),
		Stop:      g.Stop(),
		Length:    g.Length(),
		Thickness: g.MeanThickness(),
		Slope:     g.Slope(),
		Shape:     g.Shape(),
		Failures:  g.Failures(),
	}
}

func (s *Server) handleListCandidates(args json.RawMessage) (interface{}, error) {
	var a systemArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	_, b, err := s.lookupBuilder(a)
	if err != nil {
		return nil, err
	}

	candidates := b.Candidates()
	out := make([]candidateInfo, 0, len(candidates))
	for _, g := range candidates {
		out = append(out, newCandidateInfo(g))
	}
	return map[string]interface{}{
		"system":     a.System,
		"count":      len(out),
		"candidates": out,
	}, nil
}

type glyphArgs struct {
	systemArgs
	Glyph int `json:"glyph"`
}

type targetResult struct {
	Glyph  int            `json:"glyph"`
	Found  bool           `json:"found"`
	Target *ledger.Target `json:"target,omitempty"`
}

func (s *Server) handleResolveTarget(args json.RawMessage) (interface{}, error) {
	var a glyphArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	_, b, err := s.lookupBuilder(a.systemArgs)
	if err != nil {
		return nil, err
	}
	g, err := lookupCandidate(b, a.Glyph)
	if err != nil {
		return nil, err
	}

	res := &targetResult{Glyph: a.Glyph}
	if target, ok := b.ResolveTarget(g); ok {
		res.Found = true
		res.Target = &target
	}
	return res, nil
}

type checkCandidateArgs struct {
	glyphArgs
	TargetY *float64 `json:"target_y"`
}

type checkResult struct {
	Candidate candidateInfo  `json:"candidate"`
	Target    *ledger.Target `json:"target,omitempty"`
	TargetY   float64        `json:"target_y"`
	Passed    bool           `json:"passed"`
	Impacts   *check.Impacts `json:"impacts"`
	Dump      string         `json:"dump"`
}

func (s *Server) handleCheckCandidate(args json.RawMessage) (interface{}, error) {
	var a checkCandidateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	_, b, err := s.lookupBuilder(a.systemArgs)
	if err != nil {
		return nil, err
	}
	g, err := lookupCandidate(b, a.Glyph)
	if err != nil {
		return nil, err
	}

	res := &checkResult{Candidate: newCandidateInfo(g)}
	if a.TargetY != nil {
		res.TargetY = *a.TargetY
	} else {
		target, ok := b.ResolveTarget(g)
		if !ok {
			return nil, fmt.Errorf("no ledger target for glyph %d", a.Glyph)
		}
		res.Target = &target
		res.TargetY = target.Y
	}

	impacts := b.Check(g, res.TargetY)
	res.Impacts = impacts
	res.Passed = impacts.Passed()
	res.Dump = impacts.Dump()
	return res, nil
}

type cropCandidateArgs struct {
	glyphArgs
	Margin *int    `json:"margin"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleCropCandidate(args json.RawMessage) (interface{}, error) {
	var a cropCandidateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 4.0
	}
	sc, b, err := s.lookupBuilder(a.systemArgs)
	if err != nil {
		return nil, err
	}
	g, err := lookupCandidate(b, a.Glyph)
	if err != nil {
		return nil, err
	}

	margin := sc.sheet.Scale.Interline
	if a.Margin != nil {
		margin = *a.Margin
	}
	return imaging.CropAround(sc.sheet.Picture.Page(), g.Bounds(), margin, a.Scale)
}

type overlayArgs struct {
	RunID string   `json:"run_id"`
	Kinds []string `json:"kinds"`
}

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Kinds) == 0 {
		a.Kinds = []string{"ledger", "flag", "small-flag"}
	}
	sc, err := s.lookupScan(a.RunID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(a.Kinds))
	for _, k := range a.Kinds {
		wanted[k] = true
	}

	var marks []imaging.Mark
	for _, sys := range sc.sheet.Systems {
		for _, in := range sys.Sig.Inters(nil) {
			kind := in.Kind.String()
			if !wanted[kind] {
				continue
			}
			marks = append(marks, imaging.Mark{
				Bounds: in.Bounds,
				Kind:   kind,
				Grade:  in.Grade,
				Label:  strconv.Itoa(int(in.ID)),
			})
		}
	}
	return imaging.Overlay(sc.sheet.Picture.Page(), marks)
}
