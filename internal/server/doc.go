// Package server implements the MCP (Model Context Protocol) server for
// reviewing ledger and flag recognition.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr, since stdout carries the protocol.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Recognition:
//   - omr_scan_page: Load a page and its grid, build ledgers and flags
//
// Review:
//   - omr_list_candidates: Ledger candidates of a system, with failures
//   - omr_resolve_target: Virtual line and ordinate of one candidate
//   - omr_check_candidate: Ledger check suite details for one candidate
//   - omr_crop_candidate: Zoomed crop around one candidate
//   - omr_overlay: Accepted interpretations drawn on the page
//
// Configuration:
//   - omr_constants: Tunable constants with value, unit and description
//
// # Runs
//
// Each omr_scan_page call returns a run identifier. The processed sheet,
// its interpretation graphs and its candidates are kept in memory under that
// identifier for the lifetime of the server process, so review tools always
// see the glyphs of the scan they refer to.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A system that fails during a scan does not fail the call: its entry in the
// scan result carries the error and the other systems are reported normally.
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
