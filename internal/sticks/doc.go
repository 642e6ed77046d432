// Package sticks assembles glyph candidates from the pixel runs of a raster.
//
// The pipeline is the classic run-length one:
//
//  1. Runs: maximal horizontal sequences of foreground pixels in one row.
//  2. Sections: runs of consecutive rows linked one-to-one (a run joins the
//     section of the run above it when each overlaps only the other).
//  3. Filaments: thin, long "core" sections merged with their aligned
//     neighbours, then completed by the short thin sections touching them.
//
// Every filament becomes a horizontal glyph whose line is fitted on the column
// centers of its pixels.
//
// # Coordinate System
//
// Coordinates follow the image convention: origin at top-left, X rightward,
// Y downward. A run covers columns [X, X+Length) of row Y.
//
// # Limitations
//
// Linking is one-to-one, so a stick crossing another symbol (a ledger through
// a note head) splits into several sections. The merge rules rejoin the
// pieces only when they stay aligned.
package sticks
