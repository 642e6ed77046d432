// Package imaging provides the raster layer of the OMR tools.
//
// It decodes sheet pages, binarizes them into foreground/background rasters
// keyed by processing stage, and renders review images (crops around a glyph
// and overlays of accepted interpretations). All operations use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Sources
//
// A Picture holds one Binary raster per SourceKey. The ledger checks read the
// StaffLineFreeSource stage, so that staff line pixels never count as ink next
// to a candidate. When no dedicated staff-free page is supplied, the stage
// falls back to the plain binarized page.
//
// # Thread Safety
//
// ImageCache and Picture are safe for concurrent use. Binary rasters are
// read-only once built and may be shared between goroutines.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Coordinates outside image bounds
//   - Invalid region specifications (x1 >= x2 or y1 >= y2)
//   - File I/O errors during image loading
//   - Encoding errors during image output
package imaging
