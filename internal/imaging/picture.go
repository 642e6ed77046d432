package imaging

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/segment"
)

// SourceKey identifies a processing stage of the sheet picture.
type SourceKey string

const (
	// BinarySource is the binarized page.
	BinarySource SourceKey = "binary"

	// StaffLineFreeSource is the binarized page with staff lines removed.
	StaffLineFreeSource SourceKey = "staff-lines-removed"
)

// DefaultThreshold is the gray level below which a pixel is foreground.
const DefaultThreshold uint8 = 128

// ErrUnknownSource is returned when a picture has no source for a stage.
var ErrUnknownSource = errors.New("unknown picture source")

// Pixels is a foreground/background raster queried at integer coordinates.
//
// Coordinates outside Bounds() are background.
type Pixels interface {
	IsFore(x, y int) bool
	Bounds() image.Rectangle
}

// Binary is a thresholded raster where foreground (ink) pixels are black (0)
// and background pixels are white (255).
type Binary struct {
	gray *image.Gray
}

// Binarize thresholds img at the given gray level.
//
// Pixels darker than level become foreground. The result keeps img's
// coordinate space.
func Binarize(img image.Image, level uint8) *Binary {
	gray := segment.Threshold(img, level)
	if b := img.Bounds(); gray.Rect.Min != b.Min {
		// bild rebases its output at the origin
		gray.Rect = gray.Rect.Add(b.Min)
	}
	return &Binary{gray: gray}
}

// IsFore reports whether (x, y) is a foreground pixel.
func (b *Binary) IsFore(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(b.gray.Rect) {
		return false
	}
	return b.gray.GrayAt(x, y).Y == 0
}

// Bounds returns the raster bounds.
func (b *Binary) Bounds() image.Rectangle {
	return b.gray.Rect
}

// Gray exposes the underlying thresholded image.
func (b *Binary) Gray() *image.Gray {
	return b.gray
}

// Picture gathers the rasters of one sheet, keyed by processing stage.
//
// Picture is safe for concurrent use. Rasters are read-only once registered.
type Picture struct {
	page image.Image

	mu      sync.RWMutex
	sources map[SourceKey]*Binary
}

// NewPicture builds a picture from a decoded page. The binary source is
// computed immediately; the staff-line-free source defaults to the same raster
// until SetSource provides a dedicated one.
func NewPicture(page image.Image, threshold uint8) *Picture {
	bin := Binarize(page, threshold)
	return &Picture{
		page: page,
		sources: map[SourceKey]*Binary{
			BinarySource:        bin,
			StaffLineFreeSource: bin,
		},
	}
}

// Page returns the original decoded page.
func (p *Picture) Page() image.Image {
	return p.page
}

// SetSource binarizes img and registers it under key.
func (p *Picture) SetSource(key SourceKey, img image.Image, threshold uint8) {
	bin := Binarize(img, threshold)
	p.mu.Lock()
	p.sources[key] = bin
	p.mu.Unlock()
}

// Source returns the raster registered under key.
func (p *Picture) Source(key SourceKey) (*Binary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	bin, ok := p.sources[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, key)
	}
	return bin, nil
}
