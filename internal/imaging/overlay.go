package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Mark is one accepted interpretation to outline on an overlay.
type Mark struct {
	Bounds image.Rectangle
	Kind   string
	Grade  float64

	// Label, when set, is written above the outline (below when the box
	// touches the top of the page).
	Label string
}

// OverlayResult contains the page with interpretation outlines.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Marks       int    `json:"marks"`
}

// kindHues assigns a fixed hue (degrees) per interpretation kind so that
// overlays stay comparable between runs.
var kindHues = map[string]float64{
	"ledger":     120,
	"flag":       20,
	"small-flag": 50,
	"stem":       210,
	"beam":       280,
	"beam-hook":  300,
	"head":       180,
}

// MarkColor returns the outline color of a mark: the hue encodes the kind and
// the saturation the grade, so weak interpretations look washed out.
func MarkColor(kind string, grade float64) color.RGBA {
	hue, ok := kindHues[kind]
	if !ok {
		hue = 0
	}
	grade = clampUnit(grade)
	c := colorful.Hsv(hue, 0.25+0.75*grade, 0.9)
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Overlay draws the outline of every mark on a copy of img.
func Overlay(img image.Image, marks []Mark) (*OverlayResult, error) {
	bounds := img.Bounds()

	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, imaging.Clone(img), image.Point{}, draw.Src)

	for _, m := range marks {
		c := MarkColor(m.Kind, m.Grade)
		box := m.Bounds.Intersect(bounds)
		outline(result, box, c)
		if m.Label != "" && !box.Empty() {
			label(result, box, m.Label, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	return &OverlayResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Marks:       len(marks),
	}, nil
}

// outline draws a one-pixel rectangle border just outside r.
func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	box := r.Inset(-1).Intersect(img.Bounds())
	for x := box.Min.X; x < box.Max.X; x++ {
		img.SetRGBA(x, box.Min.Y, c)
		img.SetRGBA(x, box.Max.Y-1, c)
	}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		img.SetRGBA(box.Min.X, y, c)
		img.SetRGBA(box.Max.X-1, y, c)
	}
}

// label writes text with the 7x13 bitmap face next to box.
func label(img *image.RGBA, box image.Rectangle, text string, c color.RGBA) {
	face := basicfont.Face7x13
	y := box.Min.Y - 2 - face.Descent
	if y-face.Ascent < img.Bounds().Min.Y {
		y = box.Max.Y + 1 + face.Ascent
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(box.Min.X), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
