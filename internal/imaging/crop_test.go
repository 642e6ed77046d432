package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"
)

func decodeResult(t *testing.T, b64 string) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createPage(100, 100, 40, 4)

	result, err := Crop(img, 0, 0, 50, 50, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	decodeResult(t, result.ImageBase64)
}

func TestCrop_WithScale(t *testing.T) {
	img := createPage(100, 100, 40, 4)

	result, err := Crop(img, 0, 0, 50, 50, 2.0)
	if err != nil {
		t.Fatalf("Crop with scale failed: %v", err)
	}
	if result.Width != 100 || result.Height != 100 {
		t.Errorf("scaled dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
}

func TestCrop_InvalidRegions(t *testing.T) {
	img := createPage(100, 100, 40, 4)

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"negative x1", -1, 0, 50, 50},
		{"x2 beyond width", 0, 0, 101, 50},
		{"y2 beyond height", 0, 0, 50, 101},
		{"inverted x", 50, 0, 10, 50},
		{"empty y", 0, 20, 50, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.x1, tt.y1, tt.x2, tt.y2, 1.0); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCropAround(t *testing.T) {
	img := createPage(100, 100, 40, 4)

	result, err := CropAround(img, image.Rect(20, 40, 60, 44), 5, 1.0)
	if err != nil {
		t.Fatalf("CropAround failed: %v", err)
	}
	if result.Width != 50 || result.Height != 14 {
		t.Errorf("dimensions: got %dx%d, want 50x14", result.Width, result.Height)
	}

	// The bar occupies rows 40..43, i.e. rows 5..8 of the crop
	out := decodeResult(t, result.ImageBase64)
	r, _, _, _ := out.At(10, 6).RGBA()
	if r != 0 {
		t.Errorf("expected black bar pixel in crop, got r=%d", r>>8)
	}
}

func TestCropAround_ClipsToImage(t *testing.T) {
	img := createPage(100, 100, 40, 4)

	result, err := CropAround(img, image.Rect(0, 0, 10, 10), 8, 1.0)
	if err != nil {
		t.Fatalf("CropAround failed: %v", err)
	}
	if result.Width != 18 || result.Height != 18 {
		t.Errorf("dimensions: got %dx%d, want 18x18", result.Width, result.Height)
	}

	if _, err := CropAround(img, image.Rect(200, 200, 210, 210), 2, 1.0); err == nil {
		t.Error("expected error for bounds outside the image")
	}
	if _, err := CropAround(img, image.Rectangle{}, 2, 1.0); err == nil {
		t.Error("expected error for empty bounds")
	}
}
