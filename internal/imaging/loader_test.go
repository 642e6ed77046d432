package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"testing"
)

// createPage creates a white page with a black horizontal bar and returns the
// in-memory image.
func createPage(width, height, barY, barThickness int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := barY; y < barY+barThickness && y < height; y++ {
		for x := 10; x < width-10; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

// writePage encodes img to a temporary PNG file and returns its path.
// The file is removed when the test ends.
func writePage(t *testing.T, img image.Image) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "test-page-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	return tmpFile.Name()
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.images == nil || cache.pictures == nil {
		t.Fatal("NewImageCache did not initialize its maps")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := writePage(t, createPage(100, 60, 20, 3))

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b.Dx() != 100 || b.Dy() != 60 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x60", b.Dx(), b.Dy())
	}

	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load("/nonexistent/path/to/page.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	cache := NewImageCache()

	tmpFile, err := os.CreateTemp("", "invalid-page-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.WriteString("not an image")
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	if _, err := cache.Load(tmpFile.Name()); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestImageCache_LoadPicture(t *testing.T) {
	cache := NewImageCache()
	pagePath := writePage(t, createPage(100, 60, 20, 3))
	freePath := writePage(t, createPage(100, 60, 40, 2))

	pic, err := cache.LoadPicture(pagePath, freePath, DefaultThreshold)
	if err != nil {
		t.Fatalf("LoadPicture failed: %v", err)
	}

	bin, err := pic.Source(BinarySource)
	if err != nil {
		t.Fatalf("binary source: %v", err)
	}
	if !bin.IsFore(50, 21) || bin.IsFore(50, 41) {
		t.Error("binary source should carry the page bar only")
	}

	free, err := pic.Source(StaffLineFreeSource)
	if err != nil {
		t.Fatalf("staff-free source: %v", err)
	}
	if free.IsFore(50, 21) || !free.IsFore(50, 41) {
		t.Error("staff-free source should carry the second file")
	}

	again, err := cache.LoadPicture(pagePath, freePath, DefaultThreshold)
	if err != nil {
		t.Fatalf("second LoadPicture failed: %v", err)
	}
	if again != pic {
		t.Error("second LoadPicture did not return cached picture")
	}
}

func TestImageCache_LoadPicture_BoundsMismatch(t *testing.T) {
	cache := NewImageCache()
	pagePath := writePage(t, createPage(100, 60, 20, 3))
	freePath := writePage(t, createPage(80, 60, 20, 3))

	if _, err := cache.LoadPicture(pagePath, freePath, DefaultThreshold); err == nil {
		t.Error("LoadPicture should reject a staff-free source of another size")
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	imgPath := writePage(t, createPage(50, 50, 10, 2))

	if _, err := cache.LoadPicture(imgPath, "", DefaultThreshold); err != nil {
		t.Fatalf("LoadPicture failed: %v", err)
	}

	cache.Evict(imgPath)
	cache.mu.RLock()
	_, exists := cache.images[imgPath]
	pictures := len(cache.pictures)
	cache.mu.RUnlock()
	if exists || pictures != 0 {
		t.Error("Evict did not remove page and pictures")
	}

	// Should not panic
	cache.Evict("/nonexistent/path")

	if _, err := cache.Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Clear()
	cache.mu.RLock()
	count := len(cache.images)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", count)
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := writePage(t, createPage(50, 50, 10, 2))

	var wg sync.WaitGroup
	errors := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.LoadPicture(imgPath, "", DefaultThreshold); err != nil {
				errors <- err
			}
		}()
	}

	wg.Wait()
	close(errors)

	for err := range errors {
		t.Errorf("concurrent LoadPicture error: %v", err)
	}
}

func TestPicture_UnknownSource(t *testing.T) {
	pic := NewPicture(createPage(40, 40, 5, 2), DefaultThreshold)
	if _, err := pic.Source("dewarped"); err == nil {
		t.Error("Source should fail for an unregistered stage")
	}
}

func TestBinary_OutOfBoundsIsBackground(t *testing.T) {
	bin := Binarize(createPage(40, 40, 0, 40), DefaultThreshold)
	if !bin.IsFore(20, 20) {
		t.Fatal("expected foreground inside the bar")
	}
	for _, p := range []image.Point{{-1, 5}, {20, -1}, {40, 5}, {20, 40}} {
		if bin.IsFore(p.X, p.Y) {
			t.Errorf("IsFore(%d,%d) should be false outside bounds", p.X, p.Y)
		}
	}
}
