package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"strings"
	"sync"
)

// ImageCache provides thread-safe caching of decoded pages and of the pictures
// built from them, to avoid redundant disk reads and binarization.
//
// Entries are keyed by the exact path string; different paths to the same file
// produce separate entries.
//
// # Memory Management
//
// Cached pages remain in memory until explicitly removed via Evict() or Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	pic, err := cache.LoadPicture("/path/to/page.png", imaging.DefaultThreshold)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pixels, _ := pic.Source(imaging.StaffLineFreeSource)
type ImageCache struct {
	mu       sync.RWMutex
	images   map[string]image.Image
	pictures map[string]*Picture
}

// NewImageCache creates and initializes a new empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images:   make(map[string]image.Image),
		pictures: make(map[string]*Picture),
	}
}

// Load retrieves a decoded image from the cache or reads it from disk.
//
// Supported formats are PNG, JPEG, and GIF.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadPicture returns the picture built from the page at path, binarizing it on
// first use with the given threshold.
//
// When staffFreePath is not empty, that file is registered as the
// staff-lines-removed source of the picture.
func (c *ImageCache) LoadPicture(path, staffFreePath string, threshold uint8) (*Picture, error) {
	key := fmt.Sprintf("%s|%s|%d", path, staffFreePath, threshold)

	c.mu.RLock()
	if pic, ok := c.pictures[key]; ok {
		c.mu.RUnlock()
		return pic, nil
	}
	c.mu.RUnlock()

	page, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	pic := NewPicture(page, threshold)

	if staffFreePath != "" {
		free, err := c.Load(staffFreePath)
		if err != nil {
			return nil, fmt.Errorf("staff-free source: %w", err)
		}
		if free.Bounds() != page.Bounds() {
			return nil, fmt.Errorf("staff-free source bounds %v differ from page bounds %v",
				free.Bounds(), page.Bounds())
		}
		pic.SetSource(StaffLineFreeSource, free, threshold)
	}

	c.mu.Lock()
	c.pictures[key] = pic
	c.mu.Unlock()

	return pic, nil
}

// Clear removes every cached page and picture.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.pictures = make(map[string]*Picture)
	c.mu.Unlock()
}

// Evict removes a specific page, and the pictures built from it, by path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	for key := range c.pictures {
		if strings.HasPrefix(key, path+"|") {
			delete(c.pictures, key)
		}
	}
	c.mu.Unlock()
}
