package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyImage is returned when decoded image data has no pixels.
var ErrEmptyImage = errors.New("image has zero size")

// ImageCache provides thread-safe caching of decoded images keyed by file path.
//
// Once an image is loaded, subsequent Load() calls for the same path return the
// cached copy without disk I/O. Cached images are never mutated by this module;
// every processing stage returns a fresh image.
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/car.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP and WebP. The image is cached using
// the exact path string provided, so relative and absolute paths to the same
// file produce separate entries.
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

	img, _, err := DecodeReader(f)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len reports how many images are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Decode decodes an uploaded image held in memory.
//
// The returned format name is the one registered by the decoder ("png",
// "jpeg", "gif", "bmp" or "webp"). Images with no pixels are rejected with
// ErrEmptyImage so callers can treat them like undecodable input.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("failed to decode image: %w", ErrEmptyImage)
	}
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader decodes an image from r.
func DecodeReader(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if IsEmpty(img) {
		return nil, format, fmt.Errorf("failed to decode image: %w", ErrEmptyImage)
	}
	return img, format, nil
}

// IsEmpty reports whether img is nil or has zero width or height.
func IsEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimensions returns the size of img; a nil image has zero size.
func Dimensions(img image.Image) DimensionsResult {
	if img == nil {
		return DimensionsResult{}
	}
	b := img.Bounds()
	return DimensionsResult{Width: b.Dx(), Height: b.Dy()}
}
