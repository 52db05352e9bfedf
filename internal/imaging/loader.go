package imaging

import (
	"fmt"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of decoded gray images so that
// repeated detections on the same file skip disk reads and conversion.
//
// Images are keyed by the exact path string. The cached *Image is shared:
// callers must Clone it before modifying pixels.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Image
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Image),
	}
}

// Load returns the single-channel 8-bit version of the image at path,
// decoding and caching it on first use.
//
// Supported formats are PNG, JPEG and GIF. Colour images are reduced to
// luminance.
func (c *ImageCache) Load(path string) (*Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Image)
	c.mu.Unlock()
}

// Evict removes one image from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Open decodes an image file and converts it to single-channel 8-bit.
func Open(path string) (*Image, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return FromImage(src), nil
}

// Save encodes a gray image to path; the format follows the extension.
func Save(img *Image, path string) error {
	if !img.IsGray8() {
		return fmt.Errorf("cannot save %s image with %d channels", img.Depth, img.Channels)
	}
	if err := imaging.Save(img.Gray(), path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
