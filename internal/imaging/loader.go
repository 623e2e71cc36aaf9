package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"sync"

	"github.com/anthonynsimon/bild/clone"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageInfo describes a decoded image.
type ImageInfo struct {
	Source    string `json:"source"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	SizeBytes int    `json:"size_bytes"`
}

// Raster is a decoded, normalized image.
type Raster struct {
	Image *image.RGBA
	Info  ImageInfo
}

// ImageCache caches decoded rasters by source key.
//
// Cached rasters stay in memory until Evict or Clear is called.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Raster
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Raster),
	}
}

// Load returns the cached raster for src or fetches and decodes it.
//
// # Errors
//
//   - The source cannot be fetched (missing file, archive entry, HTTP error).
//   - The bytes are not a supported image format.
//   - The image has zero width or height.
func (c *ImageCache) Load(ctx context.Context, src Source) (*Raster, error) {
	key := src.Key()
	c.mu.RLock()
	if r, ok := c.images[key]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	r, err := Decode(data)
	if err != nil {
		return nil, err
	}
	r.Info.Source = key

	c.mu.Lock()
	c.images[key] = r
	c.mu.Unlock()
	return r, nil
}

// Len returns the number of cached rasters.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all cached rasters.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Raster)
	c.mu.Unlock()
}

// Evict removes the raster cached for src.
func (c *ImageCache) Evict(src Source) { c.EvictKey(src.Key()) }

// EvictKey removes the raster cached under key, as reported in ImageInfo.Source.
func (c *ImageCache) EvictKey(key string) {
	c.mu.Lock()
	delete(c.images, key)
	c.mu.Unlock()
}

// Decode decodes encoded image bytes into a normalized raster.
func Decode(data []byte) (*Raster, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	rgba := ToRGBA(img)
	if rgba.Rect.Dx() == 0 || rgba.Rect.Dy() == 0 {
		return nil, fmt.Errorf("image has zero size")
	}
	return &Raster{
		Image: rgba,
		Info: ImageInfo{
			Width:     rgba.Rect.Dx(),
			Height:    rgba.Rect.Dy(),
			Format:    format,
			SizeBytes: len(data),
		},
	}, nil
}

// ToRGBA copies img into an RGBA raster whose bounds start at (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	rgba := clone.AsRGBA(img)
	if rgba.Rect.Min != (image.Point{}) {
		rgba.Rect = rgba.Rect.Sub(rgba.Rect.Min)
	}
	return rgba
}
