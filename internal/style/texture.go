package style

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// TextureCache keeps external images loaded from disk, keyed by path and
// target size. Cached entries never change, so reads through the cache
// produce the same pixels as a fresh load.
type TextureCache struct {
	mu   sync.Mutex
	mats map[textureKey]gocv.Mat
}

type textureKey struct {
	path string
	size image.Point
}

// NewTextureCache creates an empty cache.
func NewTextureCache() *TextureCache {
	return &TextureCache{mats: make(map[textureKey]gocv.Mat)}
}

// Get returns a copy of the BGR image at path resized to size. The caller
// closes the returned Mat.
func (c *TextureCache) Get(path string, size image.Point) (gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := textureKey{path: path, size: size}
	if m, ok := c.mats[key]; ok {
		return m.Clone(), nil
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("failed to load texture %q", path)
	}
	defer img.Close()

	resized := gocv.NewMat()
	gocv.Resize(img, &resized, size, 0, 0, gocv.InterpolationLinear)
	c.mats[key] = resized

	return resized.Clone(), nil
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mats)
}

// Close releases every cached texture.
func (c *TextureCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, m := range c.mats {
		m.Close()
		delete(c.mats, key)
	}
}
