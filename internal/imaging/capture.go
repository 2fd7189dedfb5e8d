package imaging

import (
	"context"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// ErrOutsideScreen is returned when a capture region does not intersect the screen.
var ErrOutsideScreen = errors.New("capture region is outside the screen")

type frame struct {
	img     image.Image
	modTime time.Time
	size    int64
}

// FrameCache provides thread-safe caching of decoded screenshots keyed by
// file path.
//
// A cached frame is reused until the file's modification time or size
// changes, so a capture tool that keeps overwriting the same file is decoded
// only once per new screenshot.
//
// # Memory Management
//
// A frame stays in memory until its file fails to decode or Reset is
// called. The engine's health check calls Reset under memory pressure.
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]frame
}

// NewFrameCache creates and initializes a new empty frame cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]frame),
	}
}

// Load returns the decoded image at path, reading the file only if it is not
// cached or has changed on disk.
//
// Supported formats are PNG, JPEG and GIF.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a valid PNG, JPEG, or GIF image
func (c *FrameCache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat screenshot")
	}

	c.mu.RLock()
	f, ok := c.frames[path]
	c.mu.RUnlock()
	if ok && f.modTime.Equal(stat.ModTime()) && f.size == stat.Size() {
		return f.img, nil
	}

	img, err := Decode(path)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	c.mu.Lock()
	c.frames[path] = frame{img: img, modTime: stat.ModTime(), size: stat.Size()}
	c.mu.Unlock()

	return img, nil
}

// Reset removes all frames from the cache.
func (c *FrameCache) Reset() {
	c.mu.Lock()
	c.frames = make(map[string]frame)
	c.mu.Unlock()
}

// Evict removes the frame cached for path. Unknown paths are ignored.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Decode reads and decodes an image file without caching it.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}

// FileCapturer serves screen captures from a screenshot file that an
// external tool keeps up to date. The file's pixel (0,0) is screen (0,0).
type FileCapturer struct {
	path  string
	cache *FrameCache
}

// NewFileCapturer returns a capturer reading path through cache. A nil cache
// gets a private one.
func NewFileCapturer(path string, cache *FrameCache) *FileCapturer {
	if cache == nil {
		cache = NewFrameCache()
	}
	return &FileCapturer{path: path, cache: cache}
}

// Capture returns the pixels of region. The returned image's bounds are the
// region clipped to the screen, in absolute screen coordinates.
func (f *FileCapturer) Capture(ctx context.Context, region element.Region) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	screen, err := f.cache.Load(f.path)
	if err != nil {
		return nil, err
	}
	return SubImage(screen, image.Rect(region.X1, region.Y1, region.X2, region.Y2))
}

// Screen returns the full current screenshot.
func (f *FileCapturer) Screen() (image.Image, error) {
	return f.cache.Load(f.path)
}

// SubImage returns the part of img inside r, keeping absolute coordinates.
// Images without a SubImage method are copied.
func SubImage(img image.Image, r image.Rectangle) (image.Image, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, ErrOutsideScreen
	}
	if s, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r), nil
	}
	dst := image.NewRGBA(r)
	draw.Draw(dst, r, img, r.Min, draw.Src)
	return dst, nil
}
