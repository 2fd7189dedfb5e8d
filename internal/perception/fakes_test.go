package perception

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/pkg/errors"

	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/imaging"
	"github.com/ironsheep/focus-narrator/internal/ocr"
)

// fakeTree is an in-memory TreeProvider.
type fakeTree struct {
	window  Window
	root    *Node
	focused *Node
	err     error
}

func (f *fakeTree) Tree(context.Context) (*Node, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.root, nil
}

func (f *fakeTree) Focused(context.Context) (*Node, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return f.focused, f.focused != nil, nil
}

func (f *fakeTree) Foreground(context.Context) (Window, error) {
	return f.window, nil
}

// screenCapturer serves regions of an in-memory screen.
type screenCapturer struct {
	mu     sync.Mutex
	screen image.Image
	calls  int
}

func (s *screenCapturer) Capture(ctx context.Context, region element.Region) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.SubImage(s.screen, image.Rect(region.X1, region.Y1, region.X2, region.Y2))
}

func (s *screenCapturer) set(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = img
}

// labelEngine answers every recognition with one word.
type labelEngine struct {
	mu    sync.Mutex
	text  string
	fail  bool
	calls int
	opts  []ocr.Options
}

func (e *labelEngine) ReadText(_ image.Image, opts ocr.Options) ([]ocr.Word, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.opts = append(e.opts, opts)
	if e.fail {
		return nil, errors.New("recognizer crashed")
	}
	return []ocr.Word{{Bounds: element.R(0, 0, 40, 12), Text: e.text, Confidence: 0.9}}, nil
}

func (e *labelEngine) Close() error { return nil }

func (e *labelEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type errorLog struct {
	mu     sync.Mutex
	errors map[string]int
}

func (l *errorLog) RecordError(_ context.Context, component string, _ error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.errors == nil {
		l.errors = map[string]int{}
	}
	l.errors[component]++
	return false
}

func (l *errorLog) count(component string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errors[component]
}

func createScreen(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func drawOutline(img *image.RGBA, x1, y1, x2, y2, thickness int, c color.Color) {
	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			img.Set(x, y1+t, c)
			img.Set(x, y2-t, c)
		}
		for y := y1; y <= y2; y++ {
			img.Set(x1+t, y, c)
			img.Set(x2-t, y, c)
		}
	}
}

func fillRect(img *image.RGBA, r element.Rect, c color.Color) {
	for y := r.Y1; y < r.Y2; y++ {
		for x := r.X1; x < r.X2; x++ {
			img.Set(x, y, c)
		}
	}
}
