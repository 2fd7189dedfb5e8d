package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// newTestEngine skips the test when Tesseract is not installed.
func newTestEngine(t *testing.T) *TesseractEngine {
	t.Helper()
	engine, err := NewTesseract(TesseractConfig{Workers: 1})
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// textImage renders text at 1x and scales it up with nearest-neighbour
// blocks, which Tesseract reads far more reliably than 13px glyphs.
func textImage(text string, scale int, origin image.Point) *image.RGBA {
	w := len(text)*7 + 40
	h := 40
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(origin.X, origin.Y, origin.X+w*scale, origin.Y+h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(origin.X+x*scale+dx, origin.Y+y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func TestTesseract_ReadText(t *testing.T) {
	engine := newTestEngine(t)

	img := textImage("SAVE", 4, image.Point{})
	words, err := engine.ReadText(img, UIOptions())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}

	text := strings.ToUpper(JoinText(words, 1))
	if !strings.Contains(text, "SAVE") {
		t.Errorf("expected SAVE in %q", text)
	}
	for _, w := range words {
		if w.Confidence < 0 || w.Confidence > 1 {
			t.Errorf("confidence %f out of range", w.Confidence)
		}
		if !w.Bounds.Valid() {
			t.Errorf("invalid word bounds %v", w.Bounds)
		}
	}
}

func TestTesseract_TranslatesToImageFrame(t *testing.T) {
	engine := newTestEngine(t)

	origin := image.Point{X: 500, Y: 300}
	img := textImage("OPEN", 4, origin)
	words, err := engine.ReadText(img, UIOptions())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if len(words) == 0 {
		t.Skip("no words recognized at this scale")
	}
	for _, w := range words {
		if w.Bounds.X1 < origin.X || w.Bounds.Y1 < origin.Y {
			t.Errorf("word %q bounds %v not translated by %v", w.Text, w.Bounds, origin)
		}
	}
}

func TestTesseract_BlankImage(t *testing.T) {
	engine := newTestEngine(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	words, err := engine.ReadText(img, ProseOptions())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if got := JoinText(words, DefaultMinTextLen); got != "" {
		t.Errorf("expected no text on blank image, got %q", got)
	}
}

func TestTesseract_Closed(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	_, err := engine.ReadText(textImage("X", 2, image.Point{}), UIOptions())
	if err == nil {
		t.Error("ReadText should fail after Close")
	}
}

func TestTesseract_InvalidLanguage(t *testing.T) {
	newTestEngine(t)

	_, err := NewTesseract(TesseractConfig{Language: "invalid_lang_xyz", Workers: 1})
	if err == nil {
		t.Fatal("expected error for unknown language")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
