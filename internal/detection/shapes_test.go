package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// drawOutline draws a rectangle outline of the given thickness.
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

// createFormImage draws a button, a checkbox and a text field outline.
func createFormImage() *image.RGBA {
	img := createTestImage(220, 110, color.White)
	drawOutline(img, 40, 20, 140, 50, 1, color.Black)  // button
	drawOutline(img, 170, 25, 184, 39, 1, color.Black) // checkbox
	drawOutline(img, 20, 70, 200, 92, 1, color.Black)  // text field
	return img
}

func candidateAt(cands []Candidate, p element.Point) (Candidate, bool) {
	for _, c := range cands {
		if c.Bounds.Contains(p) {
			return c, true
		}
	}
	return Candidate{}, false
}

func TestDetectCandidates(t *testing.T) {
	cands := DetectCandidates(createFormImage(), DefaultConfig())
	if len(cands) < 3 {
		t.Fatalf("expected at least 3 candidates, got %d: %+v", len(cands), cands)
	}

	tests := []struct {
		name string
		at   element.Point
		want element.Type
	}{
		{"button", element.Point{X: 90, Y: 35}, element.Button},
		{"checkbox", element.Point{X: 177, Y: 32}, element.Checkbox},
		{"text field", element.Point{X: 110, Y: 81}, element.TextField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := candidateAt(cands, tt.at)
			if !ok {
				t.Fatalf("no candidate contains %v", tt.at)
			}
			if c.Type != tt.want {
				t.Errorf("type: got %v, want %v (bounds %v)", c.Type, tt.want, c.Bounds)
			}
		})
	}
}

func TestDetectCandidates_ReadingOrder(t *testing.T) {
	cands := DetectCandidates(createFormImage(), DefaultConfig())
	for i := 1; i < len(cands); i++ {
		prev, cur := cands[i-1].Bounds, cands[i].Bounds
		if cur.Y1 < prev.Y1 || (cur.Y1 == prev.Y1 && cur.X1 < prev.X1) {
			t.Errorf("candidates out of order: %v before %v", prev, cur)
		}
	}
}

func TestDetectCandidates_BlankImage(t *testing.T) {
	cands := DetectCandidates(createTestImage(100, 100, color.White), DefaultConfig())
	if len(cands) != 0 {
		t.Errorf("expected no candidates on blank image, got %d", len(cands))
	}
}

func TestDetectCandidates_ScreenCoordinates(t *testing.T) {
	full := createTestImage(400, 300, color.White)
	drawOutline(full, 240, 200, 340, 230, 1, color.Black)

	sub := full.SubImage(image.Rect(200, 150, 400, 300))
	cands := DetectCandidates(sub, DefaultConfig())

	c, ok := candidateAt(cands, element.Point{X: 290, Y: 215})
	if !ok {
		t.Fatalf("no candidate in absolute coordinates: %+v", cands)
	}
	if c.Bounds.X1 < 200 || c.Bounds.Y1 < 150 {
		t.Errorf("bounds not in screen coordinates: %v", c.Bounds)
	}
}

func TestDetectCandidates_NestedGlyphsDropped(t *testing.T) {
	img := createTestImage(200, 80, color.White)
	drawOutline(img, 20, 20, 150, 55, 1, color.Black)
	// a small filled block inside the button, like a label glyph
	for y := 33; y < 42; y++ {
		for x := 60; x < 66; x++ {
			img.Set(x, y, color.Black)
		}
	}

	cands := DetectCandidates(img, DefaultConfig())
	for _, c := range cands {
		if c.Bounds.X1 > 40 && c.Bounds.X2 < 130 {
			t.Errorf("nested component reported as candidate: %v", c.Bounds)
		}
	}
}

func TestComponents(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 30, 30))
	set := func(x1, y1, x2, y2 int) {
		for y := y1; y < y2; y++ {
			for x := x1; x < x2; x++ {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	set(2, 2, 8, 6)     // 24 px
	set(20, 20, 24, 24) // 16 px
	set(15, 2, 17, 4)   // 4 px, below minimum
	// diagonal neighbor joins the second block
	mask.SetGray(24, 24, color.Gray{Y: 255})

	comps := Components(mask, 10)
	if len(comps) != 2 {
		t.Fatalf("expected 2 components, got %d: %+v", len(comps), comps)
	}
	if comps[0].Bounds != element.R(2, 2, 8, 6) || comps[0].Pixels != 24 {
		t.Errorf("first component: %+v", comps[0])
	}
	if comps[1].Bounds != element.R(20, 20, 25, 25) || comps[1].Pixels != 17 {
		t.Errorf("second component: %+v", comps[1])
	}

	largest, ok := Largest(comps)
	if !ok || largest.Bounds != element.R(20, 20, 25, 25) {
		t.Errorf("largest: %+v", largest)
	}
	if _, ok := Largest(nil); ok {
		t.Error("Largest(nil) should report false")
	}
}

func TestMergeOverlapping(t *testing.T) {
	comp := func(r element.Rect) Component { return Component{Bounds: r, Pixels: 10} }
	tests := []struct {
		name string
		in   []Component
		want int
	}{
		{"empty", nil, 0},
		{"disjoint", []Component{comp(element.R(0, 0, 10, 10)), comp(element.R(20, 20, 30, 30))}, 2},
		{"pair", []Component{comp(element.R(0, 0, 10, 10)), comp(element.R(5, 5, 15, 15))}, 1},
		{"touching", []Component{comp(element.R(0, 0, 10, 10)), comp(element.R(10, 0, 20, 10))}, 2},
		{"chain", []Component{comp(element.R(0, 0, 10, 10)), comp(element.R(30, 0, 40, 10)), comp(element.R(8, 0, 32, 5))}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeOverlapping(tt.in)
			if len(got) != tt.want {
				t.Errorf("got %d components, want %d: %v", len(got), tt.want, got)
			}
		})
	}

	got := MergeOverlapping([]Component{comp(element.R(0, 0, 10, 10)), comp(element.R(5, 5, 15, 15))})
	if got[0].Bounds != element.R(0, 0, 15, 15) {
		t.Errorf("union: got %v", got[0].Bounds)
	}
	if got[0].Pixels != 20 {
		t.Errorf("pixels: got %d, want 20", got[0].Pixels)
	}
}

func TestDetectCandidates_OverlappingBoxesMerged(t *testing.T) {
	// Two unconnected L-shaped strokes whose bounding boxes cross.
	img := createTestImage(160, 90, color.White)
	for x := 20; x <= 100; x++ {
		img.Set(x, 20, color.Black)
	}
	for y := 20; y <= 60; y++ {
		img.Set(20, y, color.Black)
	}
	for x := 40; x <= 120; x++ {
		img.Set(x, 70, color.Black)
	}
	for y := 30; y <= 70; y++ {
		img.Set(120, y, color.Black)
	}

	cands := DetectCandidates(img, DefaultConfig())
	c, ok := candidateAt(cands, element.Point{X: 21, Y: 21})
	if !ok {
		t.Fatalf("no candidate at the first stroke: %+v", cands)
	}
	if !c.Bounds.Contains(element.Point{X: 119, Y: 69}) {
		t.Errorf("strokes not merged: %v", c.Bounds)
	}
}
