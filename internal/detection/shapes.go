package detection

import (
	"image"
	"sort"

	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/imaging"
)

// Config holds the tunables of the contour pipeline.
type Config struct {
	// EdgeLow and EdgeHigh are the Canny hysteresis thresholds (0-255).
	EdgeLow  int
	EdgeHigh int

	// DilateRadius and DilateIterations close gaps in element outlines so
	// that a bordered control forms a single connected component.
	DilateRadius     float64
	DilateIterations int

	// MinContourPixels discards connected components with fewer pixels.
	MinContourPixels int

	// MinArea discards candidates whose bounding box area is not above it.
	MinArea int
}

// DefaultConfig returns the settings tuned for desktop UI screenshots.
func DefaultConfig() Config {
	return Config{
		EdgeLow:          imaging.DefaultEdgeLow,
		EdgeHigh:         imaging.DefaultEdgeHigh,
		DilateRadius:     1,
		DilateIterations: 2,
		MinContourPixels: 10,
		MinArea:          20,
	}
}

// textLikeParagraph is the TextLike score above which an otherwise
// unclassified region is reported as a paragraph.
const textLikeParagraph = 0.5

// Candidate is a region that looks like a UI element.
type Candidate struct {
	// Bounds is the bounding box in the coordinate frame of the input image.
	Bounds element.Rect `json:"bounds"`

	// Type is the heuristic classification from size and aspect ratio.
	Type element.Type `json:"type"`

	// Pixels is the number of mask pixels in the component.
	Pixels int `json:"pixels"`

	// TextLike is the edge-structure score in [0,1]; higher means the
	// region's interior looks like a line of text.
	TextLike float64 `json:"text_like"`
}

// DetectCandidates finds element-shaped regions in img.
//
// # Algorithm
//
//  1. Edge Detection: Canny with cfg.EdgeLow/cfg.EdgeHigh
//  2. Dilation: close outline gaps (cfg.DilateRadius, cfg.DilateIterations)
//  3. Contour Finding: 8-connected flood fill over the dilated mask
//  4. External Only: drop boxes nested inside a larger box, so the glyphs of
//     a button label do not become candidates of their own
//  5. Merging: union boxes that still overlap, then drop nested boxes again
//  6. Filtering: drop boxes with area not above cfg.MinArea
//  7. Classification: Classify on the box size, falling back to Paragraph
//     for unclassified boxes whose edges look like a line of text
//
// Candidates are returned in reading order (top to bottom, then left to
// right). Bounds are in the coordinate frame of img, so a capture with
// absolute screen bounds yields screen coordinates.
func DetectCandidates(img image.Image, cfg Config) []Candidate {
	edges := imaging.EdgeMap(img, cfg.EdgeLow, cfg.EdgeHigh)
	mask := edges
	if cfg.DilateIterations > 0 {
		mask = imaging.Dilate(edges, cfg.DilateRadius, cfg.DilateIterations)
	}

	comps := Components(mask, cfg.MinContourPixels)
	comps = dropNested(MergeOverlapping(dropNested(comps)))

	candidates := make([]Candidate, 0, len(comps))
	for _, c := range comps {
		if c.Bounds.Area() <= cfg.MinArea {
			continue
		}
		cand := Candidate{
			Bounds:   c.Bounds,
			Type:     Classify(c.Bounds.Width(), c.Bounds.Height()),
			Pixels:   c.Pixels,
			TextLike: textLikeness(edges, c.Bounds),
		}
		if cand.TextLike >= textLikeParagraph {
			cand.Type = element.MostSpecific(cand.Type, element.Paragraph)
		}
		candidates = append(candidates, cand)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Bounds, candidates[j].Bounds
		if a.Y1 != b.Y1 {
			return a.Y1 < b.Y1
		}
		return a.X1 < b.X1
	})
	return candidates
}

// Component is a connected set of mask pixels.
type Component struct {
	Bounds element.Rect
	Pixels int
}

// Components labels the 8-connected white regions of mask and returns their
// bounding boxes in the coordinate frame of mask. Components with fewer than
// minPixels pixels are discarded as noise.
//
// Bounds are exclusive on the right and bottom so that a single pixel has
// width and height 1.
func Components(mask *image.Gray, minPixels int) []Component {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	visited := make([]bool, width*height)
	comps := make([]Component, 0)

	on := func(x, y int) bool {
		return mask.Pix[(y)*mask.Stride+x] != 0
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !on(x, y) {
				continue
			}
			c := floodFill(on, visited, x, y, width, height)
			if c.Pixels < minPixels {
				continue
			}
			c.Bounds = c.Bounds.Translate(bounds.Min.X, bounds.Min.Y)
			comps = append(comps, c)
		}
	}

	return comps
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large contours. Uses 8-connectivity (includes diagonal neighbors).
func floodFill(on func(x, y int) bool, visited []bool, startX, startY, width, height int) Component {
	stack := []element.Point{{X: startX, Y: startY}}
	minX, minY := startX, startY
	maxX, maxY := startX, startY
	pixels := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		idx := p.Y*width + p.X
		if visited[idx] || !on(p.X, p.Y) {
			continue
		}

		visited[idx] = true
		pixels++
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, element.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}

	return Component{
		Bounds: element.R(minX, minY, maxX+1, maxY+1),
		Pixels: pixels,
	}
}

// Largest returns the component with the biggest bounding-box area.
func Largest(comps []Component) (Component, bool) {
	if len(comps) == 0 {
		return Component{}, false
	}
	best := comps[0]
	for _, c := range comps[1:] {
		if c.Bounds.Area() > best.Bounds.Area() {
			best = c
		}
	}
	return best, true
}

// dropNested removes components whose box lies entirely inside another
// component's box, keeping only outermost contours.
func dropNested(comps []Component) []Component {
	sort.SliceStable(comps, func(i, j int) bool {
		return comps[i].Bounds.Area() > comps[j].Bounds.Area()
	})
	kept := make([]Component, 0, len(comps))
	for _, c := range comps {
		nested := false
		for _, k := range kept {
			if contains(k.Bounds, c.Bounds) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, c)
		}
	}
	return kept
}

func contains(outer, inner element.Rect) bool {
	return inner.X1 >= outer.X1 && inner.Y1 >= outer.Y1 && inner.X2 <= outer.X2 && inner.Y2 <= outer.Y2
}

// MergeOverlapping unions components whose boxes share area into single
// components. The pass repeats until no two boxes overlap.
func MergeOverlapping(comps []Component) []Component {
	merged := append([]Component(nil), comps...)
	for {
		changed := false
		out := make([]Component, 0, len(merged))
		for _, c := range merged {
			found := false
			for i := range out {
				if out[i].Bounds.Overlaps(c.Bounds) {
					out[i].Bounds = out[i].Bounds.Union(c.Bounds)
					out[i].Pixels += c.Pixels
					found = true
					changed = true
					break
				}
			}
			if !found {
				out = append(out, c)
			}
		}
		merged = out
		if !changed {
			return merged
		}
	}
}
