package detection

import (
	"image"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/imaging"
)

// Focus-ring heuristics.
const (
	focusRingThickness = 2
	focusMinSide       = 12
	focusMaxWidth      = 600
	focusMaxHeight     = 200
	focusMinScore      = 0.45
	focusMaxInset      = 4
)

// Highlight is a region that looks like it carries a keyboard focus ring.
type Highlight struct {
	Bounds element.Rect
	Type   element.Type
	Score  float64
}

// FocusHighlight looks for the control drawn with a focus indicator.
//
// Browsers and toolkits draw keyboard focus as a thin, uniformly colored
// ring around the control. Each candidate from DetectCandidates is scored on
// three terms, each in [0,1]:
//
//   - contrast: difference between mean ring lightness and mean interior
//     lightness
//   - uniformity: 1 - stddev of ring lightness (a ring is one color)
//   - chroma: CIE76 distance between the dominant color of the ring's top
//     edge and the dominant interior color (focus rings are usually tinted)
//
// The highest score at or above 0.45 wins. Candidates outside a
// control-like size range are ignored.
func FocusHighlight(img image.Image, cfg Config) (Highlight, bool) {
	var best Highlight
	found := false

	for _, c := range DetectCandidates(img, cfg) {
		w, h := c.Bounds.Width(), c.Bounds.Height()
		if w < focusMinSide || h < focusMinSide || w > focusMaxWidth || h > focusMaxHeight {
			continue
		}
		score, ok := focusScore(img, c.Bounds)
		if !ok || score < focusMinScore {
			continue
		}
		if !found || score > best.Score {
			best = Highlight{Bounds: c.Bounds, Type: c.Type, Score: score}
			found = true
		}
	}
	return best, found
}

// focusScore scores the best ring position among a few insets of r, since
// dilation leaves candidate boxes a few pixels outside the drawn outline.
func focusScore(img image.Image, r element.Rect) (float64, bool) {
	best, ok := 0.0, false
	outer := image.Rect(r.X1, r.Y1, r.X2, r.Y2)
	for inset := 0; inset <= focusMaxInset; inset++ {
		if s, valid := ringScore(img, outer.Inset(inset)); valid && (!ok || s > best) {
			best, ok = s, true
		}
	}
	return best, ok
}

func ringScore(img image.Image, rect image.Rectangle) (float64, bool) {
	inner := rect.Inset(focusRingThickness + 1)
	if inner.Empty() {
		return 0, false
	}

	ring := imaging.BorderLuminance(img, rect, focusRingThickness)
	interior := imaging.RegionLuminance(img, inner)
	if len(ring) == 0 || len(interior) == 0 {
		return 0, false
	}

	ringMean, err := stats.Mean(ring)
	if err != nil {
		return 0, false
	}
	innerMean, err := stats.Mean(interior)
	if err != nil {
		return 0, false
	}
	ringStd, err := stats.StandardDeviation(ring)
	if err != nil {
		return 0, false
	}

	contrast := math.Min(1, math.Abs(ringMean-innerMean)*2)
	uniformity := math.Max(0, 1-ringStd*2)

	chroma := 0.0
	topEdge := image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+focusRingThickness)
	ringColors := imaging.DominantColors(img, topEdge, 1)
	innerColors := imaging.DominantColors(img, inner, 1)
	if len(ringColors) > 0 && len(innerColors) > 0 {
		chroma = math.Min(1, imaging.ColorDistance(ringColors[0].Color, innerColors[0].Color))
	}

	return 0.4*contrast + 0.3*uniformity + 0.3*chroma, true
}
