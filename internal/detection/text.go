package detection

import (
	"image"
	"math"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// textLikeness scores how much the edges inside r look like a line of text.
//
// Text has medium edge density (not too sparse, not too dense) and more
// horizontal than vertical edge runs across a row. The score combines both:
// horizontalScore * (1 - |density - 0.2| / 0.2), clamped to [0, 1].
func textLikeness(edges *image.Gray, r element.Rect) float64 {
	b := edges.Bounds()
	x1, y1 := max(r.X1, b.Min.X), max(r.Y1, b.Min.Y)
	x2, y2 := min(r.X2, b.Max.X), min(r.Y2, b.Max.Y)
	w, h := x2-x1, y2-y1
	if w <= 0 || h <= 0 {
		return 0
	}

	edgeCount := 0
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			if edges.GrayAt(x, y).Y != 0 {
				edgeCount++
			}
		}
	}
	density := float64(edgeCount) / float64(w*h)
	if density < 0.05 || density > 0.4 {
		return 0
	}

	score := horizontalScore(edges, x1, y1, x2, y2) * (1.0 - math.Abs(density-0.2)/0.2)
	return math.Max(0, math.Min(1, math.Round(score*1000)/1000))
}

// horizontalScore is the share of horizontal edge runs among all runs.
func horizontalScore(edges *image.Gray, x1, y1, x2, y2 int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y1; row < y2; row++ {
		inRun := false
		for col := x1; col < x2; col++ {
			if edges.GrayAt(col, row).Y != 0 {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x1; col < x2; col++ {
		inRun := false
		for row := y1; row < y2; row++ {
			if edges.GrayAt(col, row).Y != 0 {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}
