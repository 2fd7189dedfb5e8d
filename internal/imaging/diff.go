package imaging

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// DefaultDiffThreshold is the per-pixel gray-level difference above which a
// pixel counts as changed between two frames.
const DefaultDiffThreshold = 15

// DiffResult summarizes the change between two frames of the same region.
type DiffResult struct {
	// Mask marks changed pixels with 255, in the bounds of the first frame.
	Mask *image.Gray

	// PixelsDifferent is the number of changed pixels.
	PixelsDifferent int

	// TotalPixels is the number of compared pixels.
	TotalPixels int

	// Similarity is 1 - PixelsDifferent/TotalPixels.
	Similarity float64
}

// Diff compares two captures of the same screen region pixel by pixel.
//
// Both frames are compared in grayscale. A pixel is changed when the absolute
// gray difference exceeds threshold. The frames must have the same size;
// their origins may differ.
func Diff(before, after image.Image, threshold int) (*DiffResult, error) {
	b1 := before.Bounds()
	b2 := after.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return nil, errors.Errorf("frame sizes differ: %dx%d vs %dx%d", b1.Dx(), b1.Dy(), b2.Dx(), b2.Dy())
	}

	mask := image.NewGray(b1)
	total := b1.Dx() * b1.Dy()
	different := 0

	for dy := 0; dy < b1.Dy(); dy++ {
		for dx := 0; dx < b1.Dx(); dx++ {
			g1 := color.GrayModel.Convert(before.At(b1.Min.X+dx, b1.Min.Y+dy)).(color.Gray).Y
			g2 := color.GrayModel.Convert(after.At(b2.Min.X+dx, b2.Min.Y+dy)).(color.Gray).Y
			if absDiff(g1, g2) > threshold {
				mask.SetGray(b1.Min.X+dx, b1.Min.Y+dy, color.Gray{Y: 255})
				different++
			}
		}
	}

	similarity := 1.0
	if total > 0 {
		similarity = 1.0 - float64(different)/float64(total)
	}
	return &DiffResult{
		Mask:            mask,
		PixelsDifferent: different,
		TotalPixels:     total,
		Similarity:      similarity,
	}, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
