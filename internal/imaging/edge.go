package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// Default Canny thresholds used for UI element detection. Screen content is
// low-noise and high-contrast, so both thresholds sit well below the values
// typically used for photographs.
const (
	DefaultEdgeLow  = 20
	DefaultEdgeHigh = 80
)

// EdgeMap performs Canny-style edge detection and returns a binary mask.
//
// The returned image has the same bounds as img. Edge pixels are 255 and
// everything else is 0.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Weak-edge threshold (0-255). Weak edges survive only when
//     connected to a strong edge.
//   - thresholdHigh: Strong-edge threshold (0-255).
//
// # Algorithm
//
//  1. Grayscale conversion and Gaussian blur (radius 1.4) to suppress noise
//  2. Sobel gradient magnitude and direction
//  3. Non-maximum suppression along the gradient direction
//  4. Hysteresis thresholding with 8-connected strong neighbors
func EdgeMap(img image.Image, thresholdLow, thresholdHigh int) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(bounds)
	if width < 3 || height < 3 {
		return result
	}

	blurred := blur.Gaussian(effect.Grayscale(img), 1.4)
	bb := blurred.Bounds()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			// Grayscale input means R == G == B.
			gray[y][x] = float64(blurred.RGBAAt(x+bb.Min.X, y+bb.Min.Y).R) / 255.0
		}
	}

	magnitude := make([][]float64, height)
	direction := make([][]float64, height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += gray[py][px] * sobelX[ky+1][kx+1]
					gy += gray[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression: keep only local maxima along the gradient.
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8):
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			default:
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}

	lowThresh := float64(thresholdLow) / 255.0
	highThresh := float64(thresholdHigh) / 255.0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= highThresh {
				result.SetGray(x+bounds.Min.X, y+bounds.Min.Y, color.Gray{Y: 255})
				continue
			}
			if val < lowThresh || val == 0 {
				continue
			}
			strong := false
			for ky := -1; ky <= 1 && !strong; ky++ {
				for kx := -1; kx <= 1 && !strong; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					if suppressed[py][px] >= highThresh {
						strong = true
					}
				}
			}
			if strong {
				result.SetGray(x+bounds.Min.X, y+bounds.Min.Y, color.Gray{Y: 255})
			}
		}
	}

	return result
}

// Dilate grows the white regions of a binary mask using a square structuring
// element of the given radius, repeated iterations times. The result keeps
// the bounds of mask.
func Dilate(mask *image.Gray, radius float64, iterations int) *image.Gray {
	var cur image.Image = mask
	for i := 0; i < iterations; i++ {
		cur = effect.Dilate(cur, radius)
	}
	return toBinary(cur, mask.Bounds(), 128)
}

// toBinary thresholds any image into a 0/255 mask placed at bounds.
func toBinary(img image.Image, bounds image.Rectangle, level uint8) *image.Gray {
	out := image.NewGray(bounds)
	src := img.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(src.Min.X+x, src.Min.Y+y)).(color.Gray)
			if g.Y >= level {
				out.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// clamp constrains an integer value to the range [lo, hi].
// Used for boundary handling in convolution operations.
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
