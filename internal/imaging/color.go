package imaging

import (
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Luminance returns the perceptual lightness of c in [0, 1], taken from the
// L component of CIE L*a*b*.
func Luminance(c color.Color) float64 {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		// Fully transparent pixels carry no color information.
		return 0
	}
	l, _, _ := cf.Lab()
	return clampUnit(l)
}

// RegionLuminance returns the lightness of every pixel in r, in row-major
// order. r is intersected with the image bounds first.
func RegionLuminance(img image.Image, r image.Rectangle) []float64 {
	r = r.Intersect(img.Bounds())
	out := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out = append(out, Luminance(img.At(x, y)))
		}
	}
	return out
}

// BorderLuminance returns the lightness of the pixels on a ring of the given
// thickness just inside r.
func BorderLuminance(img image.Image, r image.Rectangle, thickness int) []float64 {
	r = r.Intersect(img.Bounds())
	inner := r.Inset(thickness)
	out := make([]float64, 0, 2*(r.Dx()+r.Dy())*thickness)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if (image.Point{X: x, Y: y}).In(inner) {
				continue
			}
			out = append(out, Luminance(img.At(x, y)))
		}
	}
	return out
}

// ColorFrequency is a quantized color and its share of a region.
type ColorFrequency struct {
	Color      colorful.Color `json:"-"`
	Hex        string         `json:"hex"`
	Percentage float64        `json:"percentage"`
}

// DominantColors extracts the most common colors in region r.
//
// Colors are quantized by dropping the low four bits of each channel, so
// anti-aliased variants of a border color fall into the same bucket. Results
// are sorted by frequency, most common first, and truncated to count.
func DominantColors(img image.Image, r image.Rectangle, count int) []ColorFrequency {
	r = r.Intersect(img.Bounds())
	counts := make(map[[3]uint8]int)
	total := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			key := [3]uint8{uint8(cr>>8) &^ 0x0F, uint8(cg>>8) &^ 0x0F, uint8(cb>>8) &^ 0x0F}
			counts[key]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for k, n := range counts {
		c := colorful.Color{R: float64(k[0]) / 255, G: float64(k[1]) / 255, B: float64(k[2]) / 255}
		colors = append(colors, ColorFrequency{
			Color:      c,
			Hex:        c.Hex(),
			Percentage: float64(n) / float64(total) * 100,
		})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})
	if len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

// ColorDistance returns the CIE76 distance between two colors. Values above
// roughly 0.1 are clearly distinguishable on screen.
func ColorDistance(a, b colorful.Color) float64 {
	return a.DistanceCIE76(b)
}

// PrepareForOCR converts a crop into dark-text-on-light grayscale, which is
// what the OCR engine reads best. Dark-themed content (mean lightness below
// 0.5) is inverted. When boost is set, contrast is raised by 40 percent, used
// for code editors whose syntax colors are low contrast once grayscaled.
func PrepareForOCR(img image.Image, boost bool) *image.NRGBA {
	out := imaging.Grayscale(img)
	if meanLuminance(out) < 0.5 {
		out = imaging.Invert(out)
	}
	if boost {
		out = imaging.AdjustContrast(out, 40)
	}
	return out
}

func meanLuminance(img *image.NRGBA) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 1
	}
	// Grayscale input: the red channel is the gray level.
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(img.NRGBAAt(x, y).R) / 255
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
