package imaging

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Crop extracts the rectangle r from img. The result's bounds start at (0,0).
//
// r must lie within the image bounds and have positive size.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if !r.In(bounds) {
		return nil, errors.Errorf("crop region %v outside image bounds %v", r, bounds)
	}
	if r.Empty() {
		return nil, errors.New("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return imaging.Crop(img, r), nil
}

// PadCrop grows r by pad pixels on every side, clamps it to the image, and
// crops. It returns the crop together with the rectangle actually used.
//
// Padding keeps glyphs that touch a detected border from being clipped.
func PadCrop(img image.Image, r image.Rectangle, pad int) (*image.NRGBA, image.Rectangle, error) {
	padded := image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad, r.Max.Y+pad).Intersect(img.Bounds())
	if padded.Empty() {
		return nil, padded, errors.Errorf("region %v does not intersect image bounds %v", r, img.Bounds())
	}
	out, err := Crop(img, padded)
	return out, padded, err
}

// UpscaleSmall enlarges img by factor when either side is below minSide.
// It reports the scale actually applied (1 when unchanged).
//
// Tesseract loses accuracy on glyphs shorter than about 20 pixels, so small
// UI labels are enlarged with a Lanczos filter before recognition.
func UpscaleSmall(img image.Image, minSide int, factor float64) (image.Image, float64) {
	b := img.Bounds()
	if factor <= 1 || (b.Dx() >= minSide && b.Dy() >= minSide) {
		return img, 1
	}
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	return imaging.Resize(img, w, h, imaging.Lanczos), factor
}
