package detection

import "github.com/ironsheep/focus-narrator/internal/element"

// Size buckets used by Classify, in pixels.
const (
	checkboxMaxSide   = 30
	checkboxMaxSkew   = 10
	buttonMinWidth    = 30
	buttonMinAspect   = 1.5
	buttonMaxAspect   = 4.0
	textFieldMinRatio = 4.0
)

// Classify guesses an element type from its bounding-box size.
//
// The buckets are:
//   - small and near-square: Checkbox
//   - aspect ratio 1.5 to 4 and wider than 30px: Button
//   - aspect ratio above 4: TextField
//   - anything else: Unknown
//
// Structured sources and the description generator refine the type when
// they know better.
func Classify(width, height int) element.Type {
	if width <= 0 || height <= 0 {
		return element.Unknown
	}
	aspect := float64(width) / float64(height)

	switch {
	case width < checkboxMaxSide && height < checkboxMaxSide && absInt(width-height) < checkboxMaxSkew:
		return element.Checkbox
	case aspect >= buttonMinAspect && aspect <= buttonMaxAspect && width > buttonMinWidth:
		return element.Button
	case aspect > textFieldMinRatio:
		return element.TextField
	}
	return element.Unknown
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
