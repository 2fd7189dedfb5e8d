// Package identity decides whether two detections refer to the same
// real-world element.
//
// Two elements are the same when their rectangles overlap by more than a
// threshold, measured against the smaller rectangle, and their text is equal.
// Geometry alone would treat a button whose label changes in place
// ("Play" to "Pause") as unchanged.
package identity

import "github.com/ironsheep/focus-narrator/internal/element"

// DefaultThreshold is the overlap ratio that must be exceeded.
const DefaultThreshold = 0.7

// Matcher compares elements using a geometric and a textual gate.
type Matcher struct {
	// Threshold is the overlap ratio that must be strictly exceeded.
	Threshold float64
}

// NewMatcher returns a Matcher with the given threshold, or DefaultThreshold
// when threshold is not in (0, 1].
func NewMatcher(threshold float64) Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

// OverlapRatio returns the intersection area divided by the smaller of the
// two areas. It is 0 when either area is 0.
func OverlapRatio(a, b element.Rect) float64 {
	areaA := a.Area()
	areaB := b.Area()
	if areaA == 0 || areaB == 0 {
		return 0
	}
	return float64(a.IntersectionArea(b)) / float64(min(areaA, areaB))
}

// Same reports whether previous and candidate are the same element.
// The result is symmetric in its arguments. Two nil elements are the same;
// a nil and a non-nil element are not.
func (m Matcher) Same(previous, candidate *element.Element) bool {
	if previous == nil || candidate == nil {
		return previous == nil && candidate == nil
	}
	if previous.Text != candidate.Text {
		return false
	}
	return OverlapRatio(previous.Bounds, candidate.Bounds) > m.threshold()
}

func (m Matcher) threshold() float64 {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}
