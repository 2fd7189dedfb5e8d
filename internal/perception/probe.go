package perception

import (
	"context"
	"image"

	"github.com/ironsheep/focus-narrator/internal/detection"
	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/imaging"
)

// Frame-diff probe parameters.
const (
	changeDilateRadius = 2
	changeMinArea      = 100
	changePadding      = 10

	// probeConfidence is assigned to elements found by the keyboard-focus
	// probes; a visible focus change is strong evidence.
	probeConfidence = 0.9
)

// FocusHighlight captures region and looks for a control drawn with a focus
// ring. The element carries source keyboard_focused.
func (v *VisualSource) FocusHighlight(ctx context.Context, region element.Region) (*element.Element, bool, error) {
	img, err := v.Capture(ctx, region)
	if err != nil || img == nil {
		return nil, false, err
	}
	h, ok := detection.FocusHighlight(img, v.cfg.Detection)
	if !ok {
		return nil, false, nil
	}
	text := v.ReadRegion(ctx, img, h.Bounds, h.Type)
	el, err := element.New(h.Type, h.Bounds, text, probeConfidence, element.SourceKeyboard)
	if err != nil {
		return nil, false, err
	}
	return el, true, nil
}

// ChangedRegion returns the bounds of the largest area that changed between
// two captures of the same region, padded and clipped to the capture.
// Changes of 100 pixels or less are ignored.
func ChangedRegion(before, after image.Image) (element.Rect, bool, error) {
	diff, err := imaging.Diff(before, after, imaging.DefaultDiffThreshold)
	if err != nil {
		return element.Rect{}, false, err
	}
	if diff.PixelsDifferent == 0 {
		return element.Rect{}, false, nil
	}

	mask := imaging.Dilate(diff.Mask, changeDilateRadius, 1)
	largest, ok := detection.Largest(detection.Components(mask, 1))
	if !ok || largest.Bounds.Area() <= changeMinArea {
		return element.Rect{}, false, nil
	}

	b := before.Bounds()
	frame := element.R(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
	r := largest.Bounds.Expand(changePadding).Clamp(frame)
	return r, r.Valid(), nil
}

// ChangedElement turns the largest change between before and after into an
// element read from after. The element carries source visual_change.
func (v *VisualSource) ChangedElement(ctx context.Context, before, after image.Image) (*element.Element, bool, error) {
	r, ok, err := ChangedRegion(before, after)
	if err != nil || !ok {
		return nil, false, err
	}
	// before and after may differ in origin; map into after's frame.
	shift := after.Bounds().Min.Sub(before.Bounds().Min)
	r = r.Translate(shift.X, shift.Y)

	t := detection.Classify(r.Width(), r.Height())
	text := v.ReadRegion(ctx, after, r, t)
	el, err := element.New(t, r, text, probeConfidence, element.SourceVisualChange)
	if err != nil {
		return nil, false, err
	}
	return el, true, nil
}
