// Package detection finds UI-element-shaped regions in screen captures.
//
// It is the pixel half of the visual perception source: it knows nothing
// about OCR or focus, only about outlines and their sizes.
//
// # Algorithm Overview
//
// DetectCandidates follows a fixed pipeline:
//
//  1. Edge Detection: Canny edges on a blurred grayscale copy
//  2. Dilation: grow edges so outlines with small gaps close up
//  3. Contour Finding: 8-connected components of the dilated mask
//  4. Filtering: keep outermost boxes above a minimum area
//  5. Classification: aspect ratio and size buckets (Classify)
//
// FocusHighlight reuses the same candidates and scores them for the look of a
// keyboard focus ring. Components is exported for callers that build their
// own masks, such as frame differencing.
//
// # Coordinate System
//
// All returned bounds are in the coordinate frame of the input image. Screen
// captures keep absolute screen coordinates in their bounds, so results are
// screen coordinates without further translation.
//
// # Limitations
//
// These heuristics work best on flat, high-contrast interface chrome. They
// are not a general object detector: gradients, photographs and borderless
// controls produce few or no candidates.
package detection
