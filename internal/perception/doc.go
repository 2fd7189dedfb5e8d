// Package perception produces candidate elements for a screen region.
//
// Two sources implement Source. StructuredSource walks the accessibility
// tree of a supported browser through a TreeProvider. VisualSource runs the
// edge, contour and OCR pipeline over a screen capture. Both return elements
// in absolute screen coordinates.
//
// The package also carries the keyboard-focus probes used after a Tab
// press: the focused node of the tree, a visual focus ring, and the largest
// change between two captures.
package perception
