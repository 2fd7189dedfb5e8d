// Package imaging provides the bitmap operations used by the visual
// perception pipeline.
//
// This package covers screen capture from screenshot files, Canny-style edge
// detection and morphological dilation, padded cropping and upscaling ahead of
// OCR, perceptual lightness and dominant colors, and frame differencing. All
// operations work with standard Go image.Image types.
//
// # Coordinate System
//
// Captured images keep absolute screen coordinates in their bounds: a capture
// of the region (100,200)-(300,260) has Bounds().Min == (100,200). Functions
// that return a new image (EdgeMap, Dilate, Diff masks) keep the bounds of
// their input. Crop and PadCrop are the exception: they return images whose
// bounds start at (0,0), since their output goes straight to the OCR engine.
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. Individual image operations are
// stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions that fall outside the image or screen
//   - Frames of different sizes passed to Diff
//   - File I/O and decoding errors while loading screenshots
package imaging
