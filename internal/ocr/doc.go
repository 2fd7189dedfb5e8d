// Package ocr provides optical character recognition for detected UI
// regions.
//
// The Engine interface is the seam to the recognizer. TesseractEngine
// implements it with gosseract/v2; tests and alternative backends plug in
// their own.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Batching
//
// BatchRunner recognizes many regions of one capture under a per-call cap
// (8 by default). Regions beyond the cap yield empty text instead of
// delaying the caller; the next cycle picks them up, usually from cache.
// Each region is padded, upscaled when small, converted to dark-on-light
// grayscale and sent to the engine. Words are then merged into line
// fragments and joined.
//
// # Allow-lists
//
// Interface chrome is recognized with UIAllowList and a low confidence floor
// (0.15); running text uses the full charset and a 0.3 floor. Code editors
// use CodeAllowList.
package ocr
