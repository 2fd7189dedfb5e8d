package ocr

import (
	"image"

	"github.com/pkg/errors"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// Character allow-lists passed to the engine.
const (
	// UIAllowList restricts recognition on interface chrome (buttons, tabs,
	// menus) to alphanumerics and common punctuation.
	UIAllowList = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.,()-_/@#$%&+=:;"

	// CodeAllowList is used in code editors, where brackets, quotes and
	// operators matter.
	CodeAllowList = UIAllowList + "{}[]<>\"'`!?*|\\^~"
)

// Default confidence floors. UI labels are short and often rendered small,
// so their floor is lower than that of running text.
const (
	DefaultUIConfidence    = 0.15
	DefaultProseConfidence = 0.3
)

// ErrUnavailable is returned when the OCR backend cannot be initialized.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Word is one recognized token.
type Word struct {
	// Bounds is the word's box in the coordinate frame of the image passed to
	// the engine.
	Bounds element.Rect `json:"bounds"`

	// Text is the recognized text.
	Text string `json:"text"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Options tunes a single recognition call.
type Options struct {
	// AllowList restricts the recognized characters. Empty means the full
	// charset of the language.
	AllowList string

	// MinConfidence drops words below this confidence.
	MinConfidence float64
}

// UIOptions returns the options for interface chrome.
func UIOptions() Options {
	return Options{AllowList: UIAllowList, MinConfidence: DefaultUIConfidence}
}

// ProseOptions returns the options for running text.
func ProseOptions() Options {
	return Options{MinConfidence: DefaultProseConfidence}
}

// Engine recognizes words in a bitmap.
//
// Implementations must be safe for concurrent use; BatchRunner calls
// ReadText from several goroutines.
type Engine interface {
	ReadText(img image.Image, opts Options) ([]Word, error)
	Close() error
}
