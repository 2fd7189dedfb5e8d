package element

import (
	"sync"

	"github.com/pkg/errors"
)

// Well-known provenance identifiers carried in Element.SourceID.
const (
	SourceHTML          = "html_element"
	SourceTabFocused    = "tab_focused"
	SourceVision        = "vision"
	SourceKeyboard      = "keyboard_focused"
	SourceVisualChange  = "visual_change"
	SourceAccessibility = "accessibility"
)

// ErrInvalidBounds is returned when an element would have non-positive width or height.
var ErrInvalidBounds = errors.New("element bounds must have positive width and height")

// Element is a detected interface object.
//
// Elements are values except for the description, which is computed lazily
// and can be written once per instance. Share selected elements by pointer so
// the cached description travels with them.
type Element struct {
	Type       Type    `json:"type"`
	Bounds     Rect    `json:"bounds"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence"`
	SourceID   string  `json:"source_id,omitempty"`

	mu      sync.Mutex
	desc    string
	hasDesc bool
}

// New builds an element, rejecting degenerate bounds.
func New(t Type, bounds Rect, text string, confidence float64, sourceID string) (*Element, error) {
	if !bounds.Valid() {
		return nil, errors.Wrapf(ErrInvalidBounds, "bounds %s", bounds)
	}
	return &Element{
		Type:       t,
		Bounds:     bounds,
		Text:       text,
		Confidence: clampConfidence(confidence),
		SourceID:   sourceID,
	}, nil
}

// MustNew is New for literals known to be valid; it panics otherwise.
func MustNew(t Type, bounds Rect, text string, confidence float64, sourceID string) *Element {
	el, err := New(t, bounds, text, confidence, sourceID)
	if err != nil {
		panic(err)
	}
	return el
}

// Description returns the cached description, if one was set.
func (e *Element) Description() (string, bool) {
	if e == nil {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.desc, e.hasDesc
}

// SetDescription stores the description if none is stored yet. It reports
// whether this call stored the value.
func (e *Element) SetDescription(desc string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hasDesc {
		return false
	}
	e.desc = desc
	e.hasDesc = true
	return true
}

// Reclassify returns a copy with a new type. Confidence never drops: the copy
// keeps the larger of the current and the supplied confidence. The description
// is not carried over since it depends on the type.
func (e *Element) Reclassify(t Type, confidence float64) *Element {
	return &Element{
		Type:       t,
		Bounds:     e.Bounds,
		Text:       e.Text,
		Confidence: max(e.Confidence, clampConfidence(confidence)),
		SourceID:   e.SourceID,
	}
}

// Equal compares the value fields of two elements, ignoring the description.
func (e *Element) Equal(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Type == o.Type &&
		e.Bounds == o.Bounds &&
		e.Text == o.Text &&
		e.Confidence == o.Confidence &&
		e.SourceID == o.SourceID
}

// Clone returns a value copy without the description.
func (e *Element) Clone() *Element {
	return &Element{
		Type:       e.Type,
		Bounds:     e.Bounds,
		Text:       e.Text,
		Confidence: e.Confidence,
		SourceID:   e.SourceID,
	}
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
