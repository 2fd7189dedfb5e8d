package describe

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// Generator turns elements into narration text.
type Generator interface {
	// Describe returns a short spoken description of el.
	Describe(el *element.Element) string

	// Classify returns a better type guess for el, or el.Type when it has
	// nothing better.
	Classify(el *element.Element) element.Type
}

// Description limits, in runes.
const (
	maxVisionText = 30
	maxTreeText   = 50
	maxDescLen    = 100
)

// ClassifiedConfidence is the confidence given to an element whose type was
// inferred by Classify.
const ClassifiedConfidence = 0.9

// Screen areas used for position hints.
const (
	leftEdge   = 400
	rightEdge  = 800
	topEdge    = 300
	bottomEdge = 600
)

// Heuristic is a rule-based Generator.
type Heuristic struct {
	// Title returns the foreground window title for app-specific phrasing.
	// Nil means no application context.
	Title func() string
}

// NewHeuristic returns a Heuristic that reads the window title from title.
func NewHeuristic(title func() string) *Heuristic {
	return &Heuristic{Title: title}
}

func (h *Heuristic) title() string {
	if h == nil || h.Title == nil {
		return ""
	}
	return h.Title()
}

// Describe implements Generator.
//
// Elements with text read as "<type>: <text>", followed by a position hint
// for controls. Textless elements read as "<type> of W by H pixels" with a
// position hint. Elements from the accessibility tree keep longer text.
// Keyboard-focused elements end in " (focused)".
func (h *Heuristic) Describe(el *element.Element) string {
	if el == nil {
		return ""
	}
	text := strings.TrimSpace(el.Text)
	title := h.title()

	var b strings.Builder
	if text != "" {
		limit := maxVisionText
		if fromTree(el) {
			limit = maxTreeText
		}
		fmt.Fprintf(&b, "%s: %s", el.Type, truncate(text, limit))
		if el.Type == element.Button || el.Type == element.Link || el.Type == element.Checkbox {
			b.WriteString(position(el.Bounds, false))
		}
		if action := Action(title, text); action != "" {
			b.WriteString(", ")
			b.WriteString(action)
		}
	} else {
		fmt.Fprintf(&b, "%s of %d by %d pixels", el.Type, el.Bounds.Width(), el.Bounds.Height())
		b.WriteString(position(el.Bounds, true))
	}

	if el.SourceID == element.SourceTabFocused || el.SourceID == element.SourceKeyboard {
		b.WriteString(" (focused)")
	}
	return truncate(b.String(), maxDescLen)
}

// Classify implements Generator. Elements above 0.8 confidence keep their
// type. Otherwise the label is matched against keyword rules, then the
// shape is checked.
func (h *Heuristic) Classify(el *element.Element) element.Type {
	if el == nil {
		return element.Unknown
	}
	if el.Confidence > 0.8 {
		return el.Type
	}
	if t := classifyText(el.Text); t != element.Unknown {
		return t
	}
	if el.Type != element.Unknown {
		return el.Type
	}
	return classifyShape(el.Bounds)
}

var (
	buttonWords = []string{"like", "follow", "send", "post", "submit", "save", "ok", "cancel", "close", "login", "sign in",
		"curtir", "seguir", "enviar", "postar", "salvar", "cancelar"}
	searchWords = []string{"search", "buscar", "pesquisar", "procurar"}
	linkSuffix  = []string{".com", ".org", ".net", ".br", ".io"}
)

func classifyText(text string) element.Type {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return element.Unknown
	}
	if strings.HasPrefix(lower, "http") || strings.HasPrefix(lower, "www.") {
		return element.Link
	}
	for _, s := range linkSuffix {
		if strings.HasSuffix(lower, s) {
			return element.Link
		}
	}
	for _, w := range searchWords {
		if strings.Contains(lower, w) {
			return element.TextField
		}
	}
	for _, w := range buttonWords {
		if lower == w || strings.HasPrefix(lower, w+" ") {
			return element.Button
		}
	}
	return element.Unknown
}

func classifyShape(r element.Rect) element.Type {
	w, h := r.Width(), r.Height()
	switch {
	case w < 50 && h < 50 && abs(w-h) < 10:
		return element.Button
	case w > h*3:
		return element.TextField
	}
	return element.Unknown
}

// position returns a hint like " on the left at the top". When center is
// true, elements in the middle column get " in the center".
func position(r element.Rect, center bool) string {
	c := r.Center()
	var hint string
	switch {
	case c.X < leftEdge:
		hint = " on the left"
	case c.X > rightEdge:
		hint = " on the right"
	case center:
		hint = " in the center"
	}
	switch {
	case c.Y < topEdge:
		hint += " at the top"
	case c.Y > bottomEdge:
		hint += " at the bottom"
	}
	return hint
}

func fromTree(el *element.Element) bool {
	switch el.SourceID {
	case element.SourceHTML, element.SourceTabFocused, element.SourceAccessibility:
		return true
	}
	return false
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
