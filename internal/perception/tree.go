package perception

import (
	"context"
	"strings"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// Node is one entry of an accessibility tree.
type Node struct {
	// Role is the platform role or control type, e.g. "button", "edit",
	// "hyperlink".
	Role string `json:"role"`

	// Bounds is in absolute screen coordinates.
	Bounds element.Rect `json:"bounds"`

	// Text is the accessible name.
	Text string `json:"text,omitempty"`

	// ID is the platform identifier, if any.
	ID string `json:"id,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// Window identifies the foreground window.
type Window struct {
	Title string `json:"title"`
	Class string `json:"class,omitempty"`
}

// TreeProvider exposes the platform accessibility tree.
type TreeProvider interface {
	// Tree returns the tree rooted at the foreground window.
	Tree(ctx context.Context) (*Node, error)

	// Focused returns the node with keyboard focus, if any.
	Focused(ctx context.Context) (*Node, bool, error)

	// Foreground describes the foreground window.
	Foreground(ctx context.Context) (Window, error)
}

var browsers = []struct {
	name  string
	title string
	class string
}{
	{"chrome", "chrome", "Chrome_WidgetWin_1"},
	{"edge", "edge", ""},
	{"firefox", "firefox", "MozillaWindowClass"},
	{"opera", "opera", ""},
	{"brave", "brave", ""},
	{"safari", "safari", "SafariWnd"},
}

// BrowserName returns the browser owning w, or "" when w is not a browser.
// Title matches win over class matches, since Chromium-based browsers share
// a window class.
func BrowserName(w Window) string {
	title := strings.ToLower(w.Title)
	for _, b := range browsers {
		if strings.Contains(title, b.title) {
			return b.name
		}
	}
	for _, b := range browsers {
		if b.class != "" && b.class == w.Class {
			return b.name
		}
	}
	return ""
}
