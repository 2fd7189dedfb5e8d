package focus

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// ErrUnknownCommand is returned by ParseCommand for unrecognized names.
var ErrUnknownCommand = errors.New("unknown command")

// CommandKind is the closed set of commands the controller accepts.
type CommandKind int

// Commands.
const (
	CmdNext CommandKind = iota
	CmdPrev
	CmdReadCurrent
	CmdReadAll
	CmdCaptureAtCursor
	CmdTabPressed
	CmdNavigateHeadings
	CmdNavigateLinks
	CmdNavigateRegions
	CmdNavigateForms
	CmdNavigateTables
	CmdPageInfo
	CmdPointerMoved
	CmdHealthCheck
)

var commandNames = map[CommandKind]string{
	CmdNext:             "next",
	CmdPrev:             "prev",
	CmdReadCurrent:      "read_current",
	CmdReadAll:          "read_all",
	CmdCaptureAtCursor:  "capture_at_cursor",
	CmdTabPressed:       "tab_pressed",
	CmdNavigateHeadings: "navigate_headings",
	CmdNavigateLinks:    "navigate_links",
	CmdNavigateRegions:  "navigate_regions",
	CmdNavigateForms:    "navigate_forms",
	CmdNavigateTables:   "navigate_tables",
	CmdPageInfo:         "page_info",
	CmdPointerMoved:     "pointer_moved",
	CmdHealthCheck:      "health_check",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand maps a command name onto its kind.
func ParseCommand(name string) (CommandKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range commandNames {
		if n == name {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownCommand, "%q", name)
}

// Debounced reports whether repeats of the command are coalesced. Pointer
// updates and health checks always pass.
func (k CommandKind) Debounced() bool {
	return k != CmdPointerMoved && k != CmdHealthCheck
}

// Command is one queued request for the polling loop.
type Command struct {
	Kind CommandKind

	// Point is the pointer position for CmdPointerMoved.
	Point element.Point

	// At is when the command was enqueued.
	At time.Time
}

// Coalescer drops repeats of a command kind arriving within a window of the
// last accepted one. The first command of a burst wins.
type Coalescer struct {
	window time.Duration
	last   map[CommandKind]time.Time
}

// NewCoalescer returns a Coalescer. A non-positive window disables it.
func NewCoalescer(window time.Duration) *Coalescer {
	return &Coalescer{window: window, last: make(map[CommandKind]time.Time)}
}

// Allow reports whether cmd should be evaluated and records it if so.
func (c *Coalescer) Allow(cmd Command) bool {
	if c.window <= 0 || !cmd.Kind.Debounced() {
		return true
	}
	if last, ok := c.last[cmd.Kind]; ok && cmd.At.Sub(last) < c.window {
		return false
	}
	c.last[cmd.Kind] = cmd.At
	return true
}
