package focus

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// DefaultHistorySize is the number of focus transitions kept.
const DefaultHistorySize = 32

// Transition records one change of the current element.
type Transition struct {
	ID     string           `json:"id"`
	From   *element.Element `json:"from,omitempty"`
	To     *element.Element `json:"to"`
	Text   string           `json:"text"`
	Source string           `json:"source"`
	At     time.Time        `json:"at"`
}

// History is a bounded ring of transitions, safe for concurrent reads.
type History struct {
	mu   sync.RWMutex
	buf  []Transition
	next int
	full bool
}

// NewHistory returns a ring holding size transitions.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{buf: make([]Transition, size)}
}

// Add records t, assigning an ID when it has none, and returns the stored
// transition.
func (h *History) Add(t Transition) Transition {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = t
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
	return t
}

// All returns the transitions oldest first.
func (h *History) All() []Transition {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.full {
		return append([]Transition(nil), h.buf[:h.next]...)
	}
	out := make([]Transition, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

// Len returns the number of stored transitions.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.buf)
	}
	return h.next
}
