package focus

import (
	"sync"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// PointerTracker provides the anchor point.
type PointerTracker interface {
	Position() element.Point
}

// ManualPointer is a PointerTracker moved by pointer_moved commands.
type ManualPointer struct {
	mu sync.RWMutex
	p  element.Point
}

// NewManualPointer returns a pointer at p.
func NewManualPointer(p element.Point) *ManualPointer {
	return &ManualPointer{p: p}
}

// Position implements PointerTracker.
func (m *ManualPointer) Position() element.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.p
}

// Set moves the pointer.
func (m *ManualPointer) Set(p element.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p = p
}
