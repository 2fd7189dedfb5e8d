package focus

import (
	"sync/atomic"

	"github.com/benbjohnson/clock"
)

// DefaultQueueSize is the capacity of the command queue.
const DefaultQueueSize = 64

// Queue carries commands from input callbacks and the command server to the
// polling loop. It is the only structure shared between goroutines.
type Queue struct {
	ch      chan Command
	clock   clock.Clock
	dropped atomic.Int64
}

// NewQueue returns a queue holding up to size commands.
func NewQueue(size int, clk clock.Clock) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Queue{ch: make(chan Command, size), clock: clk}
}

// Enqueue adds cmd without blocking, stamping its time if unset. It reports
// false and counts a drop when the queue is full.
func (q *Queue) Enqueue(cmd Command) bool {
	if cmd.At.IsZero() {
		cmd.At = q.clock.Now()
	}
	select {
	case q.ch <- cmd:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Drain returns every pending command without blocking.
func (q *Queue) Drain() []Command {
	var out []Command
	for {
		select {
		case cmd := <-q.ch:
			out = append(out, cmd)
		default:
			return out
		}
	}
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped returns how many commands were dropped because the queue was full.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}
