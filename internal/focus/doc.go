// Package focus implements the fusion controller: it polls the perception
// sources around the pointer, decides whether the element under focus has
// changed and announces it through the narration sink.
//
// The controller is driven by a single polling goroutine. Input callbacks and
// the command server only touch the Queue, which the loop drains before each
// Tick.
package focus
