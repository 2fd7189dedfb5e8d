// Package element defines the canonical representation of a detected UI
// element and the rectangle geometry shared by every other package.
//
// Every perception source maps its native semantics onto the closed Type
// enumeration. Bounds are always absolute screen coordinates with positive
// width and height; New rejects anything else.
package element
