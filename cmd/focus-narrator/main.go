// Package main provides the focus-narrator command.
//
// Usage:
//
//	focus-narrator run [--config file] [--screen png] [--tree json]
//	focus-narrator detect --image screenshot.png
//	focus-narrator version
package main

func main() {
	Execute()
}
