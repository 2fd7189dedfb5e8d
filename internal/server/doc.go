// Package server implements the command ingest path of focus-narrator.
//
// The server reads JSON-RPC 2.0 requests, one per line, from an io.Reader
// (normally stdin) and writes responses to an io.Writer (normally stdout).
// It only enqueues commands and reads published status; the polling loop
// does the work.
//
// # Methods
//
//   - initialize: server name and version
//   - ping: liveness check
//   - commands/list: the accepted command names with descriptions
//   - command: {"name": "tab_pressed"} queues a command
//   - pointer: {"x": 120, "y": 95} moves the pointer anchor
//   - status: focus snapshot, queue counters and recovery state
//   - history: recent focus transitions
//
// Requests without an id are notifications and get no response.
//
// # Errors
//
//   - -32700: the line is not valid JSON
//   - -32601: unknown method
//   - -32602: invalid parameters or unknown command
//   - -32000: the command queue is full and the command was dropped
package server
