// Package engine assembles the narrator: configuration, context cache,
// perception sources, focus controller, recovery supervisor and narration
// sink, plus the polling loop that ties them together.
//
// Commands reach the loop through the queue returned by Queue; nothing else
// is shared between goroutines.
package engine
