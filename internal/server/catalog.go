package server

import "github.com/ironsheep/focus-narrator/internal/focus"

// CommandDefinition describes one command accepted by the "command" method.
type CommandDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var commandDescriptions = []struct {
	kind focus.CommandKind
	desc string
}{
	{focus.CmdNext, "Move to the next known element and read it."},
	{focus.CmdPrev, "Move to the previous known element and read it."},
	{focus.CmdReadCurrent, "Read the current element again."},
	{focus.CmdReadAll, "Read every known element."},
	{focus.CmdCaptureAtCursor, "Run visual detection around the pointer and read the element under it."},
	{focus.CmdTabPressed, "Find and read the element that received keyboard focus."},
	{focus.CmdNavigateHeadings, "List the headings of the page and read the first."},
	{focus.CmdNavigateLinks, "List the links of the page and read the first."},
	{focus.CmdNavigateRegions, "List the landmark regions of the page and read the first."},
	{focus.CmdNavigateForms, "List the form fields of the page and read the first."},
	{focus.CmdNavigateTables, "List the tables of the page and read the first."},
	{focus.CmdPageInfo, "Summarize the page: title and element counts."},
	{focus.CmdHealthCheck, "Check memory usage and free caches when it is high."},
}

// CommandDefinitions returns the commands clients may send.
func CommandDefinitions() []CommandDefinition {
	defs := make([]CommandDefinition, len(commandDescriptions))
	for i, c := range commandDescriptions {
		defs[i] = CommandDefinition{Name: c.kind.String(), Description: c.desc}
	}
	return defs
}
