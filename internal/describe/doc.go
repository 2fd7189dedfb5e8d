// Package describe turns detected elements into short spoken descriptions.
//
// Heuristic is the rule-based Generator: descriptions combine the element
// type, its label, a coarse screen position and an application-specific
// action looked up from the foreground window's profile. AppContext names
// the profile and is used to partition the context cache.
package describe
