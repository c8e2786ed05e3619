// Package dialog implements the Decision Tree Engine (C4): traversal of a
// directed graph whose edges are predicate-guarded LLM responses (spec
// §4.4).
package dialog

import "strings"

// Predicate is a pure function of the assistant's reply text, evaluated to
// decide which outgoing edge (if any) a node takes next.
type Predicate func(reply string) bool

// firstToken returns the first whitespace-stripped token of reply,
// lower-cased — the comparison basis every canonical predicate uses (spec
// §4.4: "all case-insensitive on the first whitespace-stripped token").
func firstToken(reply string) string {
	fields := strings.Fields(reply)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[0], ".,;:!?\"'"))
}

// StartsWithYes matches replies whose first token is "yes".
func StartsWithYes(reply string) bool {
	return firstToken(reply) == "yes"
}

// StartsWithNo matches replies whose first token is "no".
func StartsWithNo(reply string) bool {
	return firstToken(reply) == "no"
}

// DoesNotStartWithNo matches any reply whose first token is not "no" —
// applied by the base setback dialog to its final reply to decide Found
// (spec §4.8 step 3a), treating anything short of an explicit "no" as a hit,
// rather than requiring an explicit "yes".
func DoesNotStartWithNo(reply string) bool {
	return firstToken(reply) != "no"
}
