// Package narrowing implements the Text Narrowing Pipeline (C7): per-stage
// fan-out over a document's chunks, overlap-aware merging of survivor
// responses, and an n-gram containment quality score (spec §4.7).
package narrowing

import "strings"

// MergeOverlappingTexts concatenates parts in order, eliminating head-tail
// overlaps: for each successor, it searches the last 2n characters of the
// accumulated output for the first n characters of the successor; if
// found, it splices at the match, else it joins with a newline. This is
// the primary deduplicator across LLM chunk responses (spec §4.7).
func MergeOverlappingTexts(parts []string, n int) string {
	if len(parts) == 0 {
		return ""
	}
	acc := parts[0]
	for _, part := range parts[1:] {
		acc = mergeOne(acc, part, n)
	}
	return acc
}

func mergeOne(acc, next string, n int) string {
	if n <= 0 || len(next) < n {
		return joinWithNewline(acc, next)
	}
	head := next[:n]

	searchFrom := len(acc) - 2*n
	if searchFrom < 0 {
		searchFrom = 0
	}
	window := acc[searchFrom:]

	idx := strings.Index(window, head)
	if idx < 0 {
		return joinWithNewline(acc, next)
	}
	return acc[:searchFrom+idx] + next
}

func joinWithNewline(acc, next string) string {
	if acc == "" {
		return next
	}
	return acc + "\n" + next
}
