package narrowing

import (
	"regexp"
	"strings"
)

var sentenceSplitter = regexp.MustCompile(`[.!?]+\s+`)

// sentences splits text into naive sentences for n-gram extraction.
func sentences(text string) []string {
	parts := sentenceSplitter.Split(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// ngrams returns the set of word n-grams (size n) found across every
// sentence of text, each sentence contributing its own n-grams so a gram
// never spans a sentence boundary.
func ngrams(text string, n int) map[string]struct{} {
	grams := make(map[string]struct{})
	for _, s := range sentences(text) {
		words := strings.Fields(s)
		for i := 0; i+n <= len(words); i++ {
			grams[strings.Join(words[i:i+n], " ")] = struct{}{}
		}
	}
	return grams
}

// ContainmentScore reports what fraction of final's n-grams (size n) also
// appear in original, used as a quality-weighted ranking signal after
// narrowing (spec §4.7: "scores how much of the final text appears ... in
// the original document"). A final text with no n-grams scores 1 — there
// is nothing for it to fail to contain.
func ContainmentScore(original, final string, n int) float64 {
	finalGrams := ngrams(final, n)
	if len(finalGrams) == 0 {
		return 1
	}
	originalGrams := ngrams(original, n)

	var contained int
	for g := range finalGrams {
		if _, ok := originalGrams[g]; ok {
			contained++
		}
	}
	return float64(contained) / float64(len(finalGrams))
}
