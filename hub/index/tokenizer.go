package index

import "strings"

// ngramMin and ngramMax bound the n-gram tokenizer's substring lengths:
// every substring of length 2 through 4, lowercased.
const (
	ngramMin = 2
	ngramMax = 4
)

// ngrams returns the distinct, lowercased n-grams (length 2..4) of s. Used
// both to populate the postings table at write time and to expand a query
// word into its own gram set at read time, so the same tokenizer grounds
// both sides of the index.
func ngrams(s string) []string {
	s = strings.ToLower(s)
	runes := []rune(s)
	seen := make(map[string]struct{})
	var out []string
	for n := ngramMin; n <= ngramMax; n++ {
		if n > len(runes) {
			continue
		}
		for i := 0; i+n <= len(runes); i++ {
			g := string(runes[i : i+n])
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				out = append(out, g)
			}
		}
	}
	if len(out) == 0 && len(runes) > 0 {
		// WHY: content shorter than the minimum gram length (1 rune) still
		// needs to be findable by an exact single-character query.
		out = append(out, string(runes))
	}
	return out
}

// queryWords splits a lenient query string into lowercased conjunction
// terms over the content field.
func queryWords(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	return fields
}
