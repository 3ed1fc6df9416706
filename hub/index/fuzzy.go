package index

import "strings"

// levenshtein returns the classic edit distance between a and b, capped
// implicitly by the short strings this package ever calls it with (query
// words and content substrings of comparable length). Backs prefix-safe
// fuzzy matching at edit distance 1.
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	la, lb := len(ar), len(br)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// fuzzyContains reports whether content contains word as an exact
// substring, or contains some window within edit distance 1 of word
// ("prefix-safe" fuzzy matching — a word that is a prefix of a longer
// indexed token still counts as a hit). Returns (hit, exact).
func fuzzyContains(content, word string) (hit bool, exact bool) {
	if word == "" {
		return false, false
	}
	if strings.Contains(content, word) {
		return true, true
	}
	runes := []rune(content)
	wl := len([]rune(word))
	for _, winLen := range []int{wl - 1, wl, wl + 1} {
		if winLen <= 0 || winLen > len(runes) {
			continue
		}
		for i := 0; i+winLen <= len(runes); i++ {
			window := string(runes[i : i+winLen])
			if levenshtein(window, word) <= 1 {
				return true, false
			}
		}
	}
	return false, false
}
