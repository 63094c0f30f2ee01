package locations

import (
	"strings"
	"unicode"
)

// Ratio is the normalized Indel similarity of a and b in [0, 100]:
// 2*LCS(a, b) / (len(a)+len(b)) * 100, counted in runes.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcs(ra, rb)) / float64(total)
}

func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// normalize lower-cases s, turns every non alphanumeric rune into a space and
// trims the result.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.TrimSpace(mapped)
}

// bestMatch returns the highest normalized Ratio between query and any of the
// choices, and whether it reaches cutoff.
func bestMatch(query string, choices []string, cutoff float64) (float64, bool) {
	q := normalize(query)
	best := -1.0
	for _, c := range choices {
		if score := Ratio(q, normalize(c)); score > best {
			best = score
		}
	}
	return best, best >= cutoff
}
