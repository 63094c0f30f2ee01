// Package locations combines and classifies the location phrases users type.
package locations

import (
	"errors"
	"strings"
)

// SimilarityCutoff is the Ratio from which two words are taken to be the same.
const SimilarityCutoff = 80

// ErrMergeArity is returned when MergeLocations is not given exactly two parts.
var ErrMergeArity = errors.New("only two locations can be merged")

// MergeLocations merges two partial descriptions of a place into one, keeping
// the words they share once and each side's extra words in order:
//
//	MergeLocations("via Cavour", "Rome")                 // "via Cavour Rome"
//	MergeLocations("via Cavour 16 Rome", "Rome Italy")   // "via Cavour 16 Rome Italy"
//	MergeLocations("via Cavour Rome", "via Cavour 16 Rome") // "via Cavour 16 Rome"
func MergeLocations(parts ...string) (string, error) {
	if len(parts) != 2 {
		return "", ErrMergeArity
	}

	xs, ys := strings.Fields(parts[0]), strings.Fields(parts[1])
	out := make([]string, 0, len(xs)+len(ys))

	i, j := 0, 0
	for i < len(xs) && j < len(ys) {
		if Ratio(xs[i], ys[j]) >= SimilarityCutoff {
			out = append(out, xs[i])
			i++
			j++
			continue
		}

		// find the next pair of positions where both sides agree again
		best, xm, ym := float64(SimilarityCutoff), len(xs), len(ys)
		for a := i; a < len(xs); a++ {
			for b := j; b < len(ys); b++ {
				if r := Ratio(xs[a], ys[b]); r > best {
					best, xm, ym = r, a, b
				}
			}
		}

		out = append(out, xs[i:xm]...)
		for _, y := range ys[j:ym] {
			if _, found := bestMatch(y, xs, SimilarityCutoff); !found {
				out = append(out, y)
			}
		}
		i, j = xm, ym
	}

	out = append(out, xs[i:]...)
	out = append(out, ys[j:]...)
	return strings.Join(out, " "), nil
}
