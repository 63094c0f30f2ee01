package mentions

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var cardinalWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"couple": 2, "pair": 2,
}

var tensWords = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	"eleventh": 11, "twelfth": 12, "thirteenth": 13, "fourteenth": 14, "fifteenth": 15,
	"sixteenth": 16, "seventeenth": 17, "eighteenth": 18, "nineteenth": 19,
	"twentieth": 20, "thirtieth": 30, "fortieth": 40, "fiftieth": 50,
	"sixtieth": 60, "seventieth": 70, "eightieth": 80, "ninetieth": 90,
}

var (
	digitsOrdinal = regexp.MustCompile(`^(\d+)(st|nd|rd|th)$`)
	digitsRange   = regexp.MustCompile(`^(\d+)-(\d+)$`)
)

// cardinal parses "7", "seven" and "twenty-one".
func cardinal(tok string) (int, bool) {
	if n, ok := digits(tok); ok {
		return n, true
	}
	if n, ok := cardinalWords[tok]; ok {
		return n, true
	}
	if n, ok := tensWords[tok]; ok {
		return n, true
	}
	if tens, unit, ok := strings.Cut(tok, "-"); ok {
		t, okT := tensWords[tens]
		u, okU := cardinalWords[unit]
		if okT && okU && u > 0 && u < 10 {
			return t + u, true
		}
	}
	return 0, false
}

// digits parses a run of decimal digits. Numbers too large for an int are
// clamped to math.MaxInt so that they still fail range checks.
func digits(tok string) (int, bool) {
	n, err := strconv.Atoi(tok)
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return math.MaxInt, true
	}
	return n, err == nil
}

// ordinal parses "3rd", "third" and "twenty-third".
func ordinal(tok string) (int, bool) {
	if m := digitsOrdinal.FindStringSubmatch(tok); m != nil {
		return digits(m[1])
	}
	if n, ok := ordinalWords[tok]; ok {
		return n, true
	}
	if tens, unit, ok := strings.Cut(tok, "-"); ok {
		t, okT := tensWords[tens]
		u, okU := ordinalWords[unit]
		if okT && okU && u < 10 {
			return t + u, true
		}
	}
	return 0, false
}

// numericRange parses "2-4".
func numericRange(tok string) (lo, hi int, ok bool) {
	m := digitsRange.FindStringSubmatch(tok)
	if m == nil {
		return 0, 0, false
	}
	lo, _ = digits(m[1])
	hi, _ = digits(m[2])
	return lo, hi, true
}

// joinCompounds glues "twenty one" and "twenty first" into hyphenated tokens.
func joinCompounds(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if _, ok := tensWords[tokens[i]]; ok && i+1 < len(tokens) {
			next := tokens[i+1]
			if u, ok := cardinalWords[next]; ok && u > 0 && u < 10 {
				out = append(out, tokens[i]+"-"+next)
				i++
				continue
			}
			if u, ok := ordinalWords[next]; ok && u < 10 {
				out = append(out, tokens[i]+"-"+next)
				i++
				continue
			}
		}
		out = append(out, tokens[i])
	}
	return out
}
