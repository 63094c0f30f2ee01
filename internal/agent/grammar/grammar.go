// Package grammar holds the small English helpers used to phrase bot replies.
package grammar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jinzhu/inflection"
)

func init() {
	// Place types such as pizzeria and trattoria, which would otherwise be
	// treated like datum/data.
	inflection.AddPlural("(r)ia$", "${1}ias")
	inflection.AddSingular("(r)ia$", "${1}ia")
	inflection.AddIrregular("cafe", "cafes")
}

// Join concatenates items with sep, using lastSep before the final item:
// Join([a b c], ", ", "and") == "a, b and c".
func Join(items []string, sep, lastSep string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	lastSep = strings.TrimSpace(lastSep)
	if lastSep == "" {
		return strings.Join(items, sep)
	}
	return strings.Join(items[:len(items)-1], sep) + " " + lastSep + " " + items[len(items)-1]
}

// Ordinal renders n as "1st", "2nd", "11th", "23rd".
func Ordinal(n int) string {
	return humanize.Ordinal(n)
}

func Pluralize(word string) string {
	return inflection.Plural(word)
}

func Singularize(word string) string {
	return inflection.Singular(word)
}

// AgreeWithNumber returns word in singular form for n == 1 and plural otherwise.
func AgreeWithNumber(word string, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("cannot agree %q with %d: expected a positive count", word, n)
	}
	if n == 1 {
		return Singularize(word), nil
	}
	return Pluralize(word), nil
}

// Count is AgreeWithNumber with the number in front: "1 result", "3 results".
// Zero is phrased as "no results".
func Count(word string, n int) string {
	if n <= 0 {
		return "no " + Pluralize(word)
	}
	w, _ := AgreeWithNumber(word, n)
	return fmt.Sprintf("%d %s", n, w)
}

var firstPerson = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)\bI am\b`), "you are"},
	{regexp.MustCompile(`(?i)\bI'm\b`), "you're"},
	{regexp.MustCompile(`(?i)\bI was\b`), "you were"},
	{regexp.MustCompile(`(?i)\bmyself\b`), "yourself"},
	{regexp.MustCompile(`(?i)\bmine\b`), "yours"},
	{regexp.MustCompile(`(?i)\bmy\b`), "your"},
	{regexp.MustCompile(`(?i)\bme\b`), "you"},
	{regexp.MustCompile(`(?i)\bwe are\b`), "you are"},
	{regexp.MustCompile(`(?i)\bours\b`), "yours"},
	{regexp.MustCompile(`(?i)\bour\b`), "your"},
	{regexp.MustCompile(`\bI\b`), "you"},
}

// ToSecondPerson rewrites a user's phrase so the bot can echo it back:
// "near my hotel" becomes "near your hotel".
func ToSecondPerson(sentence string) string {
	for _, r := range firstPerson {
		sentence = r.re.ReplaceAllString(sentence, r.with)
	}
	return sentence
}
