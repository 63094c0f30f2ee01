// Package mentions turns the phrases users use to point at list items
// ("the second one", "the last two of these", "all of them") into indices.
package mentions

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/placefinder/server/internal/agent/grammar"
)

// Noun names the listed items in messages, e.g. {"result", "results"}.
type Noun struct {
	Singular string
	Plural   string
}

// Error explains why a single mention could not be resolved. Its message is
// meant to follow "Sorry, but ".
type Error struct {
	Mention string
	Reason  string
}

func (e *Error) Error() string {
	return e.Reason
}

var (
	allWords      = set("all", "every", "each", "everything", "everyone", "entire", "whole")
	nextWords     = set("next", "following", "subsequent")
	previousWords = set("previous", "prev", "preceding", "prior")
	firstWords    = set("first", "oldest", "earliest", "initial", "top")
	lastWords     = set("last", "latest", "newest", "final", "recent", "bottom")
	currentWords  = set("current", "selected", "this", "these", "those", "them", "same")
	pronouns      = set("that", "it")
	relativeWords = set("these", "those", "them", "selected", "current", "among")
	numberMarkers = set("number", "no", "num")
	rangeWords    = set("to", "through", "thru", "till", "until")

	nonWord = regexp.MustCompile(`[^a-z0-9\-]+`)
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Resolve resolves every mention against a list of count items. selected is
// the previous selection. The result is the sorted union of all resolved
// indices; errs holds one message per mention that could not be resolved.
func Resolve(mentions []string, selected []int, count int, noun Noun) (indices []int, errs []string) {
	seen := make(map[int]bool)
	for _, m := range mentions {
		idx, err := ResolveOne(m, selected, count, noun)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		for _, i := range idx {
			seen[i] = true
		}
	}
	indices = make([]int, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, errs
}

// ResolveOne resolves a single mention. The returned indices are sorted.
func ResolveOne(mention string, selected []int, count int, noun Noun) ([]int, error) {
	r := &resolver{
		noun:     noun,
		count:    count,
		selected: normalize(selected, count),
		mention:  parse(mention),
	}
	if count <= 0 {
		return nil, r.fail("there are no %s", noun.Plural)
	}
	return r.resolve()
}

func normalize(selected []int, count int) []int {
	seen := make(map[int]bool, len(selected))
	out := make([]int, 0, len(selected))
	for _, i := range selected {
		if i < 0 || i >= count || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

type mention struct {
	raw       string
	words     map[string]bool
	cardinals []int
	ordinals  []int
	ranges    [][2]int
}

func (m *mention) has(words map[string]bool) bool {
	for w := range m.words {
		if words[w] {
			return true
		}
	}
	return false
}

func parse(raw string) *mention {
	m := &mention{raw: raw, words: make(map[string]bool)}
	tokens := joinCompounds(strings.Fields(nonWord.ReplaceAllString(strings.ToLower(raw), " ")))

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if lo, hi, ok := numericRange(tok); ok {
			m.ranges = append(m.ranges, [2]int{lo, hi})
			continue
		}
		if tok == "one" || tok == "ones" {
			// "one" is a pronoun unless it is spelled out as an index ("number one")
			if i > 0 && numberMarkers[tokens[i-1]] {
				m.cardinals = append(m.cardinals, 1)
			}
			continue
		}
		if n, ok := cardinal(tok); ok {
			if i+2 < len(tokens) && rangeWords[tokens[i+1]] {
				if hi, ok := cardinal(tokens[i+2]); ok {
					m.ranges = append(m.ranges, [2]int{n, hi})
					i += 2
					continue
				}
			}
			m.cardinals = append(m.cardinals, n)
			continue
		}
		if tok != "first" {
			if n, ok := ordinal(tok); ok {
				m.ordinals = append(m.ordinals, n)
				continue
			}
		}
		m.words[tok] = true
	}
	return m
}

type resolver struct {
	noun     Noun
	count    int
	selected []int
	mention  *mention
}

func (r *resolver) fail(format string, args ...any) error {
	return &Error{Mention: r.mention.raw, Reason: fmt.Sprintf(format, args...)}
}

func (r *resolver) resolve() ([]int, error) {
	m := r.mention
	switch {
	case m.has(allWords):
		return r.base(true), nil
	case m.has(nextWords):
		return r.next(r.amount())
	case m.has(previousWords):
		return r.previous(r.amount())
	case m.has(firstWords) && len(m.ordinals) > 0 && m.words["first"]:
		// "the first and the third"
		return r.ordinals(append([]int{1}, m.ordinals...), 1)
	case m.has(firstWords):
		return r.first(r.amount())
	case m.has(lastWords) && len(m.ordinals) > 0:
		return r.fromLast(m.ordinals)
	case m.has(lastWords):
		return r.last(r.amount())
	case len(m.ordinals) > 0:
		return r.ordinals(m.ordinals, r.amount())
	case len(m.cardinals) > 0 || len(m.ranges) > 0:
		return r.absolute()
	case m.words["both"]:
		return r.both()
	case m.has(currentWords) || (len(m.words) <= 2 && m.has(pronouns)):
		// "that one" and "it" point at the selection; "the one that is cheapest" does not
		if len(r.selected) == 0 {
			return nil, r.fail("you have not selected any %s yet", r.noun.Plural)
		}
		return r.selected, nil
	default:
		return nil, r.fail("I could not understand what you meant by %q", strings.TrimSpace(m.raw))
	}
}

// amount is the block size a mention asks for: "the last three" -> 3.
func (r *resolver) amount() int {
	if len(r.mention.cardinals) > 0 && r.mention.cardinals[0] > 0 {
		return r.mention.cardinals[0]
	}
	return 1
}

func (r *resolver) relative() bool {
	return len(r.selected) > 0 && r.mention.has(relativeWords)
}

// base is the list a positional mention counts within: the previous selection
// for relative mentions, every item otherwise.
func (r *resolver) base(preferSelection bool) []int {
	if preferSelection && len(r.selected) > 0 {
		return r.selected
	}
	all := make([]int, r.count)
	for i := range all {
		all[i] = i
	}
	return all
}

// described names the items counted by a mention: "result", "selected results".
func (r *resolver) described(n int) string {
	noun := r.noun.Plural
	if n == 1 {
		noun = r.noun.Singular
	}
	if r.relative() {
		return "selected " + noun
	}
	return noun
}

func (r *resolver) onlyAvailable(n int) error {
	if n == 1 {
		return r.fail("there is only one %s", r.described(1))
	}
	return r.fail("there are only %d %s", n, r.described(n))
}

// both only makes sense when the list it refers to holds exactly two items.
func (r *resolver) both() ([]int, error) {
	base := r.base(true)
	if len(base) != 2 {
		return nil, r.fail("it is not clear which two %s you meant by %q", r.noun.Plural, strings.TrimSpace(r.mention.raw))
	}
	return copyOf(base), nil
}

func (r *resolver) first(n int) ([]int, error) {
	base := r.base(r.relative())
	if n > len(base) {
		return nil, r.onlyAvailable(len(base))
	}
	return copyOf(base[:n]), nil
}

func (r *resolver) last(n int) ([]int, error) {
	base := r.base(r.relative())
	if n > len(base) {
		return nil, r.onlyAvailable(len(base))
	}
	return copyOf(base[len(base)-n:]), nil
}

// fromLast handles "the second to last" style mentions.
func (r *resolver) fromLast(ords []int) ([]int, error) {
	base := r.base(r.relative())
	out := make([]int, 0, len(ords))
	for _, o := range ords {
		if o < 1 || o > len(base) {
			return nil, r.fail("there is no %s to last %s", grammar.Ordinal(o), r.noun.Singular)
		}
		out = append(out, base[len(base)-o])
	}
	sort.Ints(out)
	return out, nil
}

func (r *resolver) ordinals(ords []int, size int) ([]int, error) {
	base := r.base(r.relative())
	var out []int
	for _, o := range ords {
		if o < 1 || o > len(base)/size {
			if size == 1 {
				return nil, r.fail("there is no %s %s", grammar.Ordinal(o), r.described(1))
			}
			return nil, r.fail("there is no %s group of %d %s", grammar.Ordinal(o), size, r.described(size))
		}
		out = append(out, base[(o-1)*size:o*size]...)
	}
	return normalize(out, r.count), nil
}

func (r *resolver) next(n int) ([]int, error) {
	if len(r.selected) == 0 {
		return nil, r.fail("there is no selected %s to continue from", r.noun.Singular)
	}
	last := r.selected[len(r.selected)-1]
	start := last + 1
	if n > r.count-start {
		return nil, r.shortOf(r.count-start, "after", last)
	}
	return span(start, start+n), nil
}

func (r *resolver) previous(n int) ([]int, error) {
	if len(r.selected) == 0 {
		return nil, r.fail("there is no selected %s to go back from", r.noun.Singular)
	}
	first := r.selected[0]
	if n > first {
		return nil, r.shortOf(first, "before", first)
	}
	return span(first-n, first), nil
}

func (r *resolver) shortOf(available int, where string, pivot int) error {
	switch available {
	case 0:
		return r.fail("there are no %s %s the %s one", r.noun.Plural, where, grammar.Ordinal(pivot+1))
	case 1:
		return r.fail("there is only one %s %s the %s one", r.noun.Singular, where, grammar.Ordinal(pivot+1))
	default:
		return r.fail("there are only %d %s %s the %s one", available, r.noun.Plural, where, grammar.Ordinal(pivot+1))
	}
}

func (r *resolver) absolute() ([]int, error) {
	var out []int
	check := func(n int) error {
		if n < 1 || n > r.count {
			return r.fail("there is no %s number %d", r.noun.Singular, n)
		}
		return nil
	}
	for _, n := range r.mention.cardinals {
		if err := check(n); err != nil {
			return nil, err
		}
		out = append(out, n-1)
	}
	for _, rg := range r.mention.ranges {
		lo, hi := rg[0], rg[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		if err := check(lo); err != nil {
			return nil, err
		}
		if err := check(hi); err != nil {
			return nil, err
		}
		out = append(out, span(lo-1, hi)...)
	}
	return normalize(out, r.count), nil
}

func span(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func copyOf(s []int) []int {
	return append([]int(nil), s...)
}
