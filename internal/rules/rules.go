// Package rules folds an ordered set of text-matching rules over free text.
//
// A rule pairs a case-insensitive pattern with a pure reducer. The reducer is
// invoked once per non-overlapping match and returns the next accumulator
// value; it never mutates the one it was given. Rules run in the order they
// were declared, so a later rule overwrites scalar fields set by an earlier one.
package rules

import (
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Match describes one occurrence of a rule's pattern in the input.
type Match struct {
	Text   string
	Groups []string
	Start  int
	End    int

	input string
	idx   []int
}

// Group returns capture group i, or "" if it did not participate.
func (m Match) Group(i int) string {
	if i <= 0 || i > len(m.Groups) {
		return ""
	}
	return m.Groups[i-1]
}

// Standalone reports whether capture group i is not glued to neighbouring
// digits in the input, as "1,000" is inside "1,000,000".
func (m Match) Standalone(i int) bool {
	if i <= 0 || 2*i+1 >= len(m.idx) || m.idx[2*i] < 0 {
		return false
	}
	start, end := m.idx[2*i], m.idx[2*i+1]
	if start > 0 {
		prev := m.input[start-1]
		if isDigit(prev) || (isSeparator(prev) && start > 1 && isDigit(m.input[start-2])) {
			return false
		}
	}
	if end < len(m.input) {
		next := m.input[end]
		if isDigit(next) || (isSeparator(next) && end+1 < len(m.input) && isDigit(m.input[end+1])) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSeparator(b byte) bool { return b == ',' || b == '.' }

// Reducer derives the next accumulator from a match. It returns a
// human-readable suggestion and ok=false when the capture fails validation,
// in which case the occurrence counts as a non-match.
type Reducer[T any] func(acc T, m Match, now time.Time) (next T, suggestion string, ok bool)

// Rule is a named pattern and its reducer.
type Rule[T any] struct {
	Name    string
	Pattern *regexp.Regexp
	Apply   Reducer[T]
}

// Span is the byte range of an applied match together with the rule that produced it.
type Span struct {
	Rule  string
	Start int
	End   int
}

// Outcome is the result of running a Set over one input.
type Outcome[T any] struct {
	Fields      T
	Suggestions []string
	Matches     int
	Spans       []Span
}

// Confidence returns the heuristic score for the outcome.
func (o Outcome[T]) Confidence() float64 {
	return Confidence(o.Matches)
}

// Set is an ordered rule table. Declaration order is precedence.
type Set[T any] struct {
	rules []Rule[T]
}

// NewSet returns a Set that applies rules in the given order.
func NewSet[T any](rules ...Rule[T]) *Set[T] {
	return &Set[T]{rules: slices.Clone(rules)}
}

// Names lists the rule names in evaluation order.
func (s *Set[T]) Names() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Run applies every rule to text, starting from acc.
func (s *Set[T]) Run(text string, acc T, now time.Time) Outcome[T] {
	out := Outcome[T]{Suggestions: []string{}}
	seen := make(map[string]struct{})

	for _, r := range s.rules {
		for _, idx := range r.Pattern.FindAllStringSubmatchIndex(text, -1) {
			m := newMatch(text, idx)
			next, suggestion, ok := r.Apply(acc, m, now)
			if !ok {
				continue
			}
			acc = next
			out.Matches++
			out.Spans = append(out.Spans, Span{Rule: r.Name, Start: m.Start, End: m.End})
			if suggestion == "" {
				continue
			}
			if _, dup := seen[suggestion]; dup {
				continue
			}
			seen[suggestion] = struct{}{}
			out.Suggestions = append(out.Suggestions, suggestion)
		}
	}

	out.Fields = acc
	return out
}

func newMatch(text string, idx []int) Match {
	m := Match{Text: text[idx[0]:idx[1]], Start: idx[0], End: idx[1], input: text, idx: idx}
	for g := 2; g+1 < len(idx); g += 2 {
		if idx[g] < 0 {
			m.Groups = append(m.Groups, "")
			continue
		}
		m.Groups = append(m.Groups, text[idx[g]:idx[g+1]])
	}
	return m
}

// Confidence is min(1, 0.1 per match).
func Confidence(matches int) float64 {
	if matches <= 0 {
		return 0
	}
	return math.Min(1, float64(matches)/10)
}

// MustCompile compiles a case-insensitive pattern.
func MustCompile(expr string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + expr)
}

// WordPattern builds a case-insensitive pattern matching any of the given
// words or phrases on word boundaries. Longer alternatives are tried first.
func WordPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Normalize applies NFKC normalization and trims surrounding whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(norm.NFKC.String(text))
}

// AppendUnique returns list with v appended unless it is already present.
// The input slice is never modified.
func AppendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(slices.Clip(list), v)
}
