package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// StripSpans removes the given byte ranges from text and collapses whitespace.
func StripSpans(text string, spans []Span) string {
	drop := make([]bool, len(text))
	for _, s := range spans {
		for i := max(s.Start, 0); i < s.End && i < len(text); i++ {
			drop[i] = true
		}
	}

	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if drop[i] {
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(text[i])
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// OrRaw returns cleaned unless it has fewer than minChars non-space
// characters, in which case raw is returned instead.
func OrRaw(cleaned, raw string, minChars int) string {
	n := 0
	for _, r := range cleaned {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	if n < minChars {
		return raw
	}
	return cleaned
}

// NumberExpr captures a count with an optional k/m suffix: "1,000,000",
// "2.5m", "50k". Reducers should check Match.Standalone on the number group.
const NumberExpr = `(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*([km])?`

// ParseMagnitude parses a number with an optional k/m suffix ("50k", "2M",
// "1.5k", "5000"). Non-positive or malformed values are rejected.
func ParseMagnitude(number, suffix string) (int, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", number, err)
	}
	switch strings.ToLower(suffix) {
	case "":
	case "k":
		v *= 1_000
	case "m":
		v *= 1_000_000
	default:
		return 0, fmt.Errorf("unknown suffix %q", suffix)
	}
	if v <= 0 || math.IsInf(v, 0) || v > math.MaxInt32 {
		return 0, fmt.Errorf("value %q out of range", number+suffix)
	}
	return int(math.Round(v)), nil
}
