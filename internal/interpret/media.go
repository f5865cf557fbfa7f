package interpret

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"agency_bot/internal/model"
	"agency_bot/internal/rules"
)

// FallbackPolicy decides what a media filter looks like when the text
// constrains nothing.
type FallbackPolicy int

// Supported fallback policies.
const (
	// FallbackNone leaves unconstrained fields empty.
	FallbackNone FallbackPolicy = iota
	// FallbackAssistant seeds a 30-day window, the common media types and,
	// for tech/product/launch talk, the tech outlets.
	FallbackAssistant
)

// ParseFallbackPolicy maps a configuration value to a policy.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch s {
	case "", "none":
		return FallbackNone, nil
	case "assistant":
		return FallbackAssistant, nil
	}
	return FallbackNone, fmt.Errorf("unknown media fallback %q, use: none, assistant", s)
}

// Reach thresholds for qualitative phrases.
const (
	ReachHigh  = 100_000
	ReachViral = 500_000
	ReachLow   = 1_000
)

var (
	defaultMediaTypes = []string{"Online News", "Social Media", "Blog"}
	techOutlets       = []string{"TechCrunch", "Wired"}
	techTalk          = rules.WordPattern([]string{"tech", "product", "launch"})
)

// Media interprets media-monitoring requests.
type Media struct {
	set      *rules.Set[model.MediaFilter]
	fallback FallbackPolicy
}

// NewMedia builds the media interpreter from a vocabulary.
func NewMedia(v *Vocabulary, fallback FallbackPolicy) *Media {
	var rs []rules.Rule[model.MediaFilter]

	rs = append(rs,
		rules.Rule[model.MediaFilter]{
			Name:    "date:past",
			Pattern: rules.MustCompile(`\b(?:last|past|previous)\s+(week|month)\b`),
			Apply: func(f model.MediaFilter, m rules.Match, now time.Time) (model.MediaFilter, string, bool) {
				end := today(now)
				if strings.EqualFold(m.Group(1), "week") {
					f.DateRange = model.DateRange{Start: end.AddDate(0, 0, -7), End: end}
					return f, "Date range: last 7 days", true
				}
				f.DateRange = model.DateRange{Start: end.AddDate(0, -1, 0), End: end}
				return f, "Date range: last month", true
			},
		},
		rules.Rule[model.MediaFilter]{
			Name:    "date:past-days",
			Pattern: rules.MustCompile(`\b(?:last|past|previous)\s+(\d{1,3})\s+days?\b`),
			Apply: func(f model.MediaFilter, m rules.Match, now time.Time) (model.MediaFilter, string, bool) {
				n, err := strconv.Atoi(m.Group(1))
				if err != nil || n < 1 {
					return f, "", false
				}
				end := today(now)
				f.DateRange = model.DateRange{Start: end.AddDate(0, 0, -n), End: end}
				return f, fmt.Sprintf("Date range: last %d days", n), true
			},
		},
		rules.Rule[model.MediaFilter]{
			Name:    "date:current",
			Pattern: rules.MustCompile(`\b(?:this|current)\s+(week|month)\b`),
			Apply: func(f model.MediaFilter, m rules.Match, now time.Time) (model.MediaFilter, string, bool) {
				end := today(now)
				if strings.EqualFold(m.Group(1), "week") {
					f.DateRange = model.DateRange{Start: startOfWeek(end), End: end}
					return f, "Date range: this week", true
				}
				f.DateRange = model.DateRange{Start: end.AddDate(0, 0, 1-end.Day()), End: end}
				return f, "Date range: this month", true
			},
		},
	)

	rs = append(rs, groupRules("sentiment", v.Sentiment, func(f model.MediaFilter, value string) (model.MediaFilter, string) {
		f.Sentiment = rules.AppendUnique(f.Sentiment, value)
		return f, fmt.Sprintf("Filtering by %s sentiment", value)
	})...)

	rs = append(rs, groupRules("media-type", v.MediaTypes, func(f model.MediaFilter, value string) (model.MediaFilter, string) {
		f.MediaTypes = rules.AppendUnique(f.MediaTypes, value)
		return f, fmt.Sprintf("Including %s", value)
	})...)

	rs = append(rs, groupRules("outlet", v.Outlets, func(f model.MediaFilter, value string) (model.MediaFilter, string) {
		f.Outlets = rules.AppendUnique(f.Outlets, value)
		return f, fmt.Sprintf("Limiting to %s coverage", value)
	})...)

	// Qualitative reach first, explicit numbers last: the number wins.
	rs = append(rs,
		reachRule("reach:high", `\b(?:high\s+reach|popular)\b`, ReachHigh),
		reachRule("reach:viral", `\b(?:viral|trending|massive)\b`, ReachViral),
		reachRule("reach:low", `\b(?:low\s+reach|small\s+audiences?)\b`, ReachLow),
		explicitReachRule("reach:explicit", `\b`+rules.NumberExpr+`\s+reach\b`),
		explicitReachRule("reach:explicit-after", `\breach\s+(?:of\s+|over\s+|above\s+|at\s+least\s+)?`+rules.NumberExpr+`\b`),
	)

	return &Media{set: rules.NewSet(rs...), fallback: fallback}
}

func reachRule(name, expr string, reach int) rules.Rule[model.MediaFilter] {
	return rules.Rule[model.MediaFilter]{
		Name:    name,
		Pattern: rules.MustCompile(expr),
		Apply: func(f model.MediaFilter, _ rules.Match, _ time.Time) (model.MediaFilter, string, bool) {
			f.MinReach = reach
			return f, fmt.Sprintf("Minimum reach: %s", HumanCount(reach)), true
		},
	}
}

func explicitReachRule(name, expr string) rules.Rule[model.MediaFilter] {
	return rules.Rule[model.MediaFilter]{
		Name:    name,
		Pattern: rules.MustCompile(expr),
		Apply: func(f model.MediaFilter, m rules.Match, _ time.Time) (model.MediaFilter, string, bool) {
			if !m.Standalone(1) {
				return f, "", false
			}
			n, err := rules.ParseMagnitude(m.Group(1), m.Group(2))
			if err != nil {
				return f, "", false
			}
			f.MinReach = n
			return f, fmt.Sprintf("Minimum reach: %s", HumanCount(n)), true
		},
	}
}

// startOfWeek returns the Monday of d's week.
func startOfWeek(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Rules lists the rule names in evaluation order.
func (m *Media) Rules() []string {
	return m.set.Names()
}

// Interpret derives a media filter from text as of now.
func (m *Media) Interpret(text string, now time.Time) Result[model.MediaFilter] {
	text = rules.Normalize(text)
	out := m.set.Run(text, model.MediaFilter{
		MediaTypes: []string{},
		Sentiment:  []string{},
		Outlets:    []string{},
	}, now)

	f := out.Fields
	f.Query = rules.OrRaw(rules.StripSpans(text, out.Spans), text, 3)

	var extra []string
	if m.fallback == FallbackAssistant {
		f, extra = assistantDefaults(f, text, now)
	}
	return resultOf(out, f, extra...)
}

func assistantDefaults(f model.MediaFilter, text string, now time.Time) (model.MediaFilter, []string) {
	var notes []string
	if f.DateRange.Start.IsZero() {
		end := today(now)
		f.DateRange = model.DateRange{Start: end.AddDate(0, 0, -30), End: end}
		notes = append(notes, "Date range: last 30 days (default)")
	}
	if len(f.MediaTypes) == 0 {
		f.MediaTypes = append([]string(nil), defaultMediaTypes...)
		notes = append(notes, "Including Online News, Social Media and Blog (default)")
	}
	if len(f.Outlets) == 0 && techTalk.MatchString(text) {
		f.Outlets = append([]string(nil), techOutlets...)
		notes = append(notes, "Limiting to TechCrunch and Wired coverage (default)")
	}
	return f, notes
}
