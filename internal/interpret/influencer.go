package interpret

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"agency_bot/internal/model"
	"agency_bot/internal/rules"
)

// Influencer search defaults.
const (
	DefaultMinFollowers  = 1_000
	DefaultMaxFollowers  = 10_000_000
	DefaultMinEngagement = 1.0
	AnyValue             = "all"
)

// Engagement levels for qualitative phrases, in percent.
const (
	EngagementHigh = 3.0
	EngagementLow  = 0.5
)

// A comparator number needs a k/m suffix or an audience noun to count as followers.
const audienceExpr = `(?:\s*(%)|\s+(followers|subscribers|fans)\b)?`

// Influencer interprets influencer discovery requests.
type Influencer struct {
	set   *rules.Set[model.InfluencerSearch]
	noise *regexp.Regexp
}

// NewInfluencer builds the influencer interpreter from a vocabulary.
func NewInfluencer(v *Vocabulary) *Influencer {
	var rs []rules.Rule[model.InfluencerSearch]

	rs = append(rs, groupRules("platform", v.InfluencerPlatforms, func(s model.InfluencerSearch, value string) (model.InfluencerSearch, string) {
		s.Platform = value
		return s, fmt.Sprintf("Platform: %s", value)
	})...)

	rs = append(rs, groupRules("category", v.Categories, func(s model.InfluencerSearch, value string) (model.InfluencerSearch, string) {
		s.Category = value
		return s, fmt.Sprintf("Category: %s", value)
	})...)

	rs = append(rs,
		tierRule("tier:micro", `\bmicro\b`, "Micro", 1_000, 100_000),
		tierRule("tier:macro", `\bmacro\b`, "Macro", 100_000, 1_000_000),
		tierRule("tier:mega", `\b(?:mega|celebrity)\b`, "Mega", 1_000_000, 10_000_000),
		rules.Rule[model.InfluencerSearch]{
			Name:    "followers:around",
			Pattern: rules.MustCompile(`(?:\b(over|above|under|below|more\s+than|less\s+than|fewer\s+than|at\s+least|at\s+most)\s+)?\b` + rules.NumberExpr + `\s+(?:followers|subscribers|fans)\b`),
			Apply: func(s model.InfluencerSearch, m rules.Match, _ time.Time) (model.InfluencerSearch, string, bool) {
				// Comparators are handled by the min/max rules below.
				if m.Group(1) != "" || !m.Standalone(2) {
					return s, "", false
				}
				n, err := rules.ParseMagnitude(m.Group(2), m.Group(3))
				if err != nil {
					return s, "", false
				}
				s.MinFollowers = n * 4 / 5
				s.MaxFollowers = n * 6 / 5
				return s, fmt.Sprintf("Followers: %s-%s", HumanCount(s.MinFollowers), HumanCount(s.MaxFollowers)), true
			},
		},
		boundRule("followers:min", `\b(?:over|above|more\s+than|at\s+least)\s+`+rules.NumberExpr+audienceExpr, func(s model.InfluencerSearch, n int) (model.InfluencerSearch, string, bool) {
			if n > s.MaxFollowers {
				return s, "", false
			}
			s.MinFollowers = n
			return s, fmt.Sprintf("Followers: at least %s", HumanCount(n)), true
		}),
		boundRule("followers:max", `\b(?:under|below|less\s+than|fewer\s+than|at\s+most)\s+`+rules.NumberExpr+audienceExpr, func(s model.InfluencerSearch, n int) (model.InfluencerSearch, string, bool) {
			if n < s.MinFollowers {
				return s, "", false
			}
			s.MaxFollowers = n
			return s, fmt.Sprintf("Followers: at most %s", HumanCount(n)), true
		}),
		engagementRule("engagement:high", `\b(?:high|good|great|strong)\s+engagement\b`, EngagementHigh),
		engagementRule("engagement:low", `\b(?:low|poor|weak)\s+engagement\b`, EngagementLow),
		rules.Rule[model.InfluencerSearch]{
			Name:    "engagement:explicit",
			Pattern: rules.MustCompile(`(?:\b(\d+(?:\.\d+)?)\s*%\s*engagement\b|\bengagement(?:\s+rate)?\s+(?:of\s+|above\s+|over\s+|at\s+least\s+)?(\d+(?:\.\d+)?)\s*%)`),
			Apply: func(s model.InfluencerSearch, m rules.Match, _ time.Time) (model.InfluencerSearch, string, bool) {
				raw := m.Group(1)
				if raw == "" {
					raw = m.Group(2)
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil || v <= 0 || v > 100 {
					return s, "", false
				}
				s.MinEngagement = v
				return s, fmt.Sprintf("Minimum engagement: %s%%", strconv.FormatFloat(v, 'f', -1, 64)), true
			},
		},
		scopeRule("scope:internal", `\b(?:internal|curated|verified)\b`, true, "Using the curated internal database"),
		scopeRule("scope:external", `\b(?:broad|external|public)\b`, false, "Searching beyond the internal database"),
	)

	return &Influencer{
		set:   rules.NewSet(rs...),
		noise: rules.WordPattern(v.StopWords.QueryNoise),
	}
}

func tierRule(name, expr, label string, lo, hi int) rules.Rule[model.InfluencerSearch] {
	return rules.Rule[model.InfluencerSearch]{
		Name:    name,
		Pattern: rules.MustCompile(expr),
		Apply: func(s model.InfluencerSearch, _ rules.Match, _ time.Time) (model.InfluencerSearch, string, bool) {
			s.MinFollowers, s.MaxFollowers = lo, hi
			return s, fmt.Sprintf("%s-influencers (%s-%s followers)", label, HumanCount(lo), HumanCount(hi)), true
		},
	}
}

// boundRule captures number, suffix, percent sign and audience noun, in that order.
func boundRule(name, expr string, apply func(model.InfluencerSearch, int) (model.InfluencerSearch, string, bool)) rules.Rule[model.InfluencerSearch] {
	return rules.Rule[model.InfluencerSearch]{
		Name:    name,
		Pattern: rules.MustCompile(expr),
		Apply: func(s model.InfluencerSearch, m rules.Match, _ time.Time) (model.InfluencerSearch, string, bool) {
			if m.Group(3) != "" || !m.Standalone(1) {
				return s, "", false
			}
			if m.Group(2) == "" && m.Group(4) == "" {
				return s, "", false
			}
			n, err := rules.ParseMagnitude(m.Group(1), m.Group(2))
			if err != nil {
				return s, "", false
			}
			return apply(s, n)
		},
	}
}

func engagementRule(name, expr string, level float64) rules.Rule[model.InfluencerSearch] {
	return rules.Rule[model.InfluencerSearch]{
		Name:    name,
		Pattern: rules.MustCompile(expr),
		Apply: func(s model.InfluencerSearch, _ rules.Match, _ time.Time) (model.InfluencerSearch, string, bool) {
			s.MinEngagement = level
			return s, fmt.Sprintf("Minimum engagement: %s%%", strconv.FormatFloat(level, 'f', -1, 64)), true
		},
	}
}

func scopeRule(name, expr string, internal bool, suggestion string) rules.Rule[model.InfluencerSearch] {
	return rules.Rule[model.InfluencerSearch]{
		Name:    name,
		Pattern: rules.MustCompile(expr),
		Apply: func(s model.InfluencerSearch, _ rules.Match, _ time.Time) (model.InfluencerSearch, string, bool) {
			s.UseInternalDB = internal
			return s, suggestion, true
		},
	}
}

// Rules lists the rule names in evaluation order.
func (i *Influencer) Rules() []string {
	return i.set.Names()
}

// Interpret derives an influencer search from text as of now.
func (i *Influencer) Interpret(text string, now time.Time) Result[model.InfluencerSearch] {
	text = rules.Normalize(text)
	out := i.set.Run(text, model.InfluencerSearch{
		Platform:      AnyValue,
		Category:      AnyValue,
		MinFollowers:  DefaultMinFollowers,
		MaxFollowers:  DefaultMaxFollowers,
		MinEngagement: DefaultMinEngagement,
		UseInternalDB: true,
	}, now)

	s := out.Fields
	s.Query = i.cleanQuery(text, out.Spans)
	return resultOf(out, s)
}

// cleanQuery keeps category terms: they double as the topical search term.
func (i *Influencer) cleanQuery(text string, spans []rules.Span) string {
	strip := make([]rules.Span, 0, len(spans))
	for _, sp := range spans {
		if strings.HasPrefix(sp.Rule, "category:") {
			continue
		}
		strip = append(strip, sp)
	}
	cleaned := rules.StripSpans(text, strip)
	cleaned = i.noise.ReplaceAllString(cleaned, " ")
	cleaned = strings.Join(strings.Fields(strings.Trim(cleaned, " ,.!?")), " ")
	return rules.OrRaw(cleaned, text, 2)
}
