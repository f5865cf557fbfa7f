package interpret

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"agency_bot/internal/model"
	"agency_bot/internal/rules"
)

// DefaultTrackingDays is the window length used when no duration is given.
const DefaultTrackingDays = 30

// DefaultTrackerName is used when neither a keyword nor a hashtag was found.
const DefaultTrackerName = "Social Media Tracking"

// nameExpr captures a free-text name of one to three words.
const nameExpr = `([\w&.'-]+(?:\s+[\w&.'-]+){0,2}?)`

// Tracking interprets social-tracking requests.
type Tracking struct {
	set       *rules.Set[model.TrackerSpec]
	platforms []string
	stop      map[string]struct{}
}

// NewTracking builds the tracking interpreter from a vocabulary.
func NewTracking(v *Vocabulary) *Tracking {
	t := &Tracking{
		stop: make(map[string]struct{}, len(v.StopWords.Tracking)),
	}
	for _, w := range v.StopWords.Tracking {
		t.stop[strings.ToLower(w)] = struct{}{}
	}
	for _, g := range v.TrackingPlatforms {
		t.platforms = append(t.platforms, g.Value)
	}

	var rs []rules.Rule[model.TrackerSpec]

	rs = append(rs, groupRules("platform", v.TrackingPlatforms, func(s model.TrackerSpec, value string) (model.TrackerSpec, string) {
		s.Platforms = rules.AppendUnique(s.Platforms, value)
		return s, fmt.Sprintf("Platform: %s", value)
	})...)

	rs = append(rs,
		rules.Rule[model.TrackerSpec]{
			Name:    "hashtag",
			Pattern: rules.MustCompile(`#(\w+)`),
			Apply: func(s model.TrackerSpec, m rules.Match, _ time.Time) (model.TrackerSpec, string, bool) {
				tag := "#" + m.Group(1)
				s.Hashtags = rules.AppendUnique(s.Hashtags, tag)
				return s, fmt.Sprintf("Hashtag: %s", tag), true
			},
		},
		t.keywordRule("name:brand", `\b(?:brand|product|company)\s+`+nameExpr+`\s+(?:mentions?|tracking|monitoring)\b`),
		rules.Rule[model.TrackerSpec]{
			Name:    "name:campaign",
			Pattern: rules.MustCompile(`\b(?:campaign|launch|promotion)\s+` + nameExpr + `\s+(?:tracking|monitoring)\b`),
			Apply: func(s model.TrackerSpec, m rules.Match, _ time.Time) (model.TrackerSpec, string, bool) {
				name := strings.TrimSpace(m.Group(1))
				if !t.meaningful(name) {
					return s, "", false
				}
				s.Keywords = rules.AppendUnique(s.Keywords, name)
				s.Name = name + " Tracking"
				return s, fmt.Sprintf("Tracker name: %s", s.Name), true
			},
		},
		t.keywordRule("name:competitor", `\b(?:competitor|rival)s?\s+([\w&.'-]+)`),
		t.keywordRule("name:event", `\b(?:event|conference|webinar|launch)\s+([\w&.'-]+)`),
		durationRule("duration:upcoming", `\b(?:next|coming|upcoming)\s+(?:(\d{1,3})\s+)?(day|week|month)s?\b`),
		durationRule("duration:for", `\b(?:for|during)\s+(?:the\s+)?(?:next\s+|coming\s+)?(\d{1,3})\s+(day|week|month)s?\b`),
	)

	t.set = rules.NewSet(rs...)
	return t
}

func (t *Tracking) keywordRule(name, expr string) rules.Rule[model.TrackerSpec] {
	return rules.Rule[model.TrackerSpec]{
		Name:    name,
		Pattern: rules.MustCompile(expr),
		Apply: func(s model.TrackerSpec, m rules.Match, _ time.Time) (model.TrackerSpec, string, bool) {
			kw := strings.TrimSpace(m.Group(1))
			if !t.meaningful(kw) {
				return s, "", false
			}
			s.Keywords = rules.AppendUnique(s.Keywords, kw)
			return s, fmt.Sprintf("Keyword: %s", kw), true
		},
	}
}

func durationRule(name, expr string) rules.Rule[model.TrackerSpec] {
	return rules.Rule[model.TrackerSpec]{
		Name:    name,
		Pattern: rules.MustCompile(expr),
		Apply: func(s model.TrackerSpec, m rules.Match, now time.Time) (model.TrackerSpec, string, bool) {
			n := 1
			if m.Group(1) != "" {
				v, err := strconv.Atoi(m.Group(1))
				if err != nil || v < 1 {
					return s, "", false
				}
				n = v
			}
			start := today(now)
			unit := strings.ToLower(m.Group(2))
			switch unit {
			case "day":
				s.EndDate = start.AddDate(0, 0, n)
			case "week":
				s.EndDate = start.AddDate(0, 0, 7*n)
			case "month":
				s.EndDate = start.AddDate(0, n, 0)
			default:
				return s, "", false
			}
			s.StartDate = start
			if n != 1 {
				unit += "s"
			}
			return s, fmt.Sprintf("Tracking for %d %s", n, unit), true
		},
	}
}

// meaningful rejects captures that are only tracking vocabulary.
func (t *Tracking) meaningful(name string) bool {
	if name == "" {
		return false
	}
	for _, w := range strings.Fields(name) {
		if _, ok := t.stop[strings.ToLower(w)]; !ok {
			return true
		}
	}
	return false
}

// Rules lists the rule names in evaluation order.
func (t *Tracking) Rules() []string {
	return t.set.Names()
}

// Platforms lists every known tracking platform.
func (t *Tracking) Platforms() []string {
	return append([]string(nil), t.platforms...)
}

// Interpret derives a tracker spec from text as of now.
func (t *Tracking) Interpret(text string, now time.Time) Result[model.TrackerSpec] {
	text = rules.Normalize(text)
	start := today(now)
	out := t.set.Run(text, model.TrackerSpec{
		Keywords:  []string{},
		Hashtags:  []string{},
		Platforms: []string{},
		StartDate: start,
		EndDate:   start.AddDate(0, 0, DefaultTrackingDays),
	}, now)

	s := out.Fields
	if len(s.Keywords) == 0 {
		s.Keywords = t.fallbackKeywords(text)
	}
	if s.Name == "" {
		switch {
		case len(s.Keywords) > 0:
			s.Name = cases.Title(language.English).String(s.Keywords[0]) + " Tracking"
		case len(s.Hashtags) > 0:
			s.Name = s.Hashtags[0] + " Tracking"
		default:
			s.Name = DefaultTrackerName
		}
	}

	var extra []string
	if len(s.Platforms) == 0 {
		s.Platforms = t.Platforms()
		extra = append(extra, "No platform specified, tracking all platforms")
	}
	return resultOf(out, s, extra...)
}

// fallbackKeywords keeps the content words of text: longer than three
// characters, not hashtags, not numbers and not tracking vocabulary.
func (t *Tracking) fallbackKeywords(text string) []string {
	keywords := []string{}
	for _, tok := range strings.Fields(text) {
		if strings.HasPrefix(tok, "#") {
			continue
		}
		tok = strings.ToLower(strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if utf8.RuneCountInString(tok) <= 3 {
			continue
		}
		if _, err := strconv.Atoi(tok); err == nil {
			continue
		}
		if _, ok := t.stop[tok]; ok {
			continue
		}
		keywords = rules.AppendUnique(keywords, tok)
	}
	return keywords
}
