// Package interpret turns free-text requests into structured media, influencer
// and social-tracking filters.
package interpret

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"agency_bot/internal/rules"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Group maps a set of keywords to the value they stand for.
type Group struct {
	Value    string   `yaml:"value"`
	Keywords []string `yaml:"keywords"`
}

// Vocabulary holds the keyword tables the interpreters are built from.
type Vocabulary struct {
	Sentiment           []Group `yaml:"sentiment"`
	MediaTypes          []Group `yaml:"media_types"`
	Outlets             []Group `yaml:"outlets"`
	InfluencerPlatforms []Group `yaml:"influencer_platforms"`
	Categories          []Group `yaml:"categories"`
	TrackingPlatforms   []Group `yaml:"tracking_platforms"`
	StopWords           struct {
		QueryNoise []string `yaml:"query_noise"`
		Tracking   []string `yaml:"tracking"`
	} `yaml:"stop_words"`
}

// LoadVocabulary parses and validates a vocabulary document.
func LoadVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	sections := map[string][]Group{
		"sentiment":            v.Sentiment,
		"media_types":          v.MediaTypes,
		"outlets":              v.Outlets,
		"influencer_platforms": v.InfluencerPlatforms,
		"categories":           v.Categories,
		"tracking_platforms":   v.TrackingPlatforms,
	}
	for name, groups := range sections {
		if len(groups) == 0 {
			return nil, fmt.Errorf("vocabulary section %q is empty", name)
		}
		for _, g := range groups {
			if g.Value == "" || len(g.Keywords) == 0 {
				return nil, fmt.Errorf("vocabulary section %q has an incomplete group %q", name, g.Value)
			}
		}
	}
	return &v, nil
}

var defaultVocabulary = sync.OnceValue(func() *Vocabulary {
	v, err := LoadVocabulary(vocabularyYAML)
	if err != nil {
		panic(fmt.Sprintf("load vocabulary.yaml: %v", err))
	}
	return v
})

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() *Vocabulary {
	return defaultVocabulary()
}

// Result is what an interpreter returns for one utterance.
type Result[T any] struct {
	Fields      T        `json:"fields"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
}

func resultOf[T any](out rules.Outcome[T], fields T, extra ...string) Result[T] {
	suggestions := out.Suggestions
	for _, s := range extra {
		if !slices.Contains(suggestions, s) {
			suggestions = append(suggestions, s)
		}
	}
	return Result[T]{Fields: fields, Suggestions: suggestions, Confidence: out.Confidence()}
}

// groupRules builds one rule per vocabulary group, in group order.
func groupRules[T any](prefix string, groups []Group, apply func(acc T, value string) (T, string)) []rules.Rule[T] {
	out := make([]rules.Rule[T], 0, len(groups))
	for _, g := range groups {
		value := g.Value
		out = append(out, rules.Rule[T]{
			Name:    prefix + ":" + strings.ToLower(value),
			Pattern: rules.WordPattern(g.Keywords),
			Apply: func(acc T, _ rules.Match, _ time.Time) (T, string, bool) {
				next, suggestion := apply(acc, value)
				return next, suggestion, true
			},
		})
	}
	return out
}

// today truncates t to midnight in its own location.
func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// HumanCount renders 1500 as "1.5K" and 2000000 as "2M".
func HumanCount(n int) string {
	switch {
	case n >= 1_000_000:
		return trimFloat(float64(n)/1_000_000) + "M"
	case n >= 1_000:
		return trimFloat(float64(n)/1_000) + "K"
	default:
		return fmt.Sprintf("%d", n)
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	return strings.TrimSuffix(s, ".0")
}
