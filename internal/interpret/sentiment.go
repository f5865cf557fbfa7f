package interpret

import (
	"regexp"

	"agency_bot/internal/rules"
)

// SentimentScorer labels free text with the sentiment whose vocabulary
// appears most often in it.
type SentimentScorer struct {
	groups   []string
	patterns []*regexp.Regexp
}

// NewSentimentScorer builds a scorer from the vocabulary's sentiment groups.
func NewSentimentScorer(v *Vocabulary) *SentimentScorer {
	s := &SentimentScorer{}
	for _, g := range v.Sentiment {
		s.groups = append(s.groups, g.Value)
		s.patterns = append(s.patterns, rules.WordPattern(g.Keywords))
	}
	return s
}

// Score returns the winning sentiment, or "neutral" on a tie or no hits.
func (s *SentimentScorer) Score(text string) string {
	best, bestHits, tie := "neutral", 0, false
	for i, re := range s.patterns {
		hits := len(re.FindAllStringIndex(text, -1))
		switch {
		case hits > bestHits:
			best, bestHits, tie = s.groups[i], hits, false
		case hits == bestHits && hits > 0:
			tie = true
		}
	}
	if tie {
		return "neutral"
	}
	return best
}
