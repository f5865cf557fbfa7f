package assistant

import (
	"encoding/json"
	"fmt"

	"agency_bot/internal/interpret"
	"agency_bot/internal/model"
)

// Current is the filter a chat is working with: the latest interpretation
// or a saved filter that was loaded back. Exactly one of Media, Influencer
// and Tracking is set, according to Kind.
type Current struct {
	Kind       model.Domain
	Text       string
	Media      *interpret.Result[model.MediaFilter]
	Influencer *interpret.Result[model.InfluencerSearch]
	Tracking   *interpret.Result[model.TrackerSpec]

	// SavedID is the saved filter this one was saved as or loaded from.
	SavedID string
}

// Query returns the short search term for the filter.
func (c Current) Query() string {
	switch c.Kind {
	case model.DomainMedia:
		return c.Media.Fields.Query
	case model.DomainInfluencer:
		return c.Influencer.Fields.Query
	case model.DomainTracking:
		return c.Tracking.Fields.Name
	}
	return ""
}

// Suggestions returns the explanations produced while interpreting.
func (c Current) Suggestions() []string {
	switch c.Kind {
	case model.DomainMedia:
		return c.Media.Suggestions
	case model.DomainInfluencer:
		return c.Influencer.Suggestions
	case model.DomainTracking:
		return c.Tracking.Suggestions
	}
	return nil
}

// Confidence returns the interpretation confidence in [0,1].
func (c Current) Confidence() float64 {
	switch c.Kind {
	case model.DomainMedia:
		return c.Media.Confidence
	case model.DomainInfluencer:
		return c.Influencer.Confidence
	case model.DomainTracking:
		return c.Tracking.Confidence
	}
	return 0
}

// Fields returns the structured filter.
func (c Current) Fields() any {
	switch c.Kind {
	case model.DomainMedia:
		return c.Media.Fields
	case model.DomainInfluencer:
		return c.Influencer.Fields
	case model.DomainTracking:
		return c.Tracking.Fields
	}
	return nil
}

// Filters encodes the structured filter for storage.
func (c Current) Filters() (json.RawMessage, error) {
	fields := c.Fields()
	if fields == nil {
		return nil, fmt.Errorf("unknown filter kind %q", c.Kind)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s filter: %w", c.Kind, err)
	}
	return data, nil
}

// restore rebuilds a Current from a saved filter. Suggestions are not
// stored, so a restored filter has none and a confidence of zero.
func restore(f model.SavedFilter) (Current, error) {
	c := Current{Kind: f.Kind, Text: f.Query, SavedID: f.ID}

	var err error
	switch f.Kind {
	case model.DomainMedia:
		c.Media, err = decode[model.MediaFilter](f.Filters)
	case model.DomainInfluencer:
		c.Influencer, err = decode[model.InfluencerSearch](f.Filters)
	case model.DomainTracking:
		c.Tracking, err = decode[model.TrackerSpec](f.Filters)
	default:
		err = fmt.Errorf("unknown filter kind %q", f.Kind)
	}
	if err != nil {
		return Current{}, fmt.Errorf("restore saved filter %s: %w", f.ID, err)
	}
	return c, nil
}

func decode[T any](data json.RawMessage) (*interpret.Result[T], error) {
	var fields T
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}
	return &interpret.Result[T]{Fields: fields, Suggestions: []string{}}, nil
}
