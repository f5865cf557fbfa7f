// Package model defines the domain types used across the application.
package model

import (
	"encoding/json"
	"time"
)

// Domain identifies which interpreter produced a filter.
type Domain string

// Supported domains.
const (
	DomainMedia      Domain = "media"
	DomainInfluencer Domain = "influencer"
	DomainTracking   Domain = "tracking"
)

// DateRange is an inclusive range of calendar days. A zero bound is unset.
type DateRange struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// Contains reports whether t falls on or between the range's days.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// MediaFilter is the structured form of a media-monitoring query.
type MediaFilter struct {
	Query      string    `json:"query"`
	DateRange  DateRange `json:"dateRange"`
	MediaTypes []string  `json:"mediaTypes"`
	Sentiment  []string  `json:"sentiment"`
	Outlets    []string  `json:"outlets"`
	MinReach   int       `json:"minReach,omitempty"`
}

// InfluencerSearch is the structured form of an influencer discovery query.
type InfluencerSearch struct {
	Query         string  `json:"query"`
	Platform      string  `json:"platform"`
	Category      string  `json:"category"`
	MinFollowers  int     `json:"minFollowers"`
	MaxFollowers  int     `json:"maxFollowers"`
	MinEngagement float64 `json:"minEngagement"`
	UseInternalDB bool    `json:"useInternalDb"`
}

// TrackerSpec is the structured form of a social-tracking request.
type TrackerSpec struct {
	Name      string    `json:"name"`
	Keywords  []string  `json:"keywords"`
	Hashtags  []string  `json:"hashtags"`
	Platforms []string  `json:"platforms"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Active reports whether the tracker window covers t.
func (s TrackerSpec) Active(t time.Time) bool {
	return DateRange{Start: s.StartDate, End: s.EndDate}.Contains(t)
}

// SavedFilter is a named snapshot of a generated filter and the text it came from.
type SavedFilter struct {
	ID          string          `json:"id"`
	ChatID      int64           `json:"chatId"`
	Kind        Domain          `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Query       string          `json:"query"`
	Filters     json.RawMessage `json:"filters"`
	CreatedAt   time.Time       `json:"createdAt"`
	ResultCount int             `json:"resultCount"`
}

// Source is a configured RSS feed. Label is a media type for media feeds
// and a platform for social feeds.
type Source struct {
	Label string
	URL   string
}

// MediaResult is a single piece of coverage found by media monitoring.
type MediaResult struct {
	GUID        string
	Title       string
	Summary     string
	Link        string
	Outlet      string
	MediaType   string
	Sentiment   string
	Reach       int
	PublishedAt time.Time
}

// Influencer is a creator record from the influencer roster.
type Influencer struct {
	Handle     string  `yaml:"handle"`
	Name       string  `yaml:"name"`
	Platform   string  `yaml:"platform"`
	Category   string  `yaml:"category"`
	Followers  int     `yaml:"followers"`
	Engagement float64 `yaml:"engagement"`
	Internal   bool    `yaml:"internal"`
}

// SocialPost is a post collected from a social feed.
type SocialPost struct {
	GUID     string
	Platform string
	Author   string
	Text     string
	Link     string
	PostedAt time.Time
}
