// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"agency_bot/internal/interpret"
	"agency_bot/internal/model"
)

// DefaultTrackInterval is how often saved trackers are checked.
const DefaultTrackInterval = 15 * time.Minute

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	// DatabasePath selects SQLite storage. Empty keeps saved filters in memory.
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	MediaFeeds       []model.Source
	SocialFeeds      []model.Source
	InfluencerRoster string
	MediaFallback    interpret.FallbackPolicy
	TrackInterval    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	mediaFeeds, err := ParseSources(os.Getenv("MEDIA_FEEDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_FEEDS: %w", err)
	}
	socialFeeds, err := ParseSources(os.Getenv("SOCIAL_FEEDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid SOCIAL_FEEDS: %w", err)
	}
	for i := range socialFeeds {
		socialFeeds[i].Label = strings.ToLower(socialFeeds[i].Label)
	}

	fallback, err := interpret.ParseFallbackPolicy(strings.ToLower(os.Getenv("MEDIA_FALLBACK")))
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_FALLBACK: %w", err)
	}

	interval := DefaultTrackInterval
	if raw := os.Getenv("TRACK_INTERVAL"); raw != "" {
		interval, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRACK_INTERVAL %q: %w", raw, err)
		}
		if interval < time.Minute {
			return nil, fmt.Errorf("TRACK_INTERVAL must be at least 1m, got %s", interval)
		}
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     os.Getenv("DATABASE_PATH"),
		LogLevel:         logLevel,
		AllowedUsers:     allowedUsers,
		MediaFeeds:       mediaFeeds,
		SocialFeeds:      socialFeeds,
		InfluencerRoster: os.Getenv("INFLUENCER_ROSTER"),
		MediaFallback:    fallback,
		TrackInterval:    interval,
	}, nil
}

// ParseSources parses a comma-separated list of "label|url" entries.
func ParseSources(raw string) ([]model.Source, error) {
	var sources []model.Source
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		label, rawURL, ok := strings.Cut(entry, "|")
		label, rawURL = strings.TrimSpace(label), strings.TrimSpace(rawURL)
		if !ok || label == "" || rawURL == "" {
			return nil, fmt.Errorf("entry %q must look like label|url", entry)
		}
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("entry %q has an invalid URL", entry)
		}
		sources = append(sources, model.Source{Label: label, URL: rawURL})
	}
	return sources, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
