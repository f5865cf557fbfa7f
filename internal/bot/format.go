package bot

import (
	"fmt"
	"strconv"
	"strings"

	"agency_bot/internal/assistant"
	"agency_bot/internal/format"
	"agency_bot/internal/interpret"
	"agency_bot/internal/model"
)

const (
	timeLayout  = "2006-01-02 15:04 UTC"
	resultLimit = 10
)

func kindTitle(k model.Domain) string {
	switch k {
	case model.DomainMedia:
		return "Media filter"
	case model.DomainInfluencer:
		return "Influencer search"
	case model.DomainTracking:
		return "Social tracker"
	}
	return string(k)
}

// Fields describes the chat's current filter.
func Fields(c assistant.Current) []format.Field {
	switch c.Kind {
	case model.DomainMedia:
		return format.MediaFields(c.Media.Fields)
	case model.DomainInfluencer:
		return format.InfluencerFields(c.Influencer.Fields)
	case model.DomainTracking:
		return format.TrackerFields(c.Tracking.Fields)
	}
	return nil
}

// FormatCurrent formats an interpreted filter with its suggestions and confidence.
func FormatCurrent(c assistant.Current) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (confidence %s)\n\n", kindTitle(c.Kind), format.Percent(c.Confidence()))
	b.WriteString(format.Lines(Fields(c)))

	if s := c.Suggestions(); len(s) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, line := range s {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	if c.SavedID != "" {
		fmt.Fprintf(&b, "\nSaved filter %s", c.SavedID)
	} else {
		b.WriteString("\nUse /run to see matches or /save <name> to keep this filter.")
	}
	return b.String()
}

// FormatResults formats the items a filter matched, up to a fixed limit.
func FormatResults(res assistant.Results) string {
	n := res.Len()
	if n == 0 {
		return "No matches."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d match(es):\n", n)

	i := 0
	next := func() bool {
		i++
		return i <= resultLimit
	}
	for _, m := range res.Media {
		if !next() {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s\n   %s, %s, %s\n", i, m.Title, m.Outlet, m.Sentiment, m.PublishedAt.Format(format.DateLayout))
		if m.Link != "" {
			fmt.Fprintf(&b, "   %s\n", m.Link)
		}
	}
	for _, inf := range res.Influencers {
		if !next() {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s on %s (%s)\n   %s followers, %s%% engagement\n",
			i, inf.Handle, inf.Platform, inf.Category,
			interpret.HumanCount(inf.Followers), strconv.FormatFloat(inf.Engagement, 'f', -1, 64))
	}
	for _, p := range res.Posts {
		if !next() {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s on %s, %s\n   %s\n", i, p.Author, p.Platform, p.PostedAt.Format(timeLayout), p.Text)
	}

	if n > resultLimit {
		fmt.Fprintf(&b, "\n...and %d more.", n-resultLimit)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatPost formats a tracked social post as a notification message.
func FormatPost(trackerName string, post model.SocialPost) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n\n", trackerName)
	fmt.Fprintf(&b, "%s on %s", post.Author, post.Platform)
	if !post.PostedAt.IsZero() {
		fmt.Fprintf(&b, ", %s", post.PostedAt.Format(timeLayout))
	}
	if post.Text != "" {
		b.WriteString("\n\n")
		b.WriteString(post.Text)
	}
	if post.Link != "" {
		b.WriteString("\n\n")
		b.WriteString(post.Link)
	}
	return b.String()
}

// FormatSavedList formats a chat's saved filters for display.
func FormatSavedList(filters []model.SavedFilter) string {
	if len(filters) == 0 {
		return "You have no saved filters yet. Send a query, then use /save <name>."
	}
	var b strings.Builder
	b.WriteString("Your saved filters:\n")
	for _, f := range filters {
		fmt.Fprintf(&b, "\n%s [%s]\n", f.Name, f.Kind)
		if f.Description != "" {
			fmt.Fprintf(&b, "   %s\n", f.Description)
		}
		fmt.Fprintf(&b, "   \"%s\"\n", f.Query)
		fmt.Fprintf(&b, "   saved %s, %d result(s)\n", f.CreatedAt.Format(format.DateLayout), f.ResultCount)
		fmt.Fprintf(&b, "   id: %s\n", f.ID)
	}
	return b.String()
}
