// Package filter applies interpreted filters to collected items.
package filter

import (
	"cmp"
	"slices"
	"strings"

	"agency_bot/internal/interpret"
	"agency_bot/internal/model"
)

// MatchMedia checks whether a piece of coverage passes the filter.
// Empty list fields do not constrain. An item with unknown reach (0) is
// never excluded by MinReach.
func MatchMedia(item model.MediaResult, f model.MediaFilter) bool {
	if !f.DateRange.Contains(item.PublishedAt) {
		return false
	}
	if !oneOf(item.MediaType, f.MediaTypes) {
		return false
	}
	if !oneOf(item.Sentiment, f.Sentiment) {
		return false
	}
	if !oneOf(item.Outlet, f.Outlets) {
		return false
	}
	if f.MinReach > 0 && item.Reach > 0 && item.Reach < f.MinReach {
		return false
	}
	return true
}

// MatchInfluencer checks whether a roster entry passes the search.
func MatchInfluencer(inf model.Influencer, s model.InfluencerSearch) bool {
	if s.Platform != interpret.AnyValue && !strings.EqualFold(inf.Platform, s.Platform) {
		return false
	}
	if s.Category != interpret.AnyValue && !strings.EqualFold(inf.Category, s.Category) {
		return false
	}
	if inf.Followers < s.MinFollowers || inf.Followers > s.MaxFollowers {
		return false
	}
	if inf.Engagement < s.MinEngagement {
		return false
	}
	if s.UseInternalDB && !inf.Internal {
		return false
	}
	return true
}

// MatchPost checks whether a social post is covered by the tracker.
// Keywords and hashtags use OR logic; a tracker with neither matches any text.
func MatchPost(post model.SocialPost, spec model.TrackerSpec) bool {
	if !oneOf(post.Platform, spec.Platforms) {
		return false
	}
	if !spec.Active(post.PostedAt) {
		return false
	}
	if len(spec.Keywords) == 0 && len(spec.Hashtags) == 0 {
		return true
	}

	text := strings.ToLower(post.Text)
	for _, term := range slices.Concat(spec.Keywords, spec.Hashtags) {
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// Media returns the matching items, newest first.
func Media(items []model.MediaResult, f model.MediaFilter) []model.MediaResult {
	out := keep(items, func(it model.MediaResult) bool { return MatchMedia(it, f) })
	slices.SortStableFunc(out, func(a, b model.MediaResult) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return out
}

// Influencers returns the matching roster entries, most followed first.
func Influencers(roster []model.Influencer, s model.InfluencerSearch) []model.Influencer {
	out := keep(roster, func(inf model.Influencer) bool { return MatchInfluencer(inf, s) })
	slices.SortStableFunc(out, func(a, b model.Influencer) int {
		return cmp.Or(cmp.Compare(b.Followers, a.Followers), cmp.Compare(a.Handle, b.Handle))
	})
	return out
}

// Posts returns the posts the tracker covers, newest first.
func Posts(posts []model.SocialPost, spec model.TrackerSpec) []model.SocialPost {
	out := keep(posts, func(p model.SocialPost) bool { return MatchPost(p, spec) })
	slices.SortStableFunc(out, func(a, b model.SocialPost) int {
		return b.PostedAt.Compare(a.PostedAt)
	})
	return out
}

func keep[T any](items []T, ok func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if ok(it) {
			out = append(out, it)
		}
	}
	return out
}

// oneOf reports whether v is in allowed, ignoring case. An empty list allows anything.
func oneOf(v string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
