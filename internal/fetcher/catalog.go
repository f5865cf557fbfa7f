package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"agency_bot/internal/model"
)

// Catalog serves media coverage and social posts from configured RSS
// sources, and influencers from a fixed roster.
type Catalog struct {
	fetcher *Fetcher
	media   []model.Source
	social  []model.Source
	roster  []model.Influencer
	scorer  Scorer
	log     *slog.Logger
}

// NewCatalog creates a Catalog over the given sources and roster.
func NewCatalog(f *Fetcher, media, social []model.Source, roster []model.Influencer, scorer Scorer, log *slog.Logger) *Catalog {
	return &Catalog{
		fetcher: f,
		media:   media,
		social:  social,
		roster:  roster,
		scorer:  scorer,
		log:     log,
	}
}

// Media fetches every media source. Individual failures are logged; an
// error is returned only when no source could be read.
func (c *Catalog) Media(ctx context.Context) ([]model.MediaResult, error) {
	fetched, err := c.fetch(ctx, "media", c.media)
	if err != nil {
		return nil, err
	}
	var out []model.MediaResult
	for _, fd := range fetched {
		out = append(out, MediaResults(fd, c.scorer)...)
	}
	return out, nil
}

// Posts fetches every social source.
func (c *Catalog) Posts(ctx context.Context) ([]model.SocialPost, error) {
	fetched, err := c.fetch(ctx, "social", c.social)
	if err != nil {
		return nil, err
	}
	var out []model.SocialPost
	for _, fd := range fetched {
		out = append(out, SocialPosts(fd)...)
	}
	return out, nil
}

// Influencers returns a copy of the roster.
func (c *Catalog) Influencers(_ context.Context) ([]model.Influencer, error) {
	return append([]model.Influencer(nil), c.roster...), nil
}

func (c *Catalog) fetch(ctx context.Context, kind string, sources []model.Source) ([]Fetched, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no %s feeds configured", kind)
	}
	fetched, err := c.fetcher.FetchAll(ctx, sources)
	if err != nil {
		if len(fetched) == 0 {
			return nil, fmt.Errorf("fetch %s feeds: %w", kind, err)
		}
		c.log.Warn("some feeds failed", "kind", kind, "ok", len(fetched), "total", len(sources), "error", err)
	}
	return fetched, nil
}
