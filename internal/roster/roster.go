// Package roster loads the curated influencer list.
package roster

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"agency_bot/internal/model"
)

type document struct {
	Influencers []model.Influencer `yaml:"influencers"`
}

// Load reads a roster file. An empty path yields an empty roster.
func Load(path string) ([]model.Influencer, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a roster document. Platforms and categories
// are lower-cased to match interpreted searches.
func Parse(data []byte) ([]model.Influencer, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	seen := make(map[string]bool, len(doc.Influencers))
	for i := range doc.Influencers {
		inf := &doc.Influencers[i]
		if inf.Handle == "" || inf.Platform == "" {
			return nil, fmt.Errorf("roster entry %d: handle and platform are required", i+1)
		}
		if inf.Followers < 0 || inf.Engagement < 0 {
			return nil, fmt.Errorf("roster entry %s: negative followers or engagement", inf.Handle)
		}
		inf.Platform = strings.ToLower(inf.Platform)
		inf.Category = strings.ToLower(inf.Category)

		key := inf.Platform + "/" + strings.ToLower(inf.Handle)
		if seen[key] {
			return nil, fmt.Errorf("roster entry %s: duplicate handle on %s", inf.Handle, inf.Platform)
		}
		seen[key] = true
	}
	return doc.Influencers, nil
}
