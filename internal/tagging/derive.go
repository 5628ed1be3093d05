package tagging

import (
	"strings"

	"github.com/five82/tagger/internal/api"
)

// captionSeparator joins tags in an image's .txt caption file.
const captionSeparator = ", "

// CaptionText assembles the caption file contents for tags.
func CaptionText(tags []string) string {
	return strings.Join(tags, captionSeparator)
}

// Uncategorized returns the tags no category lists, in tag order. Matching
// ignores case.
func Uncategorized(tags []string, categories []api.Category) []string {
	known := make(map[string]struct{})
	for _, c := range categories {
		for _, t := range c.Tags {
			known[strings.ToLower(t)] = struct{}{}
		}
	}
	out := make([]string, 0)
	for _, t := range tags {
		if _, ok := known[strings.ToLower(t)]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// normalizeTags trims, drops empties and drops duplicates, keeping the first
// occurrence.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
