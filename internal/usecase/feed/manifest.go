package feed

import domfeed "github.com/kailas-cloud/stixfeed/internal/domain/feed"

// manifest maps every edge of a page to its manifest entry.
func manifest(page domfeed.Page) []domfeed.ManifestEntry {
	entries := make([]domfeed.ManifestEntry, len(page.Edges))
	for i, e := range page.Edges {
		entries[i] = domfeed.NewManifestEntry(e.Node)
	}
	return entries
}
