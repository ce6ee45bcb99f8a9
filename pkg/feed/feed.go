// Package feed discovers podcast episodes from RSS/Atom feeds.
package feed

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"podcast-rag/pkg/domain"
)

// Parser handles podcast feed parsing operations
type Parser struct {
	feedParser *gofeed.Parser
}

// NewParser creates a new feed parser
func NewParser() *Parser {
	return &Parser{
		feedParser: gofeed.NewParser(),
	}
}

// ParseFromURL fetches and parses a podcast feed from the given URL
func (p *Parser) ParseFromURL(feedURL string) ([]domain.EpisodeRef, error) {
	feed, err := p.feedParser.ParseURL(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return episodeRefs(feed)
}

// ParseString parses a podcast feed from raw XML
func (p *Parser) ParseString(data string) ([]domain.EpisodeRef, error) {
	feed, err := p.feedParser.ParseString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return episodeRefs(feed)
}

func episodeRefs(feed *gofeed.Feed) ([]domain.EpisodeRef, error) {
	if feed == nil || len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed contains no items")
	}

	refs := make([]domain.EpisodeRef, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		refs = append(refs, domain.EpisodeRef{
			Title:         item.Title,
			PageURL:       item.Link,
			AudioURL:      audioURL(item),
			TranscriptURL: transcriptURL(item),
		})
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("no valid episodes found in feed items")
	}

	return refs, nil
}

// audioURL returns the first audio enclosure, if any.
func audioURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "audio/") || enc.Type == "" {
			return enc.URL
		}
	}
	return ""
}

// transcriptURL returns the <podcast:transcript> extension URL, if the feed
// publishes one.
func transcriptURL(item *gofeed.Item) string {
	for _, exts := range item.Extensions["podcast"] {
		for _, ext := range exts {
			if ext.Name != "transcript" {
				continue
			}
			if url := strings.TrimSpace(ext.Attrs["url"]); url != "" {
				return url
			}
		}
	}
	return ""
}
