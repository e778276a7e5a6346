package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/scanner"
)

// FeedStrategy reads RSS, Atom and JSON feeds.
type FeedStrategy struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

var _ scanner.Strategy = (*FeedStrategy)(nil)

// NewFeedStrategy wires the shared fetcher.
func NewFeedStrategy(fetcher *Fetcher, log *slog.Logger) *FeedStrategy {
	if fetcher == nil {
		fetcher = NewFetcher(nil, "")
	}
	return &FeedStrategy{fetcher: fetcher, logger: log}
}

// Name identifies the strategy inside the chain.
func (f *FeedStrategy) Name() string {
	return "feed"
}

// Extract parses sourceURL as a feed and converts up to maxPosts entries.
func (f *FeedStrategy) Extract(ctx context.Context, sourceURL string, maxPosts int) ([]domain.PostCandidate, error) {
	body, err := f.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: feed %s: %v", domain.ErrParse, sourceURL, err)
	}

	items := feed.Items
	if maxPosts > 0 && len(items) > maxPosts {
		items = items[:maxPosts]
	}

	candidates := make([]domain.PostCandidate, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		candidates = append(candidates, f.toCandidate(item, sourceURL))
	}

	f.debug("feed parsed", "url", sourceURL, "entries", len(feed.Items), "kept", len(candidates))
	return candidates, nil
}

func (f *FeedStrategy) toCandidate(item *gofeed.Item, sourceURL string) domain.PostCandidate {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = untitledEntry
	}

	link := strings.TrimSpace(item.Link)
	if link == "" {
		link = sourceURL
	}

	raw := item.Content
	if strings.TrimSpace(raw) == "" {
		raw = item.Description
	}

	var base *url.URL
	if parsed, err := url.Parse(link); err == nil && parsed.IsAbs() {
		base = parsed
	}

	var tags []string
	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	return domain.PostCandidate{
		Title:   title,
		URL:     link,
		Content: CleanHTML(raw),
		Images:  ExtractImagesFromHTML(item.Description+item.Content, base),
		Tags:    tags,
	}
}

func (f *FeedStrategy) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
