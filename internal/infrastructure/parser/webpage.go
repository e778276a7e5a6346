package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/scanner"
)

// WebpageStrategy scrapes a blog's HTML when no feed is available. It finds
// article links on the page and scrapes each; a page without article links is
// treated as a single post.
type WebpageStrategy struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

var _ scanner.Strategy = (*WebpageStrategy)(nil)

// NewWebpageStrategy wires the shared fetcher.
func NewWebpageStrategy(fetcher *Fetcher, log *slog.Logger) *WebpageStrategy {
	if fetcher == nil {
		fetcher = NewFetcher(nil, "")
	}
	return &WebpageStrategy{fetcher: fetcher, logger: log}
}

// Name identifies the strategy inside the chain.
func (w *WebpageStrategy) Name() string {
	return "webpage"
}

// Extract fetches sourceURL and produces candidates from it.
func (w *WebpageStrategy) Extract(ctx context.Context, sourceURL string, maxPosts int) ([]domain.PostCandidate, error) {
	pageURL, err := url.Parse(sourceURL)
	if err != nil || !pageURL.IsAbs() {
		return nil, domain.Invalid("url", "invalid source url %q", sourceURL)
	}

	body, err := w.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	mainContent, err := mainText(body, pageURL)
	if err != nil {
		w.debug("no readable content", "url", sourceURL, "error", err)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: page %s: %v", domain.ErrParse, sourceURL, err)
	}

	links := FindArticleLinks(doc, pageURL)
	if len(links) == 0 {
		return []domain.PostCandidate{{
			Title:   ResolveTitle(doc),
			URL:     sourceURL,
			Content: mainContent,
			Images:  ExtractImages(doc, pageURL),
			Tags:    ExtractKeywords(doc),
		}}, nil
	}

	if maxPosts > 0 && len(links) > maxPosts {
		links = links[:maxPosts]
	}

	w.debug("article links found", "url", sourceURL, "count", len(links))

	candidates := make([]domain.PostCandidate, 0, len(links))
	for _, link := range links {
		candidate, err := w.scrapeArticle(ctx, link)
		if err != nil {
			w.warn("article scrape failed", "url", link, "error", err)
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (w *WebpageStrategy) scrapeArticle(ctx context.Context, link string) (domain.PostCandidate, error) {
	articleURL, err := url.Parse(link)
	if err != nil {
		return domain.PostCandidate{}, domain.Invalid("url", "invalid article url %q", link)
	}

	body, err := w.fetcher.Fetch(ctx, link)
	if err != nil {
		return domain.PostCandidate{}, err
	}

	content, err := mainText(body, articleURL)
	if err != nil {
		return domain.PostCandidate{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.PostCandidate{}, fmt.Errorf("%w: article %s: %v", domain.ErrParse, link, err)
	}

	return domain.PostCandidate{
		Title:   ResolveTitle(doc),
		URL:     link,
		Content: content,
		Images:  ExtractImages(doc, articleURL),
		Tags:    ExtractKeywords(doc),
	}, nil
}

// mainText runs boilerplate removal and returns the cleaned readable text.
func mainText(body []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: readability: %v", domain.ErrParse, err)
	}
	text := CleanHTML(article.Content)
	if text == "" {
		return "", fmt.Errorf("%w: no readable content in %s", domain.ErrParse, pageURL)
	}
	return text, nil
}

func (w *WebpageStrategy) debug(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}

func (w *WebpageStrategy) warn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}
