package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	maxImages      = 5
	maxKeywords    = 10
	untitledPost   = "Untitled Post"
	untitledEntry  = "Untitled"
	keywordsMeta   = `meta[name="keywords"]`
	openGraphTitle = `meta[property="og:title"]`
)

// articleSelectors locate candidate article links on a listing page.
var articleSelectors = []string{
	"article a[href]",
	".post a[href]",
	".entry a[href]",
	"h2 a[href]",
	"h3 a[href]",
	".blog-post a[href]",
}

var excludedLinkExpr = regexp.MustCompile(`(?i)/tag/|/category/|/author/|/page/|/search/|/feed/|/rss/|#|/login|/register|/archive/`)

// CleanHTML strips script/style/meta/link nodes and returns the visible text
// with whitespace runs collapsed to single spaces.
func CleanHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseWhitespace(raw)
	}
	return documentText(doc.Selection)
}

func documentText(sel *goquery.Selection) string {
	sel.Find("script, style, meta, link").Remove()

	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}
	return collapseWhitespace(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ResolveTitle tries the first h1, then og:title, then <title>.
func ResolveTitle(doc *goquery.Document) string {
	if title := collapseWhitespace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if content, ok := doc.Find(openGraphTitle).First().Attr("content"); ok {
		if title := strings.TrimSpace(content); title != "" {
			return title
		}
	}
	if title := collapseWhitespace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return untitledPost
}

// ExtractImages returns up to five absolute http(s) image URLs in document
// order. Relative sources are resolved against base when it is non-nil.
func ExtractImages(doc *goquery.Document, base *url.URL) []string {
	var images []string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		if strings.TrimSpace(src) == "" {
			src, _ = img.Attr("data-src")
		}
		if resolved, ok := absoluteHTTP(src, base); ok {
			images = append(images, resolved)
		}
		return len(images) < maxImages
	})
	return images
}

// ExtractImagesFromHTML is ExtractImages over a raw HTML fragment.
func ExtractImagesFromHTML(raw string, base *url.URL) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}
	return ExtractImages(doc, base)
}

// ExtractKeywords reads the keywords meta tag, capped at ten entries.
func ExtractKeywords(doc *goquery.Document) []string {
	content, ok := doc.Find(keywordsMeta).First().Attr("content")
	if !ok {
		return nil
	}
	var keywords []string
	for _, k := range strings.Split(content, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// FindArticleLinks collects same-domain, non-excluded links reachable through
// the article selectors. Order of first appearance is preserved.
func FindArticleLinks(doc *goquery.Document, base *url.URL) []string {
	seen := map[string]struct{}{}
	var links []string
	for _, selector := range articleSelectors {
		doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			href = strings.TrimSpace(href)
			if href == "" {
				return
			}
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			full := base.ResolveReference(ref).String()
			if !IsArticleURL(full, base) {
				return
			}
			if _, ok := seen[full]; ok {
				return
			}
			seen[full] = struct{}{}
			links = append(links, full)
		})
	}
	return links
}

// IsArticleURL reports whether link is on the same host as base and does not
// match any excluded path pattern.
func IsArticleURL(link string, base *url.URL) bool {
	parsed, err := url.Parse(link)
	if err != nil || !parsed.IsAbs() {
		return false
	}
	if base == nil || parsed.Host != base.Host {
		return false
	}
	return !excludedLinkExpr.MatchString(link)
}

func absoluteHTTP(src string, base *url.URL) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	if !ref.IsAbs() {
		if base == nil {
			return "", false
		}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}
