package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"BlogMigrator/internal/scanner"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Legacy Blog</title>
  <link>https://legacy.example.com</link>
  <description>old posts</description>
  <item>
    <title>Feed Post One</title>
    <link>https://legacy.example.com/one</link>
    <description><![CDATA[<p>Short summary</p><img src="https://cdn.example.com/one.jpg">]]></description>
    <content:encoded><![CDATA[<p>Full <b>body</b> one</p><script>alert(1)</script>]]></content:encoded>
    <category>go</category>
    <category>migration</category>
  </item>
  <item>
    <title></title>
    <link>https://legacy.example.com/two</link>
    <description><![CDATA[<p>Only a summary</p>]]></description>
  </item>
  <item>
    <title>Feed Post Three</title>
    <link>https://legacy.example.com/three</link>
    <description>Third</description>
  </item>
</channel>
</rss>`

func longParagraphs(topic string) string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "<p>This paragraph %d discusses %s in considerable detail, explaining the background, "+
			"the trade-offs involved, and the practical lessons learned while migrating a legacy blog, "+
			"so that readers can follow along with every step of the process.</p>\n", i, topic)
	}
	return b.String()
}

type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (h *hitCounter) add(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hits == nil {
		h.hits = map[string]int{}
	}
	h.hits[path]++
}

func (h *hitCounter) get(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func TestFeedStrategyExtract(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	strategy := NewFeedStrategy(NewFetcher(server.Client(), ""), nil)
	got, err := strategy.Extract(context.Background(), server.URL, 2)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}

	first := got[0]
	if first.Title != "Feed Post One" || first.URL != "https://legacy.example.com/one" {
		t.Fatalf("unexpected first candidate: %+v", first)
	}
	if first.Content != "Full body one" {
		t.Fatalf("content should prefer the full body and be cleaned, got %q", first.Content)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "go" {
		t.Fatalf("unexpected tags: %v", first.Tags)
	}
	if len(first.Images) != 1 || first.Images[0] != "https://cdn.example.com/one.jpg" {
		t.Fatalf("unexpected images: %v", first.Images)
	}

	second := got[1]
	if second.Title != "Untitled" {
		t.Fatalf("empty titles default to Untitled, got %q", second.Title)
	}
	if second.Content != "Only a summary" {
		t.Fatalf("content should fall back to summary, got %q", second.Content)
	}
}

func TestFeedStrategyRejectsHTML(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>not a feed</p></body></html>"))
	}))
	defer server.Close()

	strategy := NewFeedStrategy(NewFetcher(server.Client(), ""), nil)
	got, err := strategy.Extract(context.Background(), server.URL, 5)
	if err == nil {
		t.Fatalf("expected parse error, got %d candidates", len(got))
	}
}

func TestFeedTakesPrecedenceOverWebpage(t *testing.T) {
	t.Parallel()

	counter := &hitCounter{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.add(r.URL.Path)
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "")
	chain := scanner.NewChain(nil, NewFeedStrategy(fetcher, nil), NewWebpageStrategy(fetcher, nil))

	got := chain.Extract(context.Background(), server.URL+"/blog", 10)
	if len(got) != 3 {
		t.Fatalf("expected the 3 feed entries, got %d", len(got))
	}
	for i, title := range []string{"Feed Post One", "Untitled", "Feed Post Three"} {
		if got[i].Title != title {
			t.Fatalf("candidate %d: got %q, want %q", i, got[i].Title, title)
		}
	}
	if hits := counter.get("/blog"); hits != 1 {
		t.Fatalf("webpage strategy must not fetch the source again, hits=%d", hits)
	}
}

func TestWebpageStrategyScrapesFilteredLinks(t *testing.T) {
	t.Parallel()

	counter := &hitCounter{}
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		counter.add(r.URL.Path)
		fmt.Fprintf(w, `<html><head><title>Listing</title></head><body>
		<article><h2><a href="/posts/alpha">Alpha</a></h2>%s</article>
		<article><a href="/tag/x">tag x</a><a href="/category/y">category y</a><a href="/page/2">older</a></article>
		<div class="post"><a href="%s/posts/beta">Beta</a></div>
		<div class="entry"><a href="https://external.example.org/posts/gamma">Gamma</a></div>
		</body></html>`, longParagraphs("the listing"), server.URL)
	})
	article := func(title, keywords string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			counter.add(r.URL.Path)
			fmt.Fprintf(w, `<html><head><title>%s | Blog</title><meta name="keywords" content="%s"></head>
			<body><article><h1>%s</h1><img src="/img/%s.png">%s</article></body></html>`,
				title, keywords, title, strings.ToLower(title), longParagraphs(title))
		}
	}
	mux.HandleFunc("/posts/alpha", article("Alpha", "one, two"))
	mux.HandleFunc("/posts/beta", article("Beta", "three"))
	for _, excluded := range []string{"/tag/x", "/category/y", "/page/2"} {
		path := excluded
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			counter.add(path)
			_, _ = w.Write([]byte("<html><body>" + longParagraphs("excluded") + "</body></html>"))
		})
	}

	server = httptest.NewServer(mux)
	defer server.Close()

	strategy := NewWebpageStrategy(NewFetcher(server.Client(), ""), nil)
	got, err := strategy.Extract(context.Background(), server.URL+"/", 10)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 scraped articles, got %d: %+v", len(got), got)
	}

	if got[0].Title != "Alpha" || got[0].URL != server.URL+"/posts/alpha" {
		t.Fatalf("unexpected first article: %+v", got[0])
	}
	if got[1].Title != "Beta" || len(got[1].Tags) != 1 || got[1].Tags[0] != "three" {
		t.Fatalf("unexpected second article: %+v", got[1])
	}
	if len(got[0].Images) != 1 || got[0].Images[0] != server.URL+"/img/alpha.png" {
		t.Fatalf("unexpected images: %v", got[0].Images)
	}
	if !strings.Contains(got[0].Content, "discusses Alpha") {
		t.Fatalf("content should come from the article body, got %q", got[0].Content)
	}

	for _, excluded := range []string{"/tag/x", "/category/y", "/page/2"} {
		if counter.get(excluded) != 0 {
			t.Fatalf("excluded link %s must never be scraped", excluded)
		}
	}
}

func TestWebpageStrategyWholePageFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Solo</title><meta property="og:title" content="Solo Post">
		<meta name="keywords" content="solo"></head><body><div id="content">%s</div></body></html>`,
			longParagraphs("a single page"))
	}))
	defer server.Close()

	strategy := NewWebpageStrategy(NewFetcher(server.Client(), ""), nil)
	got, err := strategy.Extract(context.Background(), server.URL, 10)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected whole page as one candidate, got %d", len(got))
	}
	if got[0].Title != "Solo Post" || got[0].URL != server.URL {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
}

func TestWebpageStrategyFetchFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	chain := scanner.NewChain(nil,
		NewFeedStrategy(NewFetcher(server.Client(), ""), nil),
		NewWebpageStrategy(NewFetcher(server.Client(), ""), nil),
	)
	if got := chain.Extract(context.Background(), server.URL, 5); len(got) != 0 {
		t.Fatalf("unreachable source should produce no candidates, got %d", len(got))
	}
}
