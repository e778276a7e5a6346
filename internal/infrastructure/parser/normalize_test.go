package parser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestCleanHTML(t *testing.T) {
	t.Parallel()

	raw := `<div><script>var x = 1;</script><style>p{}</style>
	<p>Hello   <b>world</b></p>

	<p>Second
	paragraph</p><link rel="stylesheet" href="a.css"></div>`

	got := CleanHTML(raw)
	if got != "Hello world Second paragraph" {
		t.Fatalf("unexpected text: %q", got)
	}
	if CleanHTML("   ") != "" {
		t.Fatalf("blank input should produce empty text")
	}
}

func TestResolveTitleOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		html string
		want string
	}{
		{"h1 wins", `<html><head><title>Doc</title><meta property="og:title" content="OG"></head><body><h1> Main  Title </h1></body></html>`, "Main Title"},
		{"og title next", `<html><head><title>Doc</title><meta property="og:title" content="OG Title"></head><body></body></html>`, "OG Title"},
		{"document title", `<html><head><title>Doc Title</title></head><body></body></html>`, "Doc Title"},
		{"default", `<html><body><p>nothing</p></body></html>`, "Untitled Post"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveTitle(mustDoc(t, tc.html)); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractImages(t *testing.T) {
	t.Parallel()

	html := `<body>
	<img src="https://cdn.example.com/1.png">
	<img src="/relative/2.png">
	<img data-src="http://cdn.example.com/3.png">
	<img src="data:image/png;base64,AAAA">
	<img src="https://cdn.example.com/1.png">
	<img src="https://cdn.example.com/4.png">
	<img src="https://cdn.example.com/5.png">
	<img src="https://cdn.example.com/6.png">
	</body>`

	got := ExtractImages(mustDoc(t, html), mustURL(t, "https://blog.example.com/post"))
	want := []string{
		"https://cdn.example.com/1.png",
		"https://blog.example.com/relative/2.png",
		"http://cdn.example.com/3.png",
		"https://cdn.example.com/1.png",
		"https://cdn.example.com/4.png",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected images:\n got %v\nwant %v", got, want)
	}

	if got := ExtractImagesFromHTML(`<img src="/only/relative.png">`, nil); len(got) != 0 {
		t.Fatalf("relative images without base must be dropped, got %v", got)
	}
}

func TestExtractKeywords(t *testing.T) {
	t.Parallel()

	html := `<head><meta name="keywords" content="go, web , ,a,b,c,d,e,f,g,h,i,j"></head>`
	got := ExtractKeywords(mustDoc(t, html))
	if len(got) != 10 {
		t.Fatalf("expected 10 keywords, got %d: %v", len(got), got)
	}
	if got[0] != "go" || got[1] != "web" {
		t.Fatalf("keywords should be trimmed: %v", got)
	}
}

func TestIsArticleURL(t *testing.T) {
	t.Parallel()

	base := mustURL(t, "https://blog.example.com/")
	cases := map[string]bool{
		"https://blog.example.com/2024/01/hello":   true,
		"https://other.example.com/2024/01/hello":  false,
		"https://blog.example.com/tag/go":          false,
		"https://blog.example.com/Category/news":   false,
		"https://blog.example.com/author/jo":       false,
		"https://blog.example.com/page/2":          false,
		"https://blog.example.com/search/?q=x":     false,
		"https://blog.example.com/feed/":           false,
		"https://blog.example.com/rss/":            false,
		"https://blog.example.com/post#comments":   false,
		"https://blog.example.com/login":           false,
		"https://blog.example.com/register":        false,
		"https://blog.example.com/archive/2023/":   false,
		"/relative/path":                           false,
	}
	for link, want := range cases {
		if got := IsArticleURL(link, base); got != want {
			t.Errorf("IsArticleURL(%q) = %v, want %v", link, got, want)
		}
	}
}

func TestFindArticleLinks(t *testing.T) {
	t.Parallel()

	html := `<body>
	<article><a href="/posts/first">First</a><a href="/tag/x">tag</a></article>
	<div class="post"><a href="https://blog.example.com/posts/second">Second</a></div>
	<h2><a href="/posts/first">First again</a></h2>
	<h3><a href="/category/y">cat</a></h3>
	<div class="entry"><a href="https://elsewhere.example.com/posts/x">external</a></div>
	<div class="blog-post"><a href="/page/2">next</a><a href="#top">top</a></div>
	<nav><a href="/posts/not-in-selector">nav</a></nav>
	</body>`

	got := FindArticleLinks(mustDoc(t, html), mustURL(t, "https://blog.example.com/"))
	want := []string{
		"https://blog.example.com/posts/first",
		"https://blog.example.com/posts/second",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected links:\n got %v\nwant %v", got, want)
	}
}
