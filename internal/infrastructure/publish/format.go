package publish

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const (
	maxLabels       = 20
	maxEmailImages  = 5
	bloggerMailHost = "blogger.com"
)

var (
	labelStripExpr   = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	orderedItemExpr  = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	numericBlogIDExp = regexp.MustCompile(`^\d+$`)
)

// FormatLabels keeps the first twenty labels, strips everything except ASCII
// letters, digits and spaces, and drops labels left empty.
func FormatLabels(tags []string) []string {
	if len(tags) > maxLabels {
		tags = tags[:maxLabels]
	}
	labels := make([]string, 0, len(tags))
	for _, tag := range tags {
		clean := strings.TrimSpace(labelStripExpr.ReplaceAllString(tag, ""))
		if clean != "" {
			labels = append(labels, clean)
		}
	}
	return labels
}

// ValidateBloggerEmail reports whether address looks like a Blogger
// post-by-email address: <name>.<secret>@blogger.com.
func ValidateBloggerEmail(address string) bool {
	local, domain, ok := strings.Cut(strings.TrimSpace(address), "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	if !strings.EqualFold(domain, bloggerMailHost) {
		return false
	}
	name, secret, ok := strings.Cut(local, ".")
	return ok && name != "" && secret != ""
}

// IsValidBlogID reports whether id is a numeric Blogger blog id.
func IsValidBlogID(id string) bool {
	return numericBlogIDExp.MatchString(strings.TrimSpace(id))
}

// FormatHTML renders plain text for the HTML alternative of an email post.
// Blank lines separate paragraphs; paragraphs starting with "- " or "• "
// become bullet lists and those starting with "1. " style numerals become
// ordered lists. Labels are appended as a trailing tag block.
func FormatHTML(content string, labels []string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; line-height: 1.6;">` + "\n")

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		switch {
		case isBullet(para):
			writeList(&b, "ul", bulletItems(para))
		case orderedItemExpr.MatchString(firstLine(para)):
			writeList(&b, "ol", orderedItems(para))
		default:
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(para))
		}
	}

	if len(labels) > 0 {
		escaped := make([]string, len(labels))
		for i, label := range labels {
			escaped[i] = html.EscapeString(label)
		}
		b.WriteString(`<div style="margin-top: 20px; padding: 10px; background-color: #f0f0f0; border-radius: 5px;">` + "\n")
		fmt.Fprintf(&b, `<p style="margin: 0; font-size: 14px; color: #666;"><strong>Tags:</strong> %s</p>`+"\n",
			strings.Join(escaped, ", "))
		b.WriteString("</div>\n")
	}

	b.WriteString("</div>")
	return b.String()
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "• ")
}

func firstLine(para string) string {
	line, _, _ := strings.Cut(para, "\n")
	return strings.TrimSpace(line)
}

func bulletItems(para string) []string {
	var items []string
	for _, line := range strings.Split(para, "\n") {
		line = strings.TrimSpace(line)
		if !isBullet(line) {
			continue
		}
		item := strings.TrimPrefix(strings.TrimPrefix(line, "- "), "• ")
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func orderedItems(para string) []string {
	var items []string
	for _, line := range strings.Split(para, "\n") {
		if m := orderedItemExpr.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items
}

func writeList(b *strings.Builder, tag string, items []string) {
	fmt.Fprintf(b, "<%s>\n", tag)
	for _, item := range items {
		fmt.Fprintf(b, "  <li>%s</li>\n", html.EscapeString(item))
	}
	fmt.Fprintf(b, "</%s>\n", tag)
}
