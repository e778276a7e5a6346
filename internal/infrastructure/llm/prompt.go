package llm

import (
	"fmt"
	"strings"

	"BlogMigrator/internal/domain"
)

const (
	sectionTitle   = "REWRITTEN_TITLE:"
	sectionContent = "REWRITTEN_CONTENT:"
	sectionMeta    = "META_DESCRIPTION:"
	sectionTags    = "TAGS:"
)

// BuildPrompt renders the rewrite instructions. Optional steps are only
// listed when the matching request flag is set.
func BuildPrompt(req domain.RewriteRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the following blog post so it is unique and engaging.\n\n")
	fmt.Fprintf(&b, "**Original Title:** %s\n\n**Original Content:**\n%s\n\n", req.Title, req.Content)
	b.WriteString("**Instructions:**\n")
	b.WriteString("- Rewrite the content completely while preserving the core message and information\n")
	b.WriteString("- Make the content more engaging and natural-sounding\n")
	if req.OptimizeSEO {
		b.WriteString("- Optimize for SEO with relevant keywords naturally incorporated\n")
	}
	if req.ImproveReadability {
		b.WriteString("- Improve readability with clear paragraphs, transitions, and structure\n")
	}
	if req.GenerateMeta {
		b.WriteString("- Generate a compelling meta description (150-160 characters)\n")
	}
	if req.SuggestTags {
		b.WriteString("- Suggest 5-8 relevant tags for the post\n")
	}

	b.WriteString("\n**Output Format:**\n\n")
	b.WriteString(sectionTitle + "\n[rewritten title]\n\n")
	b.WriteString(sectionContent + "\n[complete rewritten content]\n\n")
	b.WriteString(sectionMeta + "\n[meta description, if requested]\n\n")
	b.WriteString(sectionTags + "\n[comma-separated tags, if requested]\n")
	return b.String()
}

// ParseResponse splits a sectioned answer into a RewriteResult. Blocks are
// separated by blank lines; a block without a marker continues the previous
// content or meta section. Missing title or content fall back to the
// original title and the raw answer.
func ParseResponse(text, originalTitle string) domain.RewriteResult {
	var (
		result  domain.RewriteResult
		current string
		content []string
	)

	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		switch {
		case strings.HasPrefix(block, sectionTitle):
			current = sectionTitle
			result.Title = strings.TrimSpace(strings.TrimPrefix(block, sectionTitle))
		case strings.HasPrefix(block, sectionContent):
			current = sectionContent
			if first := strings.TrimSpace(strings.TrimPrefix(block, sectionContent)); first != "" {
				content = append(content, first)
			}
		case strings.HasPrefix(block, sectionMeta):
			current = sectionMeta
			result.MetaDescription = strings.TrimSpace(strings.TrimPrefix(block, sectionMeta))
		case strings.HasPrefix(block, sectionTags):
			current = sectionTags
			result.Tags = splitTags(strings.TrimPrefix(block, sectionTags))
		case current == sectionContent:
			content = append(content, block)
		case current == sectionMeta:
			result.MetaDescription = strings.TrimSpace(result.MetaDescription + " " + block)
		}
	}

	result.Content = strings.Join(content, "\n\n")
	if result.Title == "" {
		result.Title = originalTitle
	}
	if result.Content == "" {
		result.Content = strings.TrimSpace(text)
	}
	return result
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
