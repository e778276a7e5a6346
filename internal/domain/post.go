package domain

import "time"

// Source is a registered legacy blog or feed that content is extracted from.
type Source struct {
	ID        string
	URL       string
	Name      string
	CreatedAt time.Time
	PostCount int
}

// PostCandidate is an unsaved, normalized extraction result.
type PostCandidate struct {
	Title   string
	URL     string
	Content string
	Images  []string
	Tags    []string
}

// Post is a stored item moving through the migration pipeline.
type Post struct {
	ID               string
	SourceID         string
	SourceName       string
	Title            string
	Content          string
	SourceURL        string
	RewrittenTitle   string
	RewrittenContent string
	MetaDescription  string
	Images           []string
	Tags             []string
	SuggestedTags    []string
	Status           PostStatus
	ScheduledTime    *time.Time
	PublishedURL     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisplayTitle prefers the rewritten title when one exists.
func (p Post) DisplayTitle() string {
	if p.RewrittenTitle != "" {
		return p.RewrittenTitle
	}
	return p.Title
}

// PublishContent prefers the rewritten content when one exists.
func (p Post) PublishContent() string {
	if p.RewrittenContent != "" {
		return p.RewrittenContent
	}
	return p.Content
}

// RewriteRequest is the input accepted by the rewrite collaborator.
type RewriteRequest struct {
	Title              string
	Content            string
	OptimizeSEO        bool
	ImproveReadability bool
	GenerateMeta       bool
	SuggestTags        bool
}

// DefaultRewriteRequest enables every rewrite option.
func DefaultRewriteRequest(title, content string) RewriteRequest {
	return RewriteRequest{
		Title:              title,
		Content:            content,
		OptimizeSEO:        true,
		ImproveReadability: true,
		GenerateMeta:       true,
		SuggestTags:        true,
	}
}

// RewriteResult is what the rewrite collaborator returns.
type RewriteResult struct {
	Title           string
	Content         string
	MetaDescription string
	Tags            []string
}

// ScheduleEntry is one assigned publishing slot.
type ScheduleEntry struct {
	PostID        string
	Title         string
	ScheduledTime time.Time
}

// Statistics summarizes migration progress.
type Statistics struct {
	TotalSources   int
	TotalExtracted int
	TotalPublished int
	TotalPending   int
}
