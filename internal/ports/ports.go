package ports

import (
	"context"
	"time"

	"BlogMigrator/internal/domain"
)

// SourceRepository stores registered legacy blogs.
type SourceRepository interface {
	AddSource(ctx context.Context, url, name string) (domain.Source, error)
	GetSource(ctx context.Context, id string) (domain.Source, error)
	ListSources(ctx context.Context) ([]domain.Source, error)
	DeleteSource(ctx context.Context, id string) error
}

// PostRepository stores posts and enforces the lifecycle on every update.
type PostRepository interface {
	IsDuplicate(ctx context.Context, title, sourceURL string) (bool, error)
	AddPost(ctx context.Context, sourceID string, candidate domain.PostCandidate) (string, error)
	GetPost(ctx context.Context, id string) (domain.Post, error)
	ListPostsByStatus(ctx context.Context, status domain.PostStatus, limit int) ([]domain.Post, error)
	ListPostsBySource(ctx context.Context, sourceID string, status domain.PostStatus) ([]domain.Post, error)
	ListDuePosts(ctx context.Context, now time.Time) ([]domain.Post, error)
	RecentPosts(ctx context.Context, limit int) ([]domain.Post, error)
	LatestScheduledTime(ctx context.Context) (time.Time, bool, error)
	MarkRewritten(ctx context.Context, id string, result domain.RewriteResult) error
	MarkScheduled(ctx context.Context, id string, at time.Time) error
	MarkPublished(ctx context.Context, id string, publishedURL string) error
	MarkFailed(ctx context.Context, id string, message string) error
	Statistics(ctx context.Context) (domain.Statistics, error)
	ClearAll(ctx context.Context) error
}

// PublishConfigRepository keeps destinations and the single-default invariant.
type PublishConfigRepository interface {
	AddPublishConfig(ctx context.Context, cfg domain.PublishConfig) (string, error)
	GetPublishConfig(ctx context.Context, id string) (domain.PublishConfig, error)
	DefaultPublishConfig(ctx context.Context) (domain.PublishConfig, error)
	ListPublishConfigs(ctx context.Context) ([]domain.PublishConfig, error)
	SetDefaultPublishConfig(ctx context.Context, id string) error
	DeletePublishConfig(ctx context.Context, id string) error
}

// Extractor turns a source URL into normalized post candidates.
type Extractor interface {
	Extract(ctx context.Context, sourceURL string, maxPosts int) []domain.PostCandidate
}

// Rewriter is the external text-rewriting collaborator.
type Rewriter interface {
	Rewrite(ctx context.Context, req domain.RewriteRequest) (domain.RewriteResult, error)
}

// PublishRequest carries what a destination needs to create a post.
type PublishRequest struct {
	Title   string
	Content string
	Labels  []string
	Images  []string
}

// Publisher delivers a post to a configured destination and returns a reference.
type Publisher interface {
	Validate(cfg domain.PublishConfig) error
	Publish(ctx context.Context, cfg domain.PublishConfig, req PublishRequest) (string, error)
}

// Notifier streams batch summaries to an operator channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Ticker controls when recurring jobs execute.
type Ticker interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
