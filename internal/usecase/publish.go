package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

// Publishing delivers rewritten or due posts to a configured destination.
type Publishing struct {
	posts     ports.PostRepository
	configs   ports.PublishConfigRepository
	publisher ports.Publisher
	notifier  ports.Notifier
	logger    *slog.Logger
}

// PublishingDeps wires the collaborators of Publishing. Notifier is optional.
type PublishingDeps struct {
	Posts     ports.PostRepository
	Configs   ports.PublishConfigRepository
	Publisher ports.Publisher
	Notifier  ports.Notifier
	Logger    *slog.Logger
}

// NewPublishing constructs the publishing use case.
func NewPublishing(deps PublishingDeps) *Publishing {
	return &Publishing{
		posts:     deps.Posts,
		configs:   deps.Configs,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
	}
}

// PublishBatch publishes up to limit rewritten posts. An empty configID uses
// the default destination. The destination is validated before any post is
// touched. Once delivery starts the batch runs to completion even if ctx is
// cancelled.
func (p *Publishing) PublishBatch(ctx context.Context, limit int, configID string) (domain.BatchReport, error) {
	report := domain.BatchReport{Operation: "publish"}
	if limit < 1 {
		return report, domain.Invalid("limit", "must be at least 1, got %d", limit)
	}

	cfg, err := p.resolveConfig(ctx, configID)
	if err != nil {
		return report, err
	}

	posts, err := p.posts.ListPostsByStatus(ctx, domain.StatusRewritten, limit)
	if err != nil {
		return report, fmt.Errorf("list rewritten posts: %w", err)
	}

	work := context.WithoutCancel(ctx)
	p.publishAll(work, cfg, posts, &report)
	p.notify(work, report)
	return report, nil
}

// PublishDue publishes every scheduled post whose slot is at or before now,
// using the default destination. Nothing is loaded or validated when no post
// is due. Like PublishBatch, a started batch ignores cancellation.
func (p *Publishing) PublishDue(ctx context.Context, now time.Time) (domain.BatchReport, error) {
	report := domain.BatchReport{Operation: "publish-due"}

	posts, err := p.posts.ListDuePosts(ctx, now)
	if err != nil {
		return report, fmt.Errorf("list due posts: %w", err)
	}
	if len(posts) == 0 {
		return report, nil
	}

	cfg, err := p.resolveConfig(ctx, "")
	if err != nil {
		return report, err
	}

	work := context.WithoutCancel(ctx)
	p.publishAll(work, cfg, posts, &report)
	p.notify(work, report)
	return report, nil
}

func (p *Publishing) resolveConfig(ctx context.Context, configID string) (domain.PublishConfig, error) {
	var (
		cfg domain.PublishConfig
		err error
	)
	if strings.TrimSpace(configID) == "" {
		cfg, err = p.configs.DefaultPublishConfig(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return cfg, domain.Invalid("config", "no default publish config")
		}
	} else {
		cfg, err = p.configs.GetPublishConfig(ctx, configID)
	}
	if err != nil {
		return cfg, fmt.Errorf("load publish config: %w", err)
	}
	if err := p.publisher.Validate(cfg); err != nil {
		return cfg, fmt.Errorf("publish config %s: %w", cfg.BlogName, err)
	}
	return cfg, nil
}

func (p *Publishing) publishAll(ctx context.Context, cfg domain.PublishConfig, posts []domain.Post, report *domain.BatchReport) {
	for _, post := range posts {
		ref, err := p.publisher.Publish(ctx, cfg, RequestFor(post))
		if err != nil {
			p.warn("publish failed", "post_id", post.ID, "error", err)
			report.Failure(post.ID, post.DisplayTitle(), err)
			// A rejected destination says nothing about the post; leave it retryable.
			if errors.Is(err, domain.ErrValidation) {
				continue
			}
			if markErr := p.posts.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
				p.warn("mark failed", "post_id", post.ID, "error", markErr)
			}
			continue
		}
		if err := p.posts.MarkPublished(ctx, post.ID, ref); err != nil {
			p.warn("store published state failed", "post_id", post.ID, "error", err)
			report.Failure(post.ID, post.DisplayTitle(), err)
			continue
		}
		report.Success(post.ID, post.DisplayTitle(), ref)
	}
}

// RequestFor builds the destination payload for a post. Suggested tags win
// over extracted ones.
func RequestFor(post domain.Post) ports.PublishRequest {
	labels := post.SuggestedTags
	if len(labels) == 0 {
		labels = post.Tags
	}
	return ports.PublishRequest{
		Title:   post.DisplayTitle(),
		Content: post.PublishContent(),
		Labels:  labels,
		Images:  post.Images,
	}
}

func (p *Publishing) notify(ctx context.Context, report domain.BatchReport) {
	if p.notifier == nil || report.Attempted == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(report)); err != nil {
		p.warn("digest not delivered", "error", err)
	}
}

func buildDigestMessage(report domain.BatchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d published, %d failed\n", report.Operation, report.Succeeded, report.Failed)
	for _, item := range report.Items {
		if item.Err != nil {
			fmt.Fprintf(&b, "\n- %s\nError: %v\n", item.Title, item.Err)
			continue
		}
		fmt.Fprintf(&b, "\n- %s\n%s\n", item.Title, item.Reference)
	}
	return b.String()
}

func (p *Publishing) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
