package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

// RewriteOptions selects what the rewrite collaborator is asked to do.
type RewriteOptions struct {
	OptimizeSEO        bool
	ImproveReadability bool
	GenerateMeta       bool
	SuggestTags        bool
}

// DefaultRewriteOptions enables every option.
func DefaultRewriteOptions() RewriteOptions {
	return RewriteOptions{OptimizeSEO: true, ImproveReadability: true, GenerateMeta: true, SuggestTags: true}
}

// Rewriting moves extracted posts through the external rewriter.
type Rewriting struct {
	posts    ports.PostRepository
	rewriter ports.Rewriter
	logger   *slog.Logger
}

// NewRewriting wires the rewriter with storage.
func NewRewriting(posts ports.PostRepository, rewriter ports.Rewriter, log *slog.Logger) *Rewriting {
	return &Rewriting{posts: posts, rewriter: rewriter, logger: log}
}

// RewriteBatch rewrites up to limit extracted posts, one at a time. A failed
// rewrite leaves the post extracted so it can be retried.
func (r *Rewriting) RewriteBatch(ctx context.Context, limit int, opts RewriteOptions) (domain.BatchReport, error) {
	report := domain.BatchReport{Operation: "rewrite"}
	if limit < 1 {
		return report, domain.Invalid("limit", "must be at least 1, got %d", limit)
	}

	posts, err := r.posts.ListPostsByStatus(ctx, domain.StatusExtracted, limit)
	if err != nil {
		return report, fmt.Errorf("list extracted posts: %w", err)
	}

	for _, post := range posts {
		result, err := r.rewriter.Rewrite(ctx, domain.RewriteRequest{
			Title:              post.Title,
			Content:            post.Content,
			OptimizeSEO:        opts.OptimizeSEO,
			ImproveReadability: opts.ImproveReadability,
			GenerateMeta:       opts.GenerateMeta,
			SuggestTags:        opts.SuggestTags,
		})
		if err != nil {
			r.warn("rewrite failed", "post_id", post.ID, "error", err)
			report.Failure(post.ID, post.Title, err)
			continue
		}
		if err := r.posts.MarkRewritten(ctx, post.ID, result); err != nil {
			r.warn("store rewrite failed", "post_id", post.ID, "error", err)
			report.Failure(post.ID, post.Title, err)
			continue
		}
		report.Success(post.ID, result.Title, "")
	}

	return report, nil
}

func (r *Rewriting) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
