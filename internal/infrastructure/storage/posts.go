package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"BlogMigrator/internal/domain"
)

const unknownSource = "Unknown"

var postColumns = []string{
	"p.id", "p.source_id", "COALESCE(s.name, '')", "p.title", "p.content", "p.source_url",
	"p.rewritten_title", "p.rewritten_content", "p.meta_description",
	"p.images", "p.tags", "p.suggested_tags", "p.status", "p.scheduled_time",
	"p.published_url", "p.created_at", "p.updated_at",
}

// IsDuplicate reports whether a post with the same title or the same source
// URL is already stored.
func (r *SQLRepository) IsDuplicate(ctx context.Context, title, sourceURL string) (bool, error) {
	row, err := queryRow(ctx, r.db, r.sb.Select("COUNT(*)").From("posts").
		Where(sq.Or{sq.Eq{"title": title}, sq.Eq{"source_url": sourceURL}}))
	if err != nil {
		return false, err
	}
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("count duplicates: %w", err)
	}
	return count > 0, nil
}

// AddPost stores a candidate in the extracted state and returns its id.
func (r *SQLRepository) AddPost(ctx context.Context, sourceID string, candidate domain.PostCandidate) (string, error) {
	images, err := encodeList(candidate.Images)
	if err != nil {
		return "", err
	}
	tags, err := encodeList(candidate.Tags)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	stamp := r.timestamp()
	_, err = exec(ctx, r.db, r.sb.Insert("posts").
		Columns("id", "source_id", "title", "content", "source_url", "images", "tags",
			"suggested_tags", "status", "created_at", "updated_at").
		Values(id, sourceID, candidate.Title, candidate.Content, candidate.URL, images, tags,
			"[]", string(domain.StatusExtracted), stamp, stamp))
	if err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// GetPost loads a single post.
func (r *SQLRepository) GetPost(ctx context.Context, id string) (domain.Post, error) {
	posts, err := r.selectPosts(ctx, r.postQuery().Where(sq.Eq{"p.id": id}))
	if err != nil {
		return domain.Post{}, err
	}
	if len(posts) == 0 {
		return domain.Post{}, fmt.Errorf("%w: post %s", domain.ErrNotFound, id)
	}
	return posts[0], nil
}

// ListPostsByStatus returns posts in status, newest first. A non-positive
// limit returns all of them.
func (r *SQLRepository) ListPostsByStatus(ctx context.Context, status domain.PostStatus, limit int) ([]domain.Post, error) {
	b := r.postQuery().Where(sq.Eq{"p.status": string(status)}).OrderBy("p.created_at DESC", "p.id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return r.selectPosts(ctx, b)
}

// ListPostsBySource returns a source's posts, optionally filtered by status.
func (r *SQLRepository) ListPostsBySource(ctx context.Context, sourceID string, status domain.PostStatus) ([]domain.Post, error) {
	b := r.postQuery().Where(sq.Eq{"p.source_id": sourceID}).OrderBy("p.created_at DESC", "p.id")
	if status != "" {
		b = b.Where(sq.Eq{"p.status": string(status)})
	}
	return r.selectPosts(ctx, b)
}

// ListDuePosts returns scheduled posts whose slot is at or before now,
// earliest slot first.
func (r *SQLRepository) ListDuePosts(ctx context.Context, now time.Time) ([]domain.Post, error) {
	b := r.postQuery().
		Where(sq.Eq{"p.status": string(domain.StatusScheduled)}).
		Where(sq.LtOrEq{"p.scheduled_time": formatTime(now)}).
		OrderBy("p.scheduled_time ASC", "p.id")
	return r.selectPosts(ctx, b)
}

// RecentPosts returns the most recently updated posts with their source name.
func (r *SQLRepository) RecentPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	b := r.postQuery().OrderBy("p.updated_at DESC", "p.id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	posts, err := r.selectPosts(ctx, b)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].SourceName == "" {
			posts[i].SourceName = unknownSource
		}
	}
	return posts, nil
}

// LatestScheduledTime returns the furthest slot already assigned, if any.
func (r *SQLRepository) LatestScheduledTime(ctx context.Context) (time.Time, bool, error) {
	row, err := queryRow(ctx, r.db, r.sb.Select("MAX(scheduled_time)").From("posts").
		Where(sq.Eq{"status": string(domain.StatusScheduled)}))
	if err != nil {
		return time.Time{}, false, err
	}
	var latest sql.NullString
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("max scheduled time: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return time.Time{}, false, nil
	}
	t, err := parseTime(latest.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// MarkRewritten stores rewrite output and moves the post to rewritten.
func (r *SQLRepository) MarkRewritten(ctx context.Context, id string, result domain.RewriteResult) error {
	tags, err := encodeList(result.Tags)
	if err != nil {
		return err
	}
	return r.transition(ctx, id, domain.StatusRewritten, map[string]any{
		"rewritten_title":   result.Title,
		"rewritten_content": result.Content,
		"meta_description":  result.MetaDescription,
		"suggested_tags":    tags,
	})
}

// MarkScheduled assigns a publishing slot.
func (r *SQLRepository) MarkScheduled(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, id, domain.StatusScheduled, map[string]any{
		"scheduled_time": formatTime(at),
	})
}

// MarkPublished records the destination reference.
func (r *SQLRepository) MarkPublished(ctx context.Context, id string, publishedURL string) error {
	return r.transition(ctx, id, domain.StatusPublished, map[string]any{
		"published_url": publishedURL,
	})
}

// MarkFailed records the failure message in the meta description column.
func (r *SQLRepository) MarkFailed(ctx context.Context, id string, message string) error {
	return r.transition(ctx, id, domain.StatusFailed, map[string]any{
		"meta_description": message,
	})
}

// transition applies a guarded update: the row only changes when its current
// status is one the target may be entered from.
func (r *SQLRepository) transition(ctx context.Context, id string, to domain.PostStatus, set map[string]any) error {
	allowed := make([]string, 0, len(domain.AllowedFrom(to)))
	for _, s := range domain.AllowedFrom(to) {
		allowed = append(allowed, string(s))
	}

	set["status"] = string(to)
	set["updated_at"] = r.timestamp()

	res, err := exec(ctx, r.db, r.sb.Update("posts").SetMap(set).
		Where(sq.Eq{"id": id, "status": allowed}))
	if err != nil {
		return fmt.Errorf("update post %s to %s: %w", id, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := r.GetPost(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: post %s is %s, cannot become %s", domain.ErrInvalidTransition, id, current.Status, to)
}

// Statistics counts sources and posts per progress bucket.
func (r *SQLRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	pending := make([]string, 0, len(domain.PendingStatuses))
	for _, s := range domain.PendingStatuses {
		pending = append(pending, string(s))
	}

	var stats domain.Statistics
	counts := []struct {
		dst *int
		b   sq.SelectBuilder
	}{
		{&stats.TotalSources, r.sb.Select("COUNT(*)").From("sources")},
		{&stats.TotalExtracted, r.sb.Select("COUNT(*)").From("posts").Where(sq.Eq{"status": string(domain.StatusExtracted)})},
		{&stats.TotalPublished, r.sb.Select("COUNT(*)").From("posts").Where(sq.Eq{"status": string(domain.StatusPublished)})},
		{&stats.TotalPending, r.sb.Select("COUNT(*)").From("posts").Where(sq.Eq{"status": pending})},
	}
	for _, c := range counts {
		row, err := queryRow(ctx, r.db, c.b)
		if err != nil {
			return domain.Statistics{}, err
		}
		if err := row.Scan(c.dst); err != nil {
			return domain.Statistics{}, fmt.Errorf("statistics: %w", err)
		}
	}
	return stats, nil
}

// ClearAll deletes every post and source. Publish configs are kept.
func (r *SQLRepository) ClearAll(ctx context.Context) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"posts", "sources"} {
			if _, err := exec(ctx, tx, r.sb.Delete(table)); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func (r *SQLRepository) postQuery() sq.SelectBuilder {
	return r.sb.Select(postColumns...).From("posts p").LeftJoin("sources s ON s.id = p.source_id")
}

func (r *SQLRepository) selectPosts(ctx context.Context, b sq.SelectBuilder) ([]domain.Post, error) {
	rows, err := query(ctx, r.db, b)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return posts, nil
}

func scanPost(rows *sql.Rows) (domain.Post, error) {
	var (
		p                       domain.Post
		status                  string
		images, tags, suggested string
		scheduled               sql.NullString
		created, updated        string
	)
	err := rows.Scan(&p.ID, &p.SourceID, &p.SourceName, &p.Title, &p.Content, &p.SourceURL,
		&p.RewrittenTitle, &p.RewrittenContent, &p.MetaDescription,
		&images, &tags, &suggested, &status, &scheduled,
		&p.PublishedURL, &created, &updated)
	if err != nil {
		return domain.Post{}, fmt.Errorf("scan post: %w", err)
	}

	p.Status = domain.PostStatus(status)
	if p.Images, err = decodeList(images); err != nil {
		return domain.Post{}, err
	}
	if p.Tags, err = decodeList(tags); err != nil {
		return domain.Post{}, err
	}
	if p.SuggestedTags, err = decodeList(suggested); err != nil {
		return domain.Post{}, err
	}
	if scheduled.Valid && scheduled.String != "" {
		at, err := parseTime(scheduled.String)
		if err != nil {
			return domain.Post{}, err
		}
		p.ScheduledTime = &at
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return domain.Post{}, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Post{}, err
	}
	return p, nil
}
