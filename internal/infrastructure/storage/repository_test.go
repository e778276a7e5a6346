package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"BlogMigrator/internal/domain"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	repo, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "data", "migrator.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func addSource(t *testing.T, repo *SQLRepository, url string) domain.Source {
	t.Helper()
	source, err := repo.AddSource(context.Background(), url, "Legacy")
	if err != nil {
		t.Fatalf("add source: %v", err)
	}
	return source
}

func addPost(t *testing.T, repo *SQLRepository, sourceID, title string) string {
	t.Helper()
	id, err := repo.AddPost(context.Background(), sourceID, domain.PostCandidate{
		Title:   title,
		URL:     "https://legacy.example.com/" + title,
		Content: "body of " + title,
		Images:  []string{"https://cdn.example.com/a.png"},
		Tags:    []string{"go"},
	})
	if err != nil {
		t.Fatalf("add post: %v", err)
	}
	return id
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestSourceLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)

	source := addSource(t, repo, "https://legacy.example.com")
	if source.ID == "" || source.CreatedAt.IsZero() {
		t.Fatalf("source should have id and timestamp: %+v", source)
	}

	if _, err := repo.AddSource(ctx, "https://legacy.example.com", "Again"); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate source error, got %v", err)
	}

	addPost(t, repo, source.ID, "one")
	addPost(t, repo, source.ID, "two")

	got, err := repo.GetSource(ctx, source.ID)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if got.PostCount != 2 {
		t.Fatalf("expected 2 posts counted, got %d", got.PostCount)
	}

	if err := repo.DeleteSource(ctx, source.ID); err != nil {
		t.Fatalf("delete source: %v", err)
	}
	posts, err := repo.ListPostsBySource(ctx, source.ID, "")
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("posts must be deleted with their source, %d left", len(posts))
	}
	if _, err := repo.GetSource(ctx, source.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.DeleteSource(ctx, source.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleting twice should report not found, got %v", err)
	}
}

func TestIsDuplicateMatchesTitleOrURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	source := addSource(t, repo, "https://legacy.example.com")
	addPost(t, repo, source.ID, "hello")

	cases := []struct {
		title, url string
		want       bool
	}{
		{"hello", "https://elsewhere.example.com/x", true},
		{"different", "https://legacy.example.com/hello", true},
		{"different", "https://legacy.example.com/other", false},
	}
	for _, tc := range cases {
		got, err := repo.IsDuplicate(ctx, tc.title, tc.url)
		if err != nil {
			t.Fatalf("is duplicate: %v", err)
		}
		if got != tc.want {
			t.Errorf("IsDuplicate(%q, %q) = %v, want %v", tc.title, tc.url, got, tc.want)
		}
	}
}

func TestPostRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	source := addSource(t, repo, "https://legacy.example.com")
	id := addPost(t, repo, source.ID, "hello")

	post, err := repo.GetPost(ctx, id)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post.Status != domain.StatusExtracted || post.SourceName != "Legacy" {
		t.Fatalf("unexpected post: %+v", post)
	}
	if len(post.Images) != 1 || len(post.Tags) != 1 || post.Tags[0] != "go" {
		t.Fatalf("lists not restored: %+v", post)
	}
	if post.ScheduledTime != nil {
		t.Fatalf("new post must not be scheduled")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	source := addSource(t, repo, "https://legacy.example.com")
	id := addPost(t, repo, source.ID, "hello")

	if err := repo.MarkScheduled(ctx, id, time.Now()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("extracted posts cannot be scheduled, got %v", err)
	}
	if err := repo.MarkPublished(ctx, id, "https://blog/x"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("extracted posts cannot be published, got %v", err)
	}

	err := repo.MarkRewritten(ctx, id, domain.RewriteResult{
		Title: "Hello Again", Content: "better body", MetaDescription: "meta", Tags: []string{"seo"},
	})
	if err != nil {
		t.Fatalf("mark rewritten: %v", err)
	}
	if err := repo.MarkRewritten(ctx, id, domain.RewriteResult{}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("rewriting twice must be rejected, got %v", err)
	}

	slot := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)
	if err := repo.MarkScheduled(ctx, id, slot); err != nil {
		t.Fatalf("mark scheduled: %v", err)
	}
	if err := repo.MarkPublished(ctx, id, "https://blog.example.com/hello"); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := repo.MarkFailed(ctx, id, "late failure"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("published is terminal, got %v", err)
	}

	post, err := repo.GetPost(ctx, id)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post.Status != domain.StatusPublished || post.PublishedURL != "https://blog.example.com/hello" {
		t.Fatalf("unexpected post: %+v", post)
	}
	if post.RewrittenTitle != "Hello Again" || post.DisplayTitle() != "Hello Again" {
		t.Fatalf("rewrite not stored: %+v", post)
	}
	if post.ScheduledTime == nil || !post.ScheduledTime.Equal(slot) {
		t.Fatalf("scheduled time not stored: %v", post.ScheduledTime)
	}

	if err := repo.MarkRewritten(ctx, "missing", domain.RewriteResult{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestMarkFailedKeepsMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	source := addSource(t, repo, "https://legacy.example.com")
	id := addPost(t, repo, source.ID, "hello")

	if err := repo.MarkFailed(ctx, id, "smtp down"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	post, err := repo.GetPost(ctx, id)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post.Status != domain.StatusFailed || post.MetaDescription != "smtp down" {
		t.Fatalf("unexpected failed post: %+v", post)
	}
	if err := repo.MarkRewritten(ctx, id, domain.RewriteResult{}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("failed is terminal, got %v", err)
	}
}

func TestDuePostsAndLatestSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	source := addSource(t, repo, "https://legacy.example.com")

	if _, ok, err := repo.LatestScheduledTime(ctx); err != nil || ok {
		t.Fatalf("no slots expected, ok=%v err=%v", ok, err)
	}

	base := time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, title := range []string{"a", "b", "c"} {
		id := addPost(t, repo, source.ID, title)
		if err := repo.MarkRewritten(ctx, id, domain.RewriteResult{Title: title}); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		if err := repo.MarkScheduled(ctx, id, base.Add(time.Duration(i)*2*time.Hour)); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}

	due, err := repo.ListDuePosts(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("due posts: %v", err)
	}
	if len(due) != 2 || due[0].Title != "a" || due[1].Title != "b" {
		t.Fatalf("unexpected due posts: %+v", due)
	}

	latest, ok, err := repo.LatestScheduledTime(ctx)
	if err != nil || !ok {
		t.Fatalf("latest slot: ok=%v err=%v", ok, err)
	}
	if !latest.Equal(base.Add(4 * time.Hour)) {
		t.Fatalf("unexpected latest slot %v", latest)
	}
}

func TestStatisticsAndClearAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	source := addSource(t, repo, "https://legacy.example.com")
	addSource(t, repo, "https://other.example.com")

	published := addPost(t, repo, source.ID, "p")
	failed := addPost(t, repo, source.ID, "f")
	addPost(t, repo, source.ID, "pending")

	if err := repo.MarkRewritten(ctx, published, domain.RewriteResult{}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := repo.MarkPublished(ctx, published, "https://blog/p"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := repo.MarkFailed(ctx, failed, "boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	stats, err := repo.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	want := domain.Statistics{TotalSources: 2, TotalExtracted: 1, TotalPublished: 1, TotalPending: 1}
	if stats != want {
		t.Fatalf("got %+v, want %+v", stats, want)
	}

	recent, err := repo.RecentPosts(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].SourceName != "Legacy" {
		t.Fatalf("unexpected recent posts: %+v", recent)
	}

	if err := repo.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	stats, err = repo.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats != (domain.Statistics{}) {
		t.Fatalf("expected empty statistics after clear, got %+v", stats)
	}
}

func TestPublishConfigSingleDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.DefaultPublishConfig(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no default yet, got %v", err)
	}

	first, err := repo.AddPublishConfig(ctx, domain.PublishConfig{
		BlogName: "API blog", PublishMethod: domain.MethodAPI, BlogID: "123", APIKey: "key", IsDefault: true,
	})
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	second, err := repo.AddPublishConfig(ctx, domain.PublishConfig{
		BlogName: "Mail blog", PublishMethod: domain.MethodEmail, EmailAddress: "me.secret@blogger.com",
		SMTPUsername: "me@example.com", SMTPPassword: "pw", IsDefault: true,
	})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}

	assertSingleDefault := func(wantID string) {
		t.Helper()
		configs, err := repo.ListPublishConfigs(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		defaults := 0
		for _, c := range configs {
			if c.IsDefault {
				defaults++
				if c.ID != wantID {
					t.Fatalf("default is %s, want %s", c.ID, wantID)
				}
			}
		}
		if defaults != 1 {
			t.Fatalf("expected exactly one default, got %d", defaults)
		}
	}
	assertSingleDefault(second)

	mail, err := repo.GetPublishConfig(ctx, second)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mail.SMTPServer != domain.DefaultSMTPServer || mail.SMTPPort != domain.DefaultSMTPPort {
		t.Fatalf("smtp defaults not applied: %+v", mail)
	}

	if err := repo.SetDefaultPublishConfig(ctx, first); err != nil {
		t.Fatalf("set default: %v", err)
	}
	assertSingleDefault(first)

	if err := repo.SetDefaultPublishConfig(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	assertSingleDefault(first)

	if err := repo.DeletePublishConfig(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.DefaultPublishConfig(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted default should leave none, got %v", err)
	}
}

func TestPublishConfigDefaultIsUniqueInSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.AddPublishConfig(ctx, domain.PublishConfig{
		BlogName: "API blog", PublishMethod: domain.MethodAPI, BlogID: "123", APIKey: "key", IsDefault: true,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO blogger_configs (id, blog_name, publish_method, is_default, created_at) VALUES (?, ?, ?, 1, ?)`,
		"rogue", "Rogue", string(domain.MethodAPI), "2030-01-01T00:00:00Z")
	if err == nil {
		t.Fatalf("a second default row must be rejected by the store")
	}

	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO blogger_configs (id, blog_name, publish_method, is_default, created_at) VALUES (?, ?, ?, 0, ?)`,
		"plain", "Plain", string(domain.MethodAPI), "2030-01-01T00:00:00Z"); err != nil {
		t.Fatalf("non-default rows are unrestricted: %v", err)
	}
}
