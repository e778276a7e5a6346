package scanner

import (
	"context"
	"errors"
	"testing"

	"BlogMigrator/internal/domain"
)

type stubStrategy struct {
	name   string
	result []domain.PostCandidate
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(ctx context.Context, sourceURL string, maxPosts int) ([]domain.PostCandidate, error) {
	s.calls++
	return s.result, s.err
}

func TestChainStopsAtFirstNonEmpty(t *testing.T) {
	t.Parallel()

	feed := &stubStrategy{name: "feed", result: []domain.PostCandidate{{Title: "From feed"}}}
	page := &stubStrategy{name: "webpage", result: []domain.PostCandidate{{Title: "From page"}}}

	chain := NewChain(nil, feed, page)
	got := chain.Extract(context.Background(), "https://blog.example", 5)

	if len(got) != 1 || got[0].Title != "From feed" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if page.calls != 0 {
		t.Fatalf("webpage strategy must not run when feed yields entries")
	}
}

func TestChainFallsBackOnEmptyOrError(t *testing.T) {
	t.Parallel()

	feed := &stubStrategy{name: "feed", err: errors.New("not a feed")}
	empty := &stubStrategy{name: "empty"}
	page := &stubStrategy{name: "webpage", result: []domain.PostCandidate{{Title: "From page"}}}

	chain := NewChain(nil, feed, empty, page)

	got := chain.Extract(context.Background(), "https://blog.example", 5)
	if len(got) != 1 || got[0].Title != "From page" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if feed.calls != 1 || empty.calls != 1 || page.calls != 1 {
		t.Fatalf("each strategy should run once, got %d %d %d", feed.calls, empty.calls, page.calls)
	}
}
