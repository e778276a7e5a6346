package usecase

import (
	"context"
	"fmt"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

// Overview is the dashboard view of the migration.
type Overview struct {
	Stats  domain.Statistics
	Recent []domain.Post
}

// LoadOverview collects statistics and the most recently updated posts.
func LoadOverview(ctx context.Context, posts ports.PostRepository, recent int) (Overview, error) {
	stats, err := posts.Statistics(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("statistics: %w", err)
	}
	if recent < 1 {
		return Overview{Stats: stats}, nil
	}
	list, err := posts.RecentPosts(ctx, recent)
	if err != nil {
		return Overview{}, fmt.Errorf("recent posts: %w", err)
	}
	return Overview{Stats: stats, Recent: list}, nil
}
