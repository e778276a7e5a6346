package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

const slotSpacing = 2 * time.Hour

// CreateSchedule assigns slots in input order: perDay posts per day starting
// at start, two hours apart, before moving on to the next day.
func CreateSchedule(posts []domain.Post, start time.Time, perDay int) ([]domain.ScheduleEntry, error) {
	if perDay < 1 {
		return nil, domain.Invalid("posts_per_day", "must be at least 1, got %d", perDay)
	}
	entries := make([]domain.ScheduleEntry, 0, len(posts))
	for i, post := range posts {
		dayOffset := i / perDay
		slot := i % perDay
		entries = append(entries, domain.ScheduleEntry{
			PostID:        post.ID,
			Title:         post.DisplayTitle(),
			ScheduledTime: start.AddDate(0, 0, dayOffset).Add(time.Duration(slot) * slotSpacing),
		})
	}
	return entries, nil
}

// CombineDateTime joins a YYYY-MM-DD date and an HH:MM clock time in loc.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, domain.Invalid("start", "expected YYYY-MM-DD and HH:MM, got %q %q", date, clock)
	}
	return t, nil
}

// Scheduler persists publishing slots for rewritten posts.
type Scheduler struct {
	posts ports.PostRepository
}

// NewScheduler wires the post store.
func NewScheduler(posts ports.PostRepository) *Scheduler {
	return &Scheduler{posts: posts}
}

// Apply stores each entry's slot. Entries are processed in order and a
// failing entry does not stop the rest.
func (s *Scheduler) Apply(ctx context.Context, entries []domain.ScheduleEntry) domain.BatchReport {
	report := domain.BatchReport{Operation: "schedule"}
	for _, entry := range entries {
		if err := s.posts.MarkScheduled(ctx, entry.PostID, entry.ScheduledTime); err != nil {
			report.Failure(entry.PostID, entry.Title, err)
			continue
		}
		report.Success(entry.PostID, entry.Title, entry.ScheduledTime.Format(time.RFC3339))
	}
	return report
}

// ScheduleRewritten plans and stores slots for up to limit rewritten posts.
func (s *Scheduler) ScheduleRewritten(ctx context.Context, limit int, start time.Time, perDay int) ([]domain.ScheduleEntry, domain.BatchReport, error) {
	if limit < 1 {
		return nil, domain.BatchReport{Operation: "schedule"}, domain.Invalid("limit", "must be at least 1, got %d", limit)
	}
	posts, err := s.posts.ListPostsByStatus(ctx, domain.StatusRewritten, limit)
	if err != nil {
		return nil, domain.BatchReport{Operation: "schedule"}, fmt.Errorf("list rewritten posts: %w", err)
	}
	entries, err := CreateSchedule(posts, start, perDay)
	if err != nil {
		return nil, domain.BatchReport{Operation: "schedule"}, err
	}
	return entries, s.Apply(ctx, entries), nil
}

// NextAvailableSlot returns the slot after the latest scheduled post, or
// start when nothing is scheduled. Slots already behind start are treated
// as start.
func (s *Scheduler) NextAvailableSlot(ctx context.Context, start time.Time, hoursBetween int) (time.Time, error) {
	latest, ok, err := s.posts.LatestScheduledTime(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest scheduled time: %w", err)
	}
	if !ok {
		return start, nil
	}
	if latest.Before(start) {
		latest = start
	}
	return latest.Add(time.Duration(hoursBetween) * time.Hour), nil
}
