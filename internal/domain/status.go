package domain

import "fmt"

// PostStatus enumerates pipeline milestones.
type PostStatus string

const (
	StatusExtracted PostStatus = "extracted"
	StatusRewritten PostStatus = "rewritten"
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
	StatusFailed    PostStatus = "failed"
)

// PendingStatuses are the non-terminal states counted as pending work.
var PendingStatuses = []PostStatus{StatusExtracted, StatusRewritten, StatusScheduled}

// transitions lists, per target status, the statuses it may be entered from.
var transitions = map[PostStatus][]PostStatus{
	StatusRewritten: {StatusExtracted},
	StatusScheduled: {StatusRewritten},
	StatusPublished: {StatusRewritten, StatusScheduled},
	StatusFailed:    {StatusExtracted, StatusRewritten, StatusScheduled},
}

// ParseStatus validates a status string.
func ParseStatus(value string) (PostStatus, error) {
	switch s := PostStatus(value); s {
	case StatusExtracted, StatusRewritten, StatusScheduled, StatusPublished, StatusFailed:
		return s, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", value)}
}

// Terminal reports whether no further transition may leave s.
func (s PostStatus) Terminal() bool {
	return s == StatusPublished || s == StatusFailed
}

// AllowedFrom returns the statuses a post may hold before entering target.
func AllowedFrom(target PostStatus) []PostStatus {
	return append([]PostStatus(nil), transitions[target]...)
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to PostStatus) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}
