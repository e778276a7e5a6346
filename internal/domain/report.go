package domain

import (
	"fmt"
	"strings"
)

// ItemOutcome records what happened to one item of a batch.
type ItemOutcome struct {
	PostID    string
	Title     string
	Reference string
	Skipped   bool
	Err       error
}

// BatchReport aggregates per-item outcomes of a batch operation.
type BatchReport struct {
	Operation string
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	Items     []ItemOutcome
}

// Success records a completed item.
func (r *BatchReport) Success(postID, title, reference string) {
	r.Attempted++
	r.Succeeded++
	r.Items = append(r.Items, ItemOutcome{PostID: postID, Title: title, Reference: reference})
}

// Failure records an item that errored; the batch continues.
func (r *BatchReport) Failure(postID, title string, err error) {
	r.Attempted++
	r.Failed++
	r.Items = append(r.Items, ItemOutcome{PostID: postID, Title: title, Err: err})
}

// Skip records an item intentionally not processed (e.g. a duplicate).
func (r *BatchReport) Skip(title, reason string) {
	r.Attempted++
	r.Skipped++
	r.Items = append(r.Items, ItemOutcome{Title: title, Reference: reason, Skipped: true})
}

// Summary renders counts plus the error text of every failure.
func (r BatchReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: attempted=%d succeeded=%d failed=%d skipped=%d",
		r.Operation, r.Attempted, r.Succeeded, r.Failed, r.Skipped)
	for _, item := range r.Items {
		if item.Err == nil {
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %v", item.Title, item.Err)
	}
	return b.String()
}
