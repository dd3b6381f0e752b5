package models

import (
	"fmt"
	"time"
)

// RunRecord is the journal entry of one daily run.
type RunRecord struct {
	RunID       string
	Sequence    int
	Worksheet   string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Added       int
	Merged      int
	Disappeared int
	Failures    int
}

var _ Model = (*RunRecord)(nil)

func (r *RunRecord) ID() string           { return r.RunID }
func (r *RunRecord) CreatedAt() time.Time { return r.StartedAt }

func (r *RunRecord) UpdatedAt() time.Time {
	if r.FinishedAt != nil {
		return *r.FinishedAt
	}
	return r.StartedAt
}

func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.Worksheet == "" {
		return fmt.Errorf("worksheet is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("start time is required")
	}
	if r.FinishedAt != nil && r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("run finished before it started")
	}
	return nil
}

// Finish stamps the end time and totals.
func (r *RunRecord) Finish(at time.Time, added, merged, disappeared, failures int) {
	r.FinishedAt = &at
	r.Added = added
	r.Merged = merged
	r.Disappeared = disappeared
	r.Failures = failures
}
