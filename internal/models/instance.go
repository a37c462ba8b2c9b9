package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/dayplan/internal/shared"
)

// TaskInstance is a single materialized occurrence of a recurring task.
//
// Instances are created by the synchronizer, snapshotting the parent task's
// title, description and priority. Once a user edits an instance its
// modified flag freezes it: regeneration never deletes or alters it again.
type TaskInstance struct {
	id           string
	parentTaskID string
	recurrenceID string
	scheduledAt  time.Time
	title        string
	description  string
	priority     Priority
	status       Status
	modified     bool
	completedAt  *time.Time
	skippedAt    *time.Time
	canceledAt   *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewTaskInstance snapshots the parent task into an instance scheduled at the
// given time. Status is always reset to planned regardless of the parent's state.
func NewTaskInstance(task *Task, recurrenceID string, scheduledAt time.Time) *TaskInstance {
	now := time.Now()
	return &TaskInstance{
		parentTaskID: task.ID(),
		recurrenceID: recurrenceID,
		scheduledAt:  scheduledAt,
		title:        task.Title(),
		description:  task.Description(),
		priority:     task.Priority(),
		status:       StatusPlanned,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (i *TaskInstance) ID() string                   { return i.id }
func (i *TaskInstance) SetID(id string)              { i.id = id }
func (i *TaskInstance) ParentTaskID() string         { return i.parentTaskID }
func (i *TaskInstance) RecurrenceID() string         { return i.recurrenceID }
func (i *TaskInstance) ScheduledAt() time.Time       { return i.scheduledAt }
func (i *TaskInstance) SetScheduledAt(v time.Time)   { i.scheduledAt = v }
func (i *TaskInstance) Title() string                { return i.title }
func (i *TaskInstance) SetTitle(v string)            { i.title = v }
func (i *TaskInstance) Description() string          { return i.description }
func (i *TaskInstance) SetDescription(v string)      { i.description = v }
func (i *TaskInstance) Priority() Priority           { return i.priority }
func (i *TaskInstance) SetPriority(v Priority)       { i.priority = v }
func (i *TaskInstance) Status() Status               { return i.status }
func (i *TaskInstance) Modified() bool               { return i.modified }
func (i *TaskInstance) MarkModified()                { i.modified = true }
func (i *TaskInstance) CompletedAt() *time.Time      { return i.completedAt }
func (i *TaskInstance) SkippedAt() *time.Time        { return i.skippedAt }
func (i *TaskInstance) CanceledAt() *time.Time       { return i.canceledAt }
func (i *TaskInstance) CreatedAt() time.Time         { return i.createdAt }
func (i *TaskInstance) UpdatedAt() time.Time         { return i.updatedAt }
func (i *TaskInstance) SetUpdatedAt(v time.Time)     { i.updatedAt = v }
func (i *TaskInstance) SetCreatedAt(v time.Time)     { i.createdAt = v }

// Restore rebuilds persisted state without triggering lifecycle side effects.
// Only repositories call this while scanning rows.
func (i *TaskInstance) Restore(modified bool, completedAt, skippedAt, canceledAt *time.Time, status Status) {
	i.modified = modified
	i.completedAt = completedAt
	i.skippedAt = skippedAt
	i.canceledAt = canceledAt
	i.status = status
}

// ApplyStatus transitions the instance to the given status, stamping the
// matching terminal timestamp when the status ends the lifecycle.
func (i *TaskInstance) ApplyStatus(s Status, now time.Time) {
	i.status = s
	switch s {
	case StatusDone:
		i.completedAt = &now
	case StatusSkipped:
		i.skippedAt = &now
	case StatusCanceled:
		i.canceledAt = &now
	}
}

// Validate checks the snapshot fields and enum values.
func (i *TaskInstance) Validate() error {
	if i.parentTaskID == "" {
		return fmt.Errorf("%w: instance parent task is required", shared.ErrInvalidInput)
	}
	if i.recurrenceID == "" {
		return fmt.Errorf("%w: instance recurrence is required", shared.ErrInvalidInput)
	}
	if i.scheduledAt.IsZero() {
		return fmt.Errorf("%w: instance schedule time is required", shared.ErrInvalidInput)
	}
	if i.title == "" {
		return fmt.Errorf("%w: instance title is required", shared.ErrInvalidInput)
	}
	if !i.priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", shared.ErrInvalidInput, i.priority)
	}
	if !i.status.Valid() {
		return fmt.Errorf("%w: invalid status %q", shared.ErrInvalidInput, i.status)
	}
	return nil
}

// MarshalJSON exports the instance for CLI output.
func (i *TaskInstance) MarshalJSON() ([]byte, error) {
	return shared.MarshalJSON(struct {
		ID           string     `json:"id"`
		ParentTaskID string     `json:"parent_task_id"`
		RecurrenceID string     `json:"recurrence_id"`
		ScheduledAt  time.Time  `json:"scheduled_datetime"`
		Title        string     `json:"title"`
		Description  string     `json:"description,omitempty"`
		Priority     Priority   `json:"priority"`
		Status       Status     `json:"status"`
		Modified     bool       `json:"is_modified"`
		CompletedAt  *time.Time `json:"completed_at,omitempty"`
		SkippedAt    *time.Time `json:"skipped_at,omitempty"`
		CanceledAt   *time.Time `json:"canceled_at,omitempty"`
	}{
		ID: i.id, ParentTaskID: i.parentTaskID, RecurrenceID: i.recurrenceID,
		ScheduledAt: i.scheduledAt, Title: i.title, Description: i.description,
		Priority: i.priority, Status: i.status, Modified: i.modified,
		CompletedAt: i.completedAt, SkippedAt: i.skippedAt, CanceledAt: i.canceledAt,
	}, false)
}
