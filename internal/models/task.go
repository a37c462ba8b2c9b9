package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/dayplan/internal/shared"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority converts a string to a [Priority], rejecting unknown values.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", shared.ErrInvalidArgument, s)
	}
	return p, nil
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Status is the lifecycle state of a task or instance.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusSkipped    Status = "skipped"
	StatusCanceled   Status = "canceled"
)

// ParseStatus converts a string to a [Status], rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusDone, StatusSkipped, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether the status ends an instance's lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusSkipped, StatusCanceled:
		return true
	}
	return false
}

// Task is a user task. A task may own a [RecurrenceRule], in which case the
// synchronizer materializes [TaskInstance] records from it.
type Task struct {
	id          string
	sequence    int
	title       string
	description string
	startAt     time.Time
	deadline    *time.Time
	priority    Priority
	status      Status
	archived    bool
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewTask creates a Task with default priority (medium) and status (planned).
func NewTask(sequence int, title, description string, startAt time.Time) *Task {
	now := time.Now()
	return &Task{
		sequence:    sequence,
		title:       title,
		description: description,
		startAt:     startAt,
		priority:    PriorityMedium,
		status:      StatusPlanned,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (t *Task) ID() string            { return t.id }
func (t *Task) SetID(id string)       { t.id = id }
func (t *Task) Sequence() int         { return t.sequence }
func (t *Task) SetSequence(v int)     { t.sequence = v }
func (t *Task) Title() string         { return t.title }
func (t *Task) SetTitle(v string)     { t.title = v }
func (t *Task) Description() string   { return t.description }
func (t *Task) SetDescription(v string) {
	t.description = v
}
func (t *Task) StartAt() time.Time          { return t.startAt }
func (t *Task) SetStartAt(v time.Time)      { t.startAt = v }
func (t *Task) Deadline() *time.Time        { return t.deadline }
func (t *Task) SetDeadline(v *time.Time)    { t.deadline = v }
func (t *Task) Priority() Priority          { return t.priority }
func (t *Task) SetPriority(v Priority)      { t.priority = v }
func (t *Task) Status() Status              { return t.status }
func (t *Task) SetStatus(v Status)          { t.status = v }
func (t *Task) Archived() bool              { return t.archived }
func (t *Task) SetArchived(v bool)          { t.archived = v }
func (t *Task) CreatedAt() time.Time        { return t.createdAt }
func (t *Task) UpdatedAt() time.Time        { return t.updatedAt }
func (t *Task) SetUpdatedAt(v time.Time)    { t.updatedAt = v }
func (t *Task) DeletedAt() *time.Time       { return t.deletedAt }
func (t *Task) SetDeletedAt(v *time.Time)   { t.deletedAt = v }
func (t *Task) SetCreatedAt(v time.Time)    { t.createdAt = v }

// Validate checks that the task has a title, a start time and valid enum values.
func (t *Task) Validate() error {
	if t.title == "" {
		return fmt.Errorf("%w: task title is required", shared.ErrInvalidInput)
	}
	if t.startAt.IsZero() {
		return fmt.Errorf("%w: task start time is required", shared.ErrInvalidInput)
	}
	if !t.priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", shared.ErrInvalidInput, t.priority)
	}
	if !t.status.Valid() {
		return fmt.Errorf("%w: invalid status %q", shared.ErrInvalidInput, t.status)
	}
	return nil
}

// MarshalJSON exports the task for CLI output.
func (t *Task) MarshalJSON() ([]byte, error) {
	return shared.MarshalJSON(struct {
		ID          string     `json:"id"`
		Sequence    int        `json:"sequence"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		StartAt     time.Time  `json:"start_datetime"`
		Deadline    *time.Time `json:"deadline_datetime,omitempty"`
		Priority    Priority   `json:"priority"`
		Status      Status     `json:"status"`
		Archived    bool       `json:"is_archived"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   time.Time  `json:"updated_at"`
	}{
		ID: t.id, Sequence: t.sequence, Title: t.title, Description: t.description,
		StartAt: t.startAt, Deadline: t.deadline, Priority: t.priority,
		Status: t.status, Archived: t.archived, CreatedAt: t.createdAt, UpdatedAt: t.updatedAt,
	}, false)
}
