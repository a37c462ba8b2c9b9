package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/desertthunder/dayplan/internal/shared"
)

// Frequency is the repetition pattern of a [RecurrenceRule].
type Frequency string

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
	Workdays Frequency = "workdays"
	Weekends Frequency = "weekends"
	Custom   Frequency = "custom"
)

// ParseFrequency converts a string to a [Frequency], rejecting unknown values.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: unknown recurrence type %q", shared.ErrInvalidArgument, s)
	}
	return f, nil
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly, Workdays, Weekends, Custom:
		return true
	}
	return false
}

// EndKind discriminates the [End] variant of a recurrence rule.
type EndKind int

const (
	EndNever      EndKind = iota // rule never terminates on its own
	EndOnDate                    // no occurrence past the given date
	EndAfterCount                // no occurrence past the nth emission
)

func (k EndKind) String() string {
	switch k {
	case EndOnDate:
		return "date"
	case EndAfterCount:
		return "count"
	default:
		return "never"
	}
}

// End is the tagged termination condition of a recurrence rule.
// The zero value means the rule never ends.
type End struct {
	kind  EndKind
	date  time.Time
	count int
}

// NeverEnds returns the open-ended termination condition.
func NeverEnds() End { return End{} }

// EndOn returns a termination condition bounded by date (inclusive).
func EndOn(date time.Time) End { return End{kind: EndOnDate, date: date} }

// EndAfter returns a termination condition bounded by a total occurrence count.
func EndAfter(count int) End { return End{kind: EndAfterCount, count: count} }

func (e End) Kind() EndKind   { return e.kind }
func (e End) Date() time.Time { return e.date }
func (e End) Count() int      { return e.count }

// RecurrenceRule describes how a parent [Task] repeats. At most one active
// rule exists per task; the rule is cascade-deleted with its task.
type RecurrenceRule struct {
	id           string
	taskID       string
	freq         Frequency
	interval     int
	daysOfWeek   []time.Weekday
	dayOfMonth   int
	end          End
	currentCount int
	active       bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewRecurrenceRule creates an active rule with interval 1 and no end condition.
func NewRecurrenceRule(taskID string, freq Frequency) *RecurrenceRule {
	now := time.Now()
	return &RecurrenceRule{
		taskID:    taskID,
		freq:      freq,
		interval:  1,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *RecurrenceRule) ID() string                 { return r.id }
func (r *RecurrenceRule) SetID(id string)            { r.id = id }
func (r *RecurrenceRule) TaskID() string             { return r.taskID }
func (r *RecurrenceRule) Frequency() Frequency       { return r.freq }
func (r *RecurrenceRule) SetFrequency(f Frequency)   { r.freq = f }
func (r *RecurrenceRule) Interval() int              { return r.interval }
func (r *RecurrenceRule) SetInterval(v int)          { r.interval = v }
func (r *RecurrenceRule) DayOfMonth() int            { return r.dayOfMonth }
func (r *RecurrenceRule) SetDayOfMonth(v int)        { r.dayOfMonth = v }
func (r *RecurrenceRule) End() End                   { return r.end }
func (r *RecurrenceRule) SetEnd(e End)               { r.end = e }
func (r *RecurrenceRule) CurrentCount() int          { return r.currentCount }
func (r *RecurrenceRule) SetCurrentCount(v int)      { r.currentCount = v }
func (r *RecurrenceRule) Active() bool               { return r.active }
func (r *RecurrenceRule) SetActive(v bool)           { r.active = v }
func (r *RecurrenceRule) CreatedAt() time.Time       { return r.createdAt }
func (r *RecurrenceRule) UpdatedAt() time.Time       { return r.updatedAt }
func (r *RecurrenceRule) SetUpdatedAt(v time.Time)   { r.updatedAt = v }
func (r *RecurrenceRule) SetCreatedAt(v time.Time)   { r.createdAt = v }

// DaysOfWeek returns a copy of the weekday set, always in ascending order.
func (r *RecurrenceRule) DaysOfWeek() []time.Weekday {
	out := make([]time.Weekday, len(r.daysOfWeek))
	copy(out, r.daysOfWeek)
	return out
}

// SetDaysOfWeek stores the weekday set sorted and deduplicated. Caller-supplied
// order is not trusted: the calculator's wraparound walk requires ascending order.
func (r *RecurrenceRule) SetDaysOfWeek(days []time.Weekday) {
	seen := make(map[time.Weekday]bool, len(days))
	set := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			set = append(set, d)
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	r.daysOfWeek = set
}

// Validate rejects malformed rules before any calculation touches them.
func (r *RecurrenceRule) Validate() error {
	if !r.freq.Valid() {
		return fmt.Errorf("%w: unknown recurrence type %q", shared.ErrInvalidRule, r.freq)
	}

	switch r.freq {
	case Daily, Monthly, Yearly, Custom:
		if r.interval < 1 {
			return fmt.Errorf("%w: interval must be at least 1 for %s rules", shared.ErrInvalidRule, r.freq)
		}
	case Weekly:
		// A weekday set drives the schedule; without one the interval must carry it.
		if len(r.daysOfWeek) == 0 && r.interval < 1 {
			return fmt.Errorf("%w: weekly rule needs a weekday set or a positive interval", shared.ErrInvalidRule)
		}
	}

	for _, d := range r.daysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: weekday %d outside 0-6", shared.ErrInvalidRule, d)
		}
	}

	if r.freq == Monthly && r.dayOfMonth != 0 && (r.dayOfMonth < 1 || r.dayOfMonth > 31) {
		return fmt.Errorf("%w: day of month %d outside 1-31", shared.ErrInvalidRule, r.dayOfMonth)
	}

	switch r.end.kind {
	case EndOnDate:
		if r.end.date.IsZero() {
			return fmt.Errorf("%w: end date is required for date-bounded rules", shared.ErrInvalidRule)
		}
	case EndAfterCount:
		if r.end.count < 1 {
			return fmt.Errorf("%w: end count must be at least 1", shared.ErrInvalidRule)
		}
	}

	return nil
}

// MarshalJSON exports the rule for CLI output.
func (r *RecurrenceRule) MarshalJSON() ([]byte, error) {
	var endDate *time.Time
	var endCount *int
	switch r.end.kind {
	case EndOnDate:
		d := r.end.date
		endDate = &d
	case EndAfterCount:
		c := r.end.count
		endCount = &c
	}
	return shared.MarshalJSON(struct {
		ID           string         `json:"id"`
		TaskID       string         `json:"task_id"`
		Type         Frequency      `json:"recurrence_type"`
		Interval     int            `json:"interval_value"`
		DaysOfWeek   []time.Weekday `json:"days_of_week,omitempty"`
		DayOfMonth   int            `json:"day_of_month,omitempty"`
		EndType      string         `json:"end_type"`
		EndDate      *time.Time     `json:"end_date,omitempty"`
		EndCount     *int           `json:"end_count,omitempty"`
		CurrentCount int            `json:"current_count"`
		Active       bool           `json:"is_active"`
	}{
		ID: r.id, TaskID: r.taskID, Type: r.freq, Interval: r.interval,
		DaysOfWeek: r.daysOfWeek, DayOfMonth: r.dayOfMonth,
		EndType: r.end.kind.String(), EndDate: endDate, EndCount: endCount,
		CurrentCount: r.currentCount, Active: r.active,
	}, false)
}
