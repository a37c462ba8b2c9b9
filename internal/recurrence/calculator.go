package recurrence

import (
	"time"

	"github.com/desertthunder/dayplan/internal/models"
)

// MaxOccurrences caps a single expansion. A misconfigured rule (zero or
// negative interval) can fail to advance; the cap keeps the walk finite.
const MaxOccurrences = 1000

// Occurrences expands a recurrence rule into the ordered dates on which the
// task occurs, starting at start (inclusive) and never exceeding horizonEnd
// or the rule's own end condition.
//
// The calculation is pure: no I/O, no hidden state, recomputed fresh each call.
// Callers validate the rule first; Occurrences itself only guarantees
// termination via [MaxOccurrences].
func Occurrences(start, horizonEnd time.Time, rule *models.RecurrenceRule) []time.Time {
	end := rule.End()

	maxEnd := horizonEnd
	if end.Kind() == models.EndOnDate && end.Date().Before(horizonEnd) {
		maxEnd = end.Date()
	}

	var occurrences []time.Time
	current := start

	for !current.After(maxEnd) {
		if end.Kind() == models.EndAfterCount && len(occurrences) >= end.Count() {
			break
		}

		if !current.Before(start) {
			occurrences = append(occurrences, current)
		}

		if len(occurrences) >= MaxOccurrences {
			break
		}

		current = nextOccurrence(current, rule)
	}

	return occurrences
}

// nextOccurrence computes the candidate date following current under the rule.
func nextOccurrence(current time.Time, rule *models.RecurrenceRule) time.Time {
	switch rule.Frequency() {
	case models.Daily, models.Custom:
		return current.AddDate(0, 0, rule.Interval())

	case models.Weekly:
		return nextWeekly(current, rule)

	case models.Monthly:
		return addMonthsClamped(current, rule.Interval(), rule.DayOfMonth())

	case models.Yearly:
		return current.AddDate(rule.Interval(), 0, 0)

	case models.Workdays:
		next := current.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next

	case models.Weekends:
		next := current.AddDate(0, 0, 1)
		for next.Weekday() != time.Saturday && next.Weekday() != time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next

	default:
		return current.AddDate(0, 0, rule.Interval())
	}
}

// nextWeekly advances within the rule's weekday set: the smallest set member
// after the current weekday wins; otherwise wrap to the first member of the
// following week. Without a set, the schedule is interval-only weekly.
func nextWeekly(current time.Time, rule *models.RecurrenceRule) time.Time {
	days := rule.DaysOfWeek() // ascending, enforced by the model
	if len(days) == 0 {
		return current.AddDate(0, 0, 7*rule.Interval())
	}

	weekday := current.Weekday()
	for _, day := range days {
		if day > weekday {
			return current.AddDate(0, 0, int(day-weekday))
		}
	}

	return current.AddDate(0, 0, 7-int(weekday)+int(days[0]))
}

// addMonthsClamped advances by whole months keeping the wall clock, pinning
// the day to pinDay when set and clamping to the target month's actual length.
// Go's AddDate would normalize Jan 31 + 1 month into March; walking from the
// first of the month avoids that.
func addMonthsClamped(t time.Time, months, pinDay int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)

	if pinDay > 0 {
		day = pinDay
	}
	if last := daysInMonth(firstOfTarget); day > last {
		day = last
	}

	hour, min, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in t's month.
func daysInMonth(t time.Time) int {
	year, month, _ := t.Date()
	return time.Date(year, month+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
