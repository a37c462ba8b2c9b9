// Package models defines domain entities and persistence interfaces for the dayplan task planner.
//
// The package contains the persistent entities of the planner:
//   - [Task] : A user task with scheduling, priority and status
//   - [Tag] : A named, colored label attached to tasks
//   - [RecurrenceRule] : The repetition rule attached 1:1 to a parent task
//   - [TaskInstance] : A single materialized occurrence of a recurring task
//
// All persistent entities implement the Model interface providing ID generation, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
//
// [RecurrenceRule] end conditions use the tagged [End] variant (never / on a date /
// after a count) so that invalid combinations are unrepresentable; the weekday set
// is kept sorted so the calculator can rely on ascending order.
package models
