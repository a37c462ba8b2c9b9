// Package recurrence implements the occurrence expansion engine for recurring tasks.
//
// # Core Operations
//
// Two pieces make up the engine:
//
//  1. [Occurrences] : the pure calculator
//     - Maps (start date, horizon, rule) to an ordered list of candidate dates
//     - Walks forward with a type-specific step function (daily, weekly with
//       weekday-set wraparound, monthly with month-length clamping, yearly,
//       workday/weekend skipping, custom day intervals)
//     - Honors the rule's end condition (never / by date / by count) and a
//       hard 1000-occurrence safety cap
//
//  2. [Synchronizer] : the idempotent reconciler
//     - Purges future, unmodified instances for the rule
//     - Recomputes occurrences within the generation horizon
//     - Inserts any date not already materialized, snapshotting the parent task
//     - Never touches past instances or instances a user has edited
//
// # Collaborators
//
// The synchronizer talks to storage through the [TaskStore] and [InstanceStore]
// interfaces, implemented by the repositories package. It performs no retries;
// a storage failure aborts the remaining inserts and the next run self-heals.
//
// Concurrent synchronize calls for the same rule are serialized by an internal
// per-rule lock, since the check-then-insert step is not atomic on its own.
package recurrence
