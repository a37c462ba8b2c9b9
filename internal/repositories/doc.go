// Package repositories implements SQLite persistence for all planner entities.
//
// Each repository handles CRUD operations; tasks support soft deletes via
// deleted_at timestamps and are excluded from queries by default, while
// recurrence rules and instances are hard-deleted (instances cascade with
// their rule and parent task).
//
// Key Implementations:
//   - [TaskRepository] : Task persistence with filtering (status, priority, search, date range)
//   - [TagRepository] : Tag persistence plus the task_tags junction table
//   - [RecurrenceRepository] : One rule per task, tagged end-condition mapping
//   - [InstanceRepository] : Materialized occurrences, exact-time lookups and future-purge support
//
// Sequence numbers provide stable, human-readable ordering (e.g. task #42)
// independent of UUIDs and creation timestamps. The [NextSequence] function
// atomically increments per-table sequence counters in dedicated sequence tables.
//
// All scheduled and boundary timestamps are normalized to UTC at this layer so
// SQLite's lexicographic timestamp comparisons stay consistent.
package repositories
