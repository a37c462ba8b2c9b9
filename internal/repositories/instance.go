package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
)

// InstanceRepository implements [models.Repository] for [models.TaskInstance]
// persistence and satisfies the recurrence engine's InstanceStore contract.
//
// The (recurrence_id, scheduled_datetime) UNIQUE constraint backs up the
// engine's check-then-insert walk against duplicate materialization.
type InstanceRepository struct {
	db *sql.DB
}

// NewInstanceRepository creates a new [InstanceRepository] with the given database connection
func NewInstanceRepository(db *sql.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

const instanceColumns = `id, parent_task_id, recurrence_id, scheduled_datetime, title, description,
	priority, status, is_modified, completed_at, skipped_at, canceled_at, created_at, updated_at`

// Create inserts a new instance with a generated ID.
func (r *InstanceRepository) Create(instance *models.TaskInstance) error {
	instance.SetID(shared.GenerateID())

	if err := instance.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO task_instances (id, parent_task_id, recurrence_id, scheduled_datetime,
			title, description, priority, status, is_modified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, instance.ID(), instance.ParentTaskID(), instance.RecurrenceID(),
		instance.ScheduledAt().UTC(), instance.Title(), instance.Description(),
		string(instance.Priority()), string(instance.Status()), instance.Modified(),
		instance.CreatedAt().UTC(), instance.UpdatedAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert instance: %w", err)
	}

	return nil
}

// Get retrieves an instance by ID
func (r *InstanceRepository) Get(id string) (*models.TaskInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_instances WHERE id = ?`, instanceColumns)

	instance, err := scanInstance(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrInstanceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query instance: %w", err)
	}

	return instance, nil
}

// Update persists user edits to an instance. Any update marks the instance
// modified, freezing it from future regeneration.
func (r *InstanceRepository) Update(instance *models.TaskInstance) error {
	if err := instance.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	instance.MarkModified()
	now := time.Now()
	instance.SetUpdatedAt(now)

	query := `
		UPDATE task_instances
		SET scheduled_datetime = ?, title = ?, description = ?, priority = ?, status = ?,
			is_modified = 1, completed_at = ?, skipped_at = ?, canceled_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, instance.ScheduledAt().UTC(), instance.Title(), instance.Description(),
		string(instance.Priority()), string(instance.Status()),
		nullableTime(instance.CompletedAt()), nullableTime(instance.SkippedAt()), nullableTime(instance.CanceledAt()),
		now.UTC(), instance.ID())
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrInstanceNotFound, instance.ID())
	}

	return nil
}

// Delete removes an instance by ID.
func (r *InstanceRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM task_instances WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrInstanceNotFound, id)
	}

	return nil
}

// List retrieves instances matching the given criteria ordered by scheduled time.
//
// Supported criteria: "parent_task_id" (string), "recurrence_id" (string),
// "from"/"to" (time.Time over scheduled_datetime), "status" (string).
func (r *InstanceRepository) List(criteria map[string]any) ([]*models.TaskInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_instances WHERE 1=1`, instanceColumns)
	args := []any{}

	if parent, ok := criteria["parent_task_id"].(string); ok && parent != "" {
		query += " AND parent_task_id = ?"
		args = append(args, parent)
	}
	if rec, ok := criteria["recurrence_id"].(string); ok && rec != "" {
		query += " AND recurrence_id = ?"
		args = append(args, rec)
	}
	if from, ok := criteria["from"].(time.Time); ok && !from.IsZero() {
		query += " AND scheduled_datetime >= ?"
		args = append(args, from.UTC())
	}
	if to, ok := criteria["to"].(time.Time); ok && !to.IsZero() {
		query += " AND scheduled_datetime <= ?"
		args = append(args, to.UTC())
	}
	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY scheduled_datetime ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}
	defer rows.Close()

	var instances []*models.TaskInstance
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return instances, nil
}

// DeleteFutureUnmodified purges instances for a rule that are strictly in the
// future and untouched by the user. Past and modified instances survive.
func (r *InstanceRepository) DeleteFutureUnmodified(recurrenceID string, now time.Time) (int, error) {
	query := `
		DELETE FROM task_instances
		WHERE recurrence_id = ? AND scheduled_datetime > ? AND is_modified = 0
	`

	result, err := r.db.Exec(query, recurrenceID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge future instances: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// FindByTime looks up the instance materialized for an exact scheduled time.
// Returns (nil, nil) when absent.
func (r *InstanceRepository) FindByTime(recurrenceID string, at time.Time) (*models.TaskInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_instances WHERE recurrence_id = ? AND scheduled_datetime = ?`, instanceColumns)

	instance, err := scanInstance(r.db.QueryRow(query, recurrenceID, at.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query instance: %w", err)
	}

	return instance, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func scanInstance(row scanner) (*models.TaskInstance, error) {
	var (
		id           string
		parentTaskID string
		recurrenceID string
		scheduledAt  time.Time
		title        string
		description  sql.NullString
		priority     string
		status       string
		modified     bool
		completedAt  sql.NullTime
		skippedAt    sql.NullTime
		canceledAt   sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &parentTaskID, &recurrenceID, &scheduledAt, &title, &description,
		&priority, &status, &modified, &completedAt, &skippedAt, &canceledAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	// Rebuild through a throwaway parent snapshot, then restore persisted state.
	parent := models.NewTask(0, title, description.String, scheduledAt)
	parent.SetID(parentTaskID)
	parent.SetPriority(models.Priority(priority))

	instance := models.NewTaskInstance(parent, recurrenceID, scheduledAt)
	instance.SetID(id)
	instance.SetCreatedAt(createdAt)
	instance.SetUpdatedAt(updatedAt)
	instance.Restore(modified, nullableFromSQL(completedAt), nullableFromSQL(skippedAt), nullableFromSQL(canceledAt), models.Status(status))

	return instance, nil
}

func nullableFromSQL(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
