package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
)

// TaskRepository implements [models.Repository] for [models.Task] persistence.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new [TaskRepository] with the given database connection
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, sequence, title, description, start_datetime, deadline_datetime,
	priority, status, is_archived, created_at, updated_at, deleted_at`

// Create inserts a new task into the database with generated ID and sequence
func (r *TaskRepository) Create(task *models.Task) error {
	sequence, err := NextSequence(r.db, "tasks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	task.SetID(shared.GenerateID())
	task.SetSequence(sequence)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tasks (id, sequence, title, description, start_datetime, deadline_datetime, priority, status, is_archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var deadline *time.Time
	if d := task.Deadline(); d != nil {
		utc := d.UTC()
		deadline = &utc
	}

	_, err = r.db.Exec(query, task.ID(), sequence, task.Title(), task.Description(),
		task.StartAt().UTC(), deadline, string(task.Priority()), string(task.Status()),
		task.Archived(), task.CreatedAt().UTC(), task.UpdatedAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// Get retrieves a task by ID, excluding soft-deleted tasks
func (r *TaskRepository) Get(id string) (*models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = ? AND deleted_at IS NULL`, taskColumns)

	task, err := scanTask(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	return task, nil
}

// Update modifies an existing task in the database
func (r *TaskRepository) Update(task *models.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	task.SetUpdatedAt(now)

	var deadline *time.Time
	if d := task.Deadline(); d != nil {
		utc := d.UTC()
		deadline = &utc
	}

	query := `
		UPDATE tasks
		SET title = ?, description = ?, start_datetime = ?, deadline_datetime = ?,
			priority = ?, status = ?, is_archived = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, task.Title(), task.Description(), task.StartAt().UTC(), deadline,
		string(task.Priority()), string(task.Status()), task.Archived(), now.UTC(), task.ID())
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, task.ID())
	}

	return nil
}

// Delete soft-deletes a task by ID. The recurrence rule and instances remain
// until the row is purged, but the task no longer appears in queries.
func (r *TaskRepository) Delete(id string) error {
	now := time.Now().UTC()

	query := `
		UPDATE tasks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}

	return nil
}

// List retrieves all tasks matching the given criteria, excluding soft-deleted
// tasks and, unless include_archived is set, archived ones.
//
// Supported criteria: "status" (string), "priority" (string), "search"
// (matches title and description), "date_from"/"date_to" (time.Time over
// start_datetime), "include_archived" (bool).
func (r *TaskRepository) List(criteria map[string]any) ([]*models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE deleted_at IS NULL`, taskColumns)
	args := []any{}

	if includeArchived, ok := criteria["include_archived"].(bool); !ok || !includeArchived {
		query += " AND is_archived = 0"
	}
	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	if priority, ok := criteria["priority"].(string); ok && priority != "" {
		query += " AND priority = ?"
		args = append(args, priority)
	}
	if search, ok := criteria["search"].(string); ok && search != "" {
		query += " AND (title LIKE ? OR description LIKE ?)"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	if from, ok := criteria["date_from"].(time.Time); ok && !from.IsZero() {
		query += " AND start_datetime >= ?"
		args = append(args, from.UTC())
	}
	if to, ok := criteria["date_to"].(time.Time); ok && !to.IsZero() {
		query += " AND start_datetime <= ?"
		args = append(args, to.UTC())
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tasks, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		id          string
		sequence    int
		title       string
		description sql.NullString
		startAt     time.Time
		deadline    sql.NullTime
		priority    string
		status      string
		archived    bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &title, &description, &startAt, &deadline,
		&priority, &status, &archived, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	task := models.NewTask(sequence, title, description.String, startAt)
	task.SetID(id)
	task.SetPriority(models.Priority(priority))
	task.SetStatus(models.Status(status))
	task.SetArchived(archived)
	task.SetCreatedAt(createdAt)
	task.SetUpdatedAt(updatedAt)
	if deadline.Valid {
		task.SetDeadline(&deadline.Time)
	}
	if deletedAt.Valid {
		task.SetDeletedAt(&deletedAt.Time)
	}

	return task, nil
}
