package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
)

// TagRepository implements [models.Repository] for [models.Tag] persistence
// and owns the task_tags junction table.
type TagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new [TagRepository] with the given database connection
func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create inserts a new tag, rejecting duplicate names.
func (r *TagRepository) Create(tag *models.Tag) error {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM tags WHERE name = ?)", tag.Name()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check tag name: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", shared.ErrTagExists, tag.Name())
	}

	sequence, err := NextSequence(r.db, "tags")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	tag.SetID(shared.GenerateID())
	tag.SetSequence(sequence)

	if err := tag.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tags (id, sequence, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, tag.ID(), sequence, tag.Name(), tag.Color(), tag.CreatedAt().UTC(), tag.UpdatedAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}

	return nil
}

// Get retrieves a tag by ID
func (r *TagRepository) Get(id string) (*models.Tag, error) {
	query := `SELECT id, sequence, name, color, created_at, updated_at FROM tags WHERE id = ?`

	tag, err := scanTag(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTagNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}

	return tag, nil
}

// GetByName retrieves a tag by its unique name
func (r *TagRepository) GetByName(name string) (*models.Tag, error) {
	query := `SELECT id, sequence, name, color, created_at, updated_at FROM tags WHERE name = ?`

	tag, err := scanTag(r.db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTagNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}

	return tag, nil
}

// Update modifies an existing tag in the database
func (r *TagRepository) Update(tag *models.Tag) error {
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	tag.SetUpdatedAt(now)

	query := `UPDATE tags SET name = ?, color = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Exec(query, tag.Name(), tag.Color(), now.UTC(), tag.ID())
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTagNotFound, tag.ID())
	}

	return nil
}

// Delete removes a tag. Junction rows cascade away with it.
func (r *TagRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTagNotFound, id)
	}

	return nil
}

// List retrieves all tags, optionally filtered by "name", ordered by name.
func (r *TagRepository) List(criteria map[string]any) ([]*models.Tag, error) {
	query := `SELECT id, sequence, name, color, created_at, updated_at FROM tags`
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}

	query += " ORDER BY name ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tags, nil
}

// Attach links a tag to a task. Attaching twice is a no-op.
func (r *TagRepository) Attach(taskID, tagID string) error {
	_, err := r.db.Exec("INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)", taskID, tagID)
	if err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

// Detach unlinks a tag from a task.
func (r *TagRepository) Detach(taskID, tagID string) error {
	_, err := r.db.Exec("DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?", taskID, tagID)
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	return nil
}

// ListForTask retrieves the tags attached to a task, ordered by name.
func (r *TagRepository) ListForTask(taskID string) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.sequence, t.name, t.color, t.created_at, t.updated_at
		FROM tags t
		INNER JOIN task_tags tt ON t.id = tt.tag_id
		WHERE tt.task_id = ?
		ORDER BY t.name ASC
	`

	rows, err := r.db.Query(query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tags, nil
}

func scanTag(row scanner) (*models.Tag, error) {
	var (
		id        string
		sequence  int
		name      string
		color     string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&id, &sequence, &name, &color, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	tag := models.NewTag(sequence, name, color)
	tag.SetID(id)
	tag.SetCreatedAt(createdAt)
	tag.SetUpdatedAt(updatedAt)

	return tag, nil
}
