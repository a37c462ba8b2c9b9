package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
)

// RecurrenceRepository implements [models.Repository] for [models.RecurrenceRule] persistence.
//
// The task_recurrence table enforces the one-rule-per-task invariant with a
// UNIQUE constraint on task_id; Create checks it up front for a clearer error.
type RecurrenceRepository struct {
	db *sql.DB
}

// NewRecurrenceRepository creates a new [RecurrenceRepository] with the given database connection
func NewRecurrenceRepository(db *sql.DB) *RecurrenceRepository {
	return &RecurrenceRepository{db: db}
}

const ruleColumns = `id, task_id, recurrence_type, interval_value, days_of_week, day_of_month,
	end_type, end_date, end_count, current_count, is_active, created_at, updated_at`

// Create inserts a new rule for a task, rejecting a second rule for the same task.
func (r *RecurrenceRepository) Create(rule *models.RecurrenceRule) error {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM task_recurrence WHERE task_id = ?)", rule.TaskID()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing rule: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: task %s", shared.ErrRuleExists, rule.TaskID())
	}

	rule.SetID(shared.GenerateID())

	if err := rule.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	endType, endDate, endCount := encodeEnd(rule.End())

	query := `
		INSERT INTO task_recurrence (id, task_id, recurrence_type, interval_value, days_of_week,
			day_of_month, end_type, end_date, end_count, current_count, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, rule.ID(), rule.TaskID(), string(rule.Frequency()), rule.Interval(),
		encodeDays(rule.DaysOfWeek()), nullableInt(rule.DayOfMonth()), endType, endDate, endCount,
		rule.CurrentCount(), rule.Active(), rule.CreatedAt().UTC(), rule.UpdatedAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

// Get retrieves a rule by ID
func (r *RecurrenceRepository) Get(id string) (*models.RecurrenceRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_recurrence WHERE id = ?`, ruleColumns)

	rule, err := scanRule(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRuleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule: %w", err)
	}

	return rule, nil
}

// GetByTask retrieves the rule attached to a task.
func (r *RecurrenceRepository) GetByTask(taskID string) (*models.RecurrenceRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_recurrence WHERE task_id = ?`, ruleColumns)

	rule, err := scanRule(r.db.QueryRow(query, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", shared.ErrRuleNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule: %w", err)
	}

	return rule, nil
}

// Update modifies an existing rule in the database
func (r *RecurrenceRepository) Update(rule *models.RecurrenceRule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	rule.SetUpdatedAt(now)

	endType, endDate, endCount := encodeEnd(rule.End())

	query := `
		UPDATE task_recurrence
		SET recurrence_type = ?, interval_value = ?, days_of_week = ?, day_of_month = ?,
			end_type = ?, end_date = ?, end_count = ?, current_count = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, string(rule.Frequency()), rule.Interval(), encodeDays(rule.DaysOfWeek()),
		nullableInt(rule.DayOfMonth()), endType, endDate, endCount, rule.CurrentCount(), rule.Active(),
		now.UTC(), rule.ID())
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRuleNotFound, rule.ID())
	}

	return nil
}

// Delete removes a rule. Its instances cascade away with it.
func (r *RecurrenceRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM task_recurrence WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRuleNotFound, id)
	}

	return nil
}

// List retrieves all rules, optionally filtered by "is_active" (bool).
func (r *RecurrenceRepository) List(criteria map[string]any) ([]*models.RecurrenceRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_recurrence`, ruleColumns)
	args := []any{}

	if active, ok := criteria["is_active"].(bool); ok {
		query += " WHERE is_active = ?"
		args = append(args, active)
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.RecurrenceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return rules, nil
}

// SaveCount persists the all-time emitted occurrence count on the rule.
func (r *RecurrenceRepository) SaveCount(id string, count int) error {
	result, err := r.db.Exec("UPDATE task_recurrence SET current_count = ?, updated_at = ? WHERE id = ?",
		count, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to save occurrence count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRuleNotFound, id)
	}

	return nil
}

// encodeDays serializes the weekday set as a JSON array, or NULL when empty.
func encodeDays(days []time.Weekday) any {
	if len(days) == 0 {
		return nil
	}
	nums := make([]int, len(days))
	for i, d := range days {
		nums[i] = int(d)
	}
	data, _ := json.Marshal(nums)
	return string(data)
}

// decodeDays parses the persisted JSON weekday array.
func decodeDays(raw sql.NullString) ([]time.Weekday, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var nums []int
	if err := json.Unmarshal([]byte(raw.String), &nums); err != nil {
		return nil, fmt.Errorf("failed to parse weekday set: %w", err)
	}
	days := make([]time.Weekday, len(nums))
	for i, n := range nums {
		days[i] = time.Weekday(n)
	}
	return days, nil
}

// encodeEnd flattens the tagged end condition into its three columns.
func encodeEnd(end models.End) (string, any, any) {
	switch end.Kind() {
	case models.EndOnDate:
		return end.Kind().String(), end.Date().UTC(), nil
	case models.EndAfterCount:
		return end.Kind().String(), nil, end.Count()
	default:
		return end.Kind().String(), nil, nil
	}
}

// decodeEnd rebuilds the tagged end condition from its columns.
func decodeEnd(endType string, endDate sql.NullTime, endCount sql.NullInt64) models.End {
	switch endType {
	case models.EndOnDate.String():
		if endDate.Valid {
			return models.EndOn(endDate.Time)
		}
	case models.EndAfterCount.String():
		if endCount.Valid {
			return models.EndAfter(int(endCount.Int64))
		}
	}
	return models.NeverEnds()
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func scanRule(row scanner) (*models.RecurrenceRule, error) {
	var (
		id           string
		taskID       string
		freq         string
		interval     int
		daysOfWeek   sql.NullString
		dayOfMonth   sql.NullInt64
		endType      string
		endDate      sql.NullTime
		endCount     sql.NullInt64
		currentCount int
		active       bool
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &taskID, &freq, &interval, &daysOfWeek, &dayOfMonth,
		&endType, &endDate, &endCount, &currentCount, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	days, err := decodeDays(daysOfWeek)
	if err != nil {
		return nil, err
	}

	rule := models.NewRecurrenceRule(taskID, models.Frequency(freq))
	rule.SetID(id)
	rule.SetInterval(interval)
	rule.SetDaysOfWeek(days)
	if dayOfMonth.Valid {
		rule.SetDayOfMonth(int(dayOfMonth.Int64))
	}
	rule.SetEnd(decodeEnd(endType, endDate, endCount))
	rule.SetCurrentCount(currentCount)
	rule.SetActive(active)
	rule.SetCreatedAt(createdAt)
	rule.SetUpdatedAt(updatedAt)

	return rule, nil
}
