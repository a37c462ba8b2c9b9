package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/desertthunder/dayplan/internal/shared"
)

// DefaultTagColor is assigned when a tag is created without an explicit color.
const DefaultTagColor = "#808080"

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Tag is a named, colored label. Tags attach to tasks via the task_tags junction table.
type Tag struct {
	id        string
	sequence  int
	name      string
	color     string
	createdAt time.Time
	updatedAt time.Time
}

// NewTag creates a Tag. An empty color falls back to [DefaultTagColor].
func NewTag(sequence int, name, color string) *Tag {
	if color == "" {
		color = DefaultTagColor
	}
	now := time.Now()
	return &Tag{
		sequence:  sequence,
		name:      name,
		color:     color,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *Tag) ID() string               { return t.id }
func (t *Tag) SetID(id string)          { t.id = id }
func (t *Tag) Sequence() int            { return t.sequence }
func (t *Tag) SetSequence(v int)        { t.sequence = v }
func (t *Tag) Name() string             { return t.name }
func (t *Tag) SetName(v string)         { t.name = v }
func (t *Tag) Color() string            { return t.color }
func (t *Tag) SetColor(v string)        { t.color = v }
func (t *Tag) CreatedAt() time.Time     { return t.createdAt }
func (t *Tag) UpdatedAt() time.Time     { return t.updatedAt }
func (t *Tag) SetUpdatedAt(v time.Time) { t.updatedAt = v }
func (t *Tag) SetCreatedAt(v time.Time) { t.createdAt = v }

// Validate checks that the tag has a name and a #RRGGBB color.
func (t *Tag) Validate() error {
	if t.name == "" {
		return fmt.Errorf("%w: tag name is required", shared.ErrInvalidInput)
	}
	if !hexColorPattern.MatchString(t.color) {
		return fmt.Errorf("%w: tag color must be #RRGGBB, got %q", shared.ErrInvalidInput, t.color)
	}
	return nil
}

// MarshalJSON exports the tag for CLI output.
func (t *Tag) MarshalJSON() ([]byte, error) {
	return shared.MarshalJSON(struct {
		ID        string    `json:"id"`
		Sequence  int       `json:"sequence"`
		Name      string    `json:"name"`
		Color     string    `json:"color"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}{t.id, t.sequence, t.name, t.color, t.createdAt, t.updatedAt}, false)
}
