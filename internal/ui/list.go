package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
)

var (
	_ list.Item = taskItem{}
	_ list.Item = instanceItem{}
)

// taskItem wraps [models.Task] to implement [list.Item].
type taskItem struct {
	task      *models.Task
	recurring bool
}

func (i taskItem) FilterValue() string { return i.task.Title() }
func (i taskItem) Title() string {
	if i.recurring {
		return fmt.Sprintf("↻ %s", i.task.Title())
	}
	return i.task.Title()
}
func (i taskItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.task.Priority(), i.task.Status())
	if deadline := i.task.Deadline(); deadline != nil {
		desc = fmt.Sprintf("%s • due %s", desc, shared.FormatDate(*deadline))
	}
	return desc
}

// instanceItem wraps [models.TaskInstance] to implement [list.Item].
type instanceItem struct {
	instance *models.TaskInstance
}

func (i instanceItem) FilterValue() string { return i.instance.Title() }
func (i instanceItem) Title() string {
	return fmt.Sprintf("%s  %s", shared.FormatDateTime(i.instance.ScheduledAt()), i.instance.Title())
}
func (i instanceItem) Description() string {
	desc := string(i.instance.Status())
	if i.instance.Modified() {
		desc = fmt.Sprintf("%s • edited", desc)
	}
	return desc
}
