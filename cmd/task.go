package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
	"github.com/urfave/cli/v3"
)

// TaskAdd creates a task from flags.
func (r *Runner) TaskAdd(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	start := r.now()
	if value := cmd.String("start"); value != "" {
		if start, err = parseTimeFlag(value); err != nil {
			return err
		}
	}

	task := models.NewTask(0, cmd.String("title"), cmd.String("description"), start)

	if value := cmd.String("deadline"); value != "" {
		deadline, err := parseTimeFlag(value)
		if err != nil {
			return err
		}
		task.SetDeadline(&deadline)
	}
	if value := cmd.String("priority"); value != "" {
		priority, err := models.ParsePriority(value)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		task.SetPriority(priority)
	}

	if err := store.Tasks.Create(task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Info("task created", "id", task.ID(), "title", task.Title())
	if cmd.Bool("json") {
		return r.writeJSON(task, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Created task %s (%s)\n", task.Title(), task.ID())
}

// TaskList lists tasks matching the flag filters.
func (r *Runner) TaskList(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	criteria := map[string]any{}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}
	if priority := cmd.String("priority"); priority != "" {
		criteria["priority"] = priority
	}
	if search := cmd.String("search"); search != "" {
		criteria["search"] = search
	}
	if cmd.Bool("archived") {
		criteria["include_archived"] = true
	}

	tasks, err := store.Tasks.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tasks, cmd.Bool("pretty"))
	}

	if len(tasks) == 0 {
		return r.writePlain("No tasks found\n")
	}

	r.writePlainHeader(fmt.Sprintf("Tasks (%d)", len(tasks)))
	for _, task := range tasks {
		marker := " "
		if _, err := store.Rules.GetByTask(task.ID()); err == nil {
			marker = "↻"
		}
		r.writePlain("%s %-40s %s  [%s/%s]  %s\n",
			marker, task.Title(), shared.FormatDate(task.StartAt()), task.Priority(), task.Status(), task.ID())
	}
	return nil
}

// TaskShow prints one task with its tags and recurrence rule.
func (r *Runner) TaskShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := store.Tasks.Get(id)
	if err != nil {
		return err
	}

	tags, err := store.Tags.ListForTask(task.ID())
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	rule, err := store.Rules.GetByTask(task.ID())
	if err != nil && !errors.Is(err, shared.ErrRuleNotFound) {
		return err
	}

	if cmd.Bool("json") {
		payload := map[string]any{"task": task, "tags": tags}
		if rule != nil {
			payload["recurrence"] = rule
		}
		return r.writeJSON(payload, cmd.Bool("pretty"))
	}

	r.writePlainHeader(task.Title())
	r.writePlain("Start:    %s\n", shared.FormatDateTime(task.StartAt()))
	if deadline := task.Deadline(); deadline != nil {
		r.writePlain("Deadline: %s\n", shared.FormatDateTime(*deadline))
	}
	r.writePlain("Priority: %s\nStatus:   %s\n", task.Priority(), task.Status())
	if task.Description() != "" {
		r.writePlain("\n%s\n", task.Description())
	}

	if len(tags) > 0 {
		r.writePlain("\nTags:")
		for _, tag := range tags {
			r.writePlain(" %s", tag.Name())
		}
		r.writePlain("\n")
	}
	if rule != nil {
		state := "active"
		if !rule.Active() {
			state = "paused"
		}
		r.writePlain("\nRepeats %s every %d (%s)\n", rule.Frequency(), rule.Interval(), state)
	}
	return nil
}

// TaskUpdate applies flag changes to a task and resynchronizes its rule when
// the start time moved.
func (r *Runner) TaskUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := store.Tasks.Get(id)
	if err != nil {
		return err
	}

	startChanged := false
	if value := cmd.String("title"); value != "" {
		task.SetTitle(value)
	}
	if value := cmd.String("description"); value != "" {
		task.SetDescription(value)
	}
	if value := cmd.String("start"); value != "" {
		start, err := parseTimeFlag(value)
		if err != nil {
			return err
		}
		task.SetStartAt(start)
		startChanged = true
	}
	if value := cmd.String("deadline"); value != "" {
		deadline, err := parseTimeFlag(value)
		if err != nil {
			return err
		}
		task.SetDeadline(&deadline)
	}
	if value := cmd.String("priority"); value != "" {
		priority, err := models.ParsePriority(value)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		task.SetPriority(priority)
	}
	if value := cmd.String("status"); value != "" {
		status, err := models.ParseStatus(value)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		task.SetStatus(status)
	}

	if err := store.Tasks.Update(task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	r.logger.Info("task updated", "id", task.ID())

	if startChanged {
		if _, err := store.Rules.GetByTask(task.ID()); err == nil {
			r.logger.Info("start time moved, regenerating instances", "task", task.ID())
			if err := r.newSynchronizer(store).SynchronizeTask(task.ID()); err != nil {
				return err
			}
		} else if !errors.Is(err, shared.ErrRuleNotFound) {
			return err
		}
	}

	return r.writePlain("✓ Updated task %s\n", task.ID())
}

// TaskArchive hides a task from default listings.
func (r *Runner) TaskArchive(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := store.Tasks.Get(id)
	if err != nil {
		return err
	}

	task.SetArchived(true)
	if err := store.Tasks.Update(task); err != nil {
		return fmt.Errorf("failed to archive task: %w", err)
	}

	return r.writePlain("✓ Archived task %s\n", task.ID())
}

// TaskDelete soft-deletes a task.
func (r *Runner) TaskDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Tasks.Delete(id); err != nil {
		return err
	}

	r.logger.Info("task deleted", "id", id)
	return r.writePlain("✓ Deleted task %s\n", id)
}
