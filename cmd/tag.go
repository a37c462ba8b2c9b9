package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
	"github.com/urfave/cli/v3"
)

// TagAdd creates a tag.
func (r *Runner) TagAdd(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: tag name", shared.ErrMissingArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	tag := models.NewTag(0, name, cmd.String("color"))
	if err := store.Tags.Create(tag); err != nil {
		return err
	}

	r.logger.Info("tag created", "id", tag.ID(), "name", tag.Name())
	return r.writePlain("✓ Created tag %s (%s)\n", tag.Name(), tag.Color())
}

// TagList lists all tags.
func (r *Runner) TagList(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	tags, err := store.Tags.List(map[string]any{})
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tags, cmd.Bool("pretty"))
	}

	if len(tags) == 0 {
		return r.writePlain("No tags found\n")
	}

	for _, tag := range tags {
		r.writePlain("%-20s %s  %s\n", tag.Name(), tag.Color(), tag.ID())
	}
	return nil
}

// TagDelete removes a tag by name, detaching it from every task.
func (r *Runner) TagDelete(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: tag name", shared.ErrMissingArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	tag, err := store.Tags.GetByName(name)
	if err != nil {
		return err
	}

	if err := store.Tags.Delete(tag.ID()); err != nil {
		return err
	}

	r.logger.Info("tag deleted", "name", name)
	return r.writePlain("✓ Deleted tag %s\n", name)
}

// TagAttach labels a task with a tag.
func (r *Runner) TagAttach(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := store.Tasks.Get(cmd.String("task"))
	if err != nil {
		return err
	}
	tag, err := store.Tags.GetByName(cmd.String("name"))
	if err != nil {
		return err
	}

	if err := store.Tags.Attach(task.ID(), tag.ID()); err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}

	return r.writePlain("✓ Tagged %s with %s\n", task.Title(), tag.Name())
}

// TagDetach removes a tag from a task.
func (r *Runner) TagDetach(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := store.Tasks.Get(cmd.String("task"))
	if err != nil {
		return err
	}
	tag, err := store.Tags.GetByName(cmd.String("name"))
	if err != nil {
		return err
	}

	if err := store.Tags.Detach(task.ID(), tag.ID()); err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}

	return r.writePlain("✓ Removed %s from %s\n", tag.Name(), task.Title())
}
