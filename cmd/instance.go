package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
	"github.com/urfave/cli/v3"
)

// InstanceList lists scheduled instances matching the flag filters.
func (r *Runner) InstanceList(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	criteria := map[string]any{}
	if task := cmd.String("task"); task != "" {
		criteria["parent_task_id"] = task
	}
	if value := cmd.String("from"); value != "" {
		from, err := parseTimeFlag(value)
		if err != nil {
			return err
		}
		criteria["from"] = from
	}
	if value := cmd.String("to"); value != "" {
		to, err := parseTimeFlag(value)
		if err != nil {
			return err
		}
		criteria["to"] = to
	}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}

	instances, err := store.Instances.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(instances, cmd.Bool("pretty"))
	}

	if len(instances) == 0 {
		return r.writePlain("No instances found\n")
	}

	for _, instance := range instances {
		marker := " "
		if instance.Modified() {
			marker = "*"
		}
		r.writePlain("%s %s  %-40s [%s]  %s\n",
			marker, shared.FormatDateTime(instance.ScheduledAt()), instance.Title(), instance.Status(), instance.ID())
	}
	return nil
}

// InstanceEdit changes one instance, leaving its siblings alone. The edit
// pins the instance so future regenerations keep it.
func (r *Runner) InstanceEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: instance id", shared.ErrMissingArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	instance, err := store.Instances.Get(id)
	if err != nil {
		return err
	}

	if value := cmd.String("title"); value != "" {
		instance.SetTitle(value)
	}
	if value := cmd.String("description"); value != "" {
		instance.SetDescription(value)
	}
	if value := cmd.String("time"); value != "" {
		at, err := parseTimeFlag(value)
		if err != nil {
			return err
		}
		instance.SetScheduledAt(at)
	}

	if err := store.Instances.Update(instance); err != nil {
		return err
	}

	r.logger.Info("instance edited", "id", instance.ID())
	return r.writePlain("✓ Edited instance %s\n", instance.ID())
}

// InstanceDone marks an instance completed.
func (r *Runner) InstanceDone(ctx context.Context, cmd *cli.Command) error {
	return r.setInstanceStatus(cmd, models.StatusDone)
}

// InstanceSkip skips an instance.
func (r *Runner) InstanceSkip(ctx context.Context, cmd *cli.Command) error {
	return r.setInstanceStatus(cmd, models.StatusSkipped)
}

// InstanceCancel cancels an instance.
func (r *Runner) InstanceCancel(ctx context.Context, cmd *cli.Command) error {
	return r.setInstanceStatus(cmd, models.StatusCanceled)
}

func (r *Runner) setInstanceStatus(cmd *cli.Command, status models.Status) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: instance id", shared.ErrMissingArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	instance, err := store.Instances.Get(id)
	if err != nil {
		return err
	}

	instance.ApplyStatus(status, r.now())
	if err := store.Instances.Update(instance); err != nil {
		return err
	}

	r.logger.Info("instance status changed", "id", instance.ID(), "status", status)
	return r.writePlain("✓ Marked instance %s %s\n", instance.ID(), status)
}
