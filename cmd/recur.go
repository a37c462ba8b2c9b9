package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
	"github.com/urfave/cli/v3"
)

// RecurSet creates or replaces a task's recurrence rule, then regenerates its
// scheduled instances.
func (r *Runner) RecurSet(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("until") != "" && cmd.Int("count") > 0 {
		return fmt.Errorf("%w: cannot specify both --until and --count", shared.ErrInvalidArgument)
	}

	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := store.Tasks.Get(cmd.String("task"))
	if err != nil {
		return err
	}

	freq, err := models.ParseFrequency(cmd.String("freq"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	rule := models.NewRecurrenceRule(task.ID(), freq)
	rule.SetInterval(int(cmd.Int("interval")))

	if value := cmd.String("days"); value != "" {
		days, err := parseWeekdays(value)
		if err != nil {
			return err
		}
		rule.SetDaysOfWeek(days)
	}
	if day := cmd.Int("day-of-month"); day > 0 {
		rule.SetDayOfMonth(int(day))
	}
	if value := cmd.String("until"); value != "" {
		until, err := parseTimeFlag(value)
		if err != nil {
			return err
		}
		rule.SetEnd(models.EndOn(until))
	}
	if count := cmd.Int("count"); count > 0 {
		rule.SetEnd(models.EndAfter(int(count)))
	}

	if err := rule.Validate(); err != nil {
		return err
	}

	existing, err := store.Rules.GetByTask(task.ID())
	switch {
	case err == nil:
		rule.SetID(existing.ID())
		rule.SetCreatedAt(existing.CreatedAt())
		if err := store.Rules.Update(rule); err != nil {
			return err
		}
		r.logger.Info("recurrence rule replaced", "task", task.ID(), "freq", freq)
	case errors.Is(err, shared.ErrRuleNotFound):
		if err := store.Rules.Create(rule); err != nil {
			return err
		}
		r.logger.Info("recurrence rule created", "task", task.ID(), "freq", freq)
	default:
		return err
	}

	if err := r.newSynchronizer(store).Synchronize(task, rule); err != nil {
		return err
	}

	return r.writePlain("✓ %s repeats %s (every %d)\n", task.Title(), rule.Frequency(), rule.Interval())
}

// RecurShow prints a task's recurrence rule.
func (r *Runner) RecurShow(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	rule, err := store.Rules.GetByTask(cmd.String("task"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(rule, cmd.Bool("pretty"))
	}

	state := "active"
	if !rule.Active() {
		state = "paused"
	}
	r.writePlain("Frequency: %s (every %d, %s)\n", rule.Frequency(), rule.Interval(), state)

	if days := rule.DaysOfWeek(); len(days) > 0 {
		r.writePlain("Weekdays: ")
		for i, day := range days {
			if i > 0 {
				r.writePlain(", ")
			}
			r.writePlain("%s", day)
		}
		r.writePlain("\n")
	}
	if day := rule.DayOfMonth(); day > 0 {
		r.writePlain("Day of month: %d\n", day)
	}

	end := rule.End()
	switch end.Kind() {
	case models.EndOnDate:
		r.writePlain("Ends: %s\n", shared.FormatDate(end.Date()))
	case models.EndAfterCount:
		r.writePlain("Ends: after %d occurrences (%d so far)\n", end.Count(), rule.CurrentCount())
	default:
		r.writePlain("Ends: never\n")
	}
	return nil
}

// RecurPause deactivates a rule. Existing instances stay put.
func (r *Runner) RecurPause(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	rule, err := store.Rules.GetByTask(cmd.String("task"))
	if err != nil {
		return err
	}

	rule.SetActive(false)
	if err := store.Rules.Update(rule); err != nil {
		return err
	}

	r.logger.Info("recurrence rule paused", "task", rule.TaskID())
	return r.writePlain("✓ Paused recurrence for task %s\n", rule.TaskID())
}

// RecurResume reactivates a rule and regenerates instances.
func (r *Runner) RecurResume(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	rule, err := store.Rules.GetByTask(cmd.String("task"))
	if err != nil {
		return err
	}

	rule.SetActive(true)
	if err := store.Rules.Update(rule); err != nil {
		return err
	}

	r.logger.Info("recurrence rule resumed", "task", rule.TaskID())
	if err := r.newSynchronizer(store).SynchronizeTask(rule.TaskID()); err != nil {
		return err
	}

	return r.writePlain("✓ Resumed recurrence for task %s\n", rule.TaskID())
}

// RecurRemove deletes a rule. Generated instances go with it.
func (r *Runner) RecurRemove(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	rule, err := store.Rules.GetByTask(cmd.String("task"))
	if err != nil {
		return err
	}

	if err := store.Rules.Delete(rule.ID()); err != nil {
		return err
	}

	r.logger.Info("recurrence rule removed", "task", rule.TaskID())
	return r.writePlain("✓ Removed recurrence for task %s\n", rule.TaskID())
}
