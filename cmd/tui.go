package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/repositories"
	"github.com/desertthunder/dayplan/internal/shared"
	"github.com/desertthunder/dayplan/internal/ui"
	"github.com/urfave/cli/v3"
)

// storeSource adapts the repositories to [ui.DataSource].
type storeSource struct {
	store *repositories.Store
	now   func() time.Time
}

func (s *storeSource) ListTasks() ([]*models.Task, error) {
	return s.store.Tasks.List(map[string]any{})
}

func (s *storeSource) HasRule(taskID string) bool {
	_, err := s.store.Rules.GetByTask(taskID)
	return err == nil
}

func (s *storeSource) ListInstances(taskID string) ([]*models.TaskInstance, error) {
	return s.store.Instances.List(map[string]any{"parent_task_id": taskID})
}

func (s *storeSource) SetInstanceStatus(id string, status models.Status) (*models.TaskInstance, error) {
	instance, err := s.store.Instances.Get(id)
	if err != nil {
		return nil, err
	}

	instance.ApplyStatus(status, s.now())
	if err := s.store.Instances.Update(instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// TUI launches the interactive terminal UI for browsing the plan.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := store.Tasks.List(map[string]any{}); err != nil {
		return fmt.Errorf("%w: run 'dayplan setup database' first: %v", shared.ErrStorageFailure, errors.Unwrap(err))
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/dayplan-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(&storeSource{store: store, now: r.now})
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
