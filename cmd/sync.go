package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Sync regenerates scheduled instances. With --task it synchronizes one task,
// otherwise every active rule in turn.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	synchronizer := r.newSynchronizer(store)

	if taskID := cmd.String("task"); taskID != "" {
		if err := synchronizer.SynchronizeTask(taskID); err != nil {
			return err
		}
		return r.writePlain("✓ Synchronized task %s\n", taskID)
	}

	rules, err := store.Rules.List(map[string]any{"is_active": true})
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	synced := 0
	for _, rule := range rules {
		if err := synchronizer.SynchronizeTask(rule.TaskID()); err != nil {
			r.logger.Error("failed to synchronize task", "task", rule.TaskID(), "error", err)
			continue
		}
		synced++
	}

	r.logger.Info("synchronization pass complete", "rules", len(rules), "synced", synced)
	return r.writePlain("✓ Synchronized %d of %d recurring tasks\n", synced, len(rules))
}
