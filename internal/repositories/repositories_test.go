package repositories

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
	tu "github.com/desertthunder/dayplan/internal/testing"
)

func mustCreateTask(t *testing.T, store *Store, title string, start time.Time) *models.Task {
	t.Helper()
	task := models.NewTask(0, title, "", start)
	if err := store.Tasks.Create(task); err != nil {
		t.Fatalf("Failed to create task %q: %v", title, err)
	}
	return task
}

func TestNextSequence(t *testing.T) {
	db := tu.OpenTestDB(t)

	first, err := NextSequence(db, "tasks")
	if err != nil {
		t.Fatalf("NextSequence failed: %v", err)
	}
	second, err := NextSequence(db, "tasks")
	if err != nil {
		t.Fatalf("NextSequence failed: %v", err)
	}

	if second != first+1 {
		t.Errorf("Expected consecutive sequences, got %d then %d", first, second)
	}
}

func TestTaskRepository(t *testing.T) {
	start := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	t.Run("create assigns identity and sequence", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		task := mustCreateTask(t, store, "Plan sprint", start)

		if task.ID() == "" {
			t.Error("Expected generated ID")
		}
		if task.Sequence() == 0 {
			t.Error("Expected assigned sequence")
		}
	})

	t.Run("get round-trips fields", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		task := mustCreateTask(t, store, "Plan sprint", start)
		task.SetPriority(models.PriorityHigh)
		deadline := start.AddDate(0, 0, 7)
		task.SetDeadline(&deadline)
		if err := store.Tasks.Update(task); err != nil {
			t.Fatalf("Failed to update task: %v", err)
		}

		got, err := store.Tasks.Get(task.ID())
		if err != nil {
			t.Fatalf("Failed to get task: %v", err)
		}
		if got.Title() != "Plan sprint" || got.Priority() != models.PriorityHigh {
			t.Errorf("Round-trip mismatch: %q %s", got.Title(), got.Priority())
		}
		if got.Deadline() == nil || !got.Deadline().Equal(deadline) {
			t.Error("Expected deadline round-trip")
		}
	})

	t.Run("get returns ErrTaskNotFound for unknown id", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		if _, err := store.Tasks.Get("nope"); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("Expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("delete is soft", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		task := mustCreateTask(t, store, "Plan sprint", start)

		if err := store.Tasks.Delete(task.ID()); err != nil {
			t.Fatalf("Failed to delete task: %v", err)
		}
		if _, err := store.Tasks.Get(task.ID()); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("Expected deleted task hidden, got %v", err)
		}
	})

	t.Run("list filters by status and search", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		a := mustCreateTask(t, store, "Water the plants", start)
		mustCreateTask(t, store, "Pay rent", start)

		a.SetStatus(models.StatusDone)
		if err := store.Tasks.Update(a); err != nil {
			t.Fatalf("Failed to update task: %v", err)
		}

		done, err := store.Tasks.List(map[string]any{"status": "done"})
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(done) != 1 || done[0].ID() != a.ID() {
			t.Errorf("Expected only the done task, got %d", len(done))
		}

		found, err := store.Tasks.List(map[string]any{"search": "plants"})
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(found) != 1 || found[0].Title() != "Water the plants" {
			t.Errorf("Expected search hit, got %d", len(found))
		}
	})

	t.Run("list hides archived tasks unless asked", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		a := mustCreateTask(t, store, "Old project", start)
		mustCreateTask(t, store, "Active project", start)

		a.SetArchived(true)
		if err := store.Tasks.Update(a); err != nil {
			t.Fatalf("Failed to update task: %v", err)
		}

		visible, err := store.Tasks.List(map[string]any{})
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(visible) != 1 {
			t.Errorf("Expected archived hidden by default, got %d tasks", len(visible))
		}

		all, err := store.Tasks.List(map[string]any{"include_archived": true})
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("Expected both tasks, got %d", len(all))
		}
	})
}

func TestTagRepository(t *testing.T) {
	start := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	t.Run("create enforces unique names", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		tag := models.NewTag(0, "errands", "")
		if err := store.Tags.Create(tag); err != nil {
			t.Fatalf("Failed to create tag: %v", err)
		}
		if tag.Sequence() == 0 {
			t.Error("Expected assigned sequence")
		}

		dup := models.NewTag(0, "errands", "")
		if err := store.Tags.Create(dup); !errors.Is(err, shared.ErrTagExists) {
			t.Errorf("Expected ErrTagExists, got %v", err)
		}
	})

	t.Run("attach and list for task", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		task := mustCreateTask(t, store, "Buy groceries", start)

		tag := models.NewTag(0, "errands", "#33AA55")
		if err := store.Tags.Create(tag); err != nil {
			t.Fatalf("Failed to create tag: %v", err)
		}

		if err := store.Tags.Attach(task.ID(), tag.ID()); err != nil {
			t.Fatalf("Failed to attach tag: %v", err)
		}
		// Attaching twice is a no-op.
		if err := store.Tags.Attach(task.ID(), tag.ID()); err != nil {
			t.Fatalf("Expected repeat attach to succeed: %v", err)
		}

		tags, err := store.Tags.ListForTask(task.ID())
		if err != nil {
			t.Fatalf("Failed to list tags: %v", err)
		}
		if len(tags) != 1 || tags[0].Name() != "errands" {
			t.Errorf("Expected one attached tag, got %d", len(tags))
		}

		if err := store.Tags.Detach(task.ID(), tag.ID()); err != nil {
			t.Fatalf("Failed to detach tag: %v", err)
		}
		tags, err = store.Tags.ListForTask(task.ID())
		if err != nil {
			t.Fatalf("Failed to list tags: %v", err)
		}
		if len(tags) != 0 {
			t.Errorf("Expected no tags after detach, got %d", len(tags))
		}
	})

	t.Run("get by name", func(t *testing.T) {
		store := NewStore(tu.OpenTestDB(t))
		tag := models.NewTag(0, "deep-work", "")
		if err := store.Tags.Create(tag); err != nil {
			t.Fatalf("Failed to create tag: %v", err)
		}

		got, err := store.Tags.GetByName("deep-work")
		if err != nil {
			t.Fatalf("Failed to get tag by name: %v", err)
		}
		if got.ID() != tag.ID() {
			t.Error("Expected matching tag")
		}

		if _, err := store.Tags.GetByName("missing"); !errors.Is(err, shared.ErrTagNotFound) {
			t.Errorf("Expected ErrTagNotFound, got %v", err)
		}
	})
}

func TestRecurrenceRepository(t *testing.T) {
	start := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*Store, *models.Task) {
		t.Helper()
		store := NewStore(tu.OpenTestDB(t))
		return store, mustCreateTask(t, store, "Standup", start)
	}

	t.Run("create and round-trip a weekly rule", func(t *testing.T) {
		store, task := setup(t)

		rule := models.NewRecurrenceRule(task.ID(), models.Weekly)
		rule.SetDaysOfWeek([]time.Weekday{time.Monday, time.Wednesday, time.Friday})
		rule.SetEnd(models.EndAfter(10))
		if err := store.Rules.Create(rule); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}

		got, err := store.Rules.GetByTask(task.ID())
		if err != nil {
			t.Fatalf("Failed to get rule: %v", err)
		}
		if got.Frequency() != models.Weekly {
			t.Errorf("Expected weekly, got %s", got.Frequency())
		}
		if len(got.DaysOfWeek()) != 3 {
			t.Errorf("Expected 3 weekdays, got %d", len(got.DaysOfWeek()))
		}
		if got.End().Kind() != models.EndAfterCount || got.End().Count() != 10 {
			t.Errorf("Expected count end condition, got %s/%d", got.End().Kind(), got.End().Count())
		}
	})

	t.Run("end date round-trips", func(t *testing.T) {
		store, task := setup(t)

		until := time.Date(2025, time.December, 31, 9, 0, 0, 0, time.UTC)
		rule := models.NewRecurrenceRule(task.ID(), models.Daily)
		rule.SetEnd(models.EndOn(until))
		if err := store.Rules.Create(rule); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}

		got, err := store.Rules.Get(rule.ID())
		if err != nil {
			t.Fatalf("Failed to get rule: %v", err)
		}
		if got.End().Kind() != models.EndOnDate || !got.End().Date().Equal(until) {
			t.Errorf("Expected end date %v, got %v", until, got.End().Date())
		}
	})

	t.Run("one rule per task", func(t *testing.T) {
		store, task := setup(t)

		if err := store.Rules.Create(models.NewRecurrenceRule(task.ID(), models.Daily)); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}
		err := store.Rules.Create(models.NewRecurrenceRule(task.ID(), models.Weekly))
		if !errors.Is(err, shared.ErrRuleExists) {
			t.Errorf("Expected ErrRuleExists, got %v", err)
		}
	})

	t.Run("delete cascades instances across pooled connections", func(t *testing.T) {
		db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "cascade.db"))
		if err != nil {
			t.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("Failed to run migrations: %v", err)
		}

		store := NewStore(db)
		task := mustCreateTask(t, store, "Standup", start)
		rule := models.NewRecurrenceRule(task.ID(), models.Daily)
		if err := store.Rules.Create(rule); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}
		inst := models.NewTaskInstance(task, rule.ID(), start)
		if err := store.Instances.Create(inst); err != nil {
			t.Fatalf("Failed to create instance: %v", err)
		}

		// Drop idle connections so the delete runs on a connection the
		// initial statements never touched.
		db.SetMaxIdleConns(0)

		if err := store.Rules.Delete(rule.ID()); err != nil {
			t.Fatalf("Failed to delete rule: %v", err)
		}

		orphans, err := store.Instances.List(map[string]any{"recurrence_id": rule.ID()})
		if err != nil {
			t.Fatalf("Failed to list instances: %v", err)
		}
		if len(orphans) != 0 {
			t.Errorf("Expected instances removed with their rule, got %d", len(orphans))
		}
	})

	t.Run("save count persists", func(t *testing.T) {
		store, task := setup(t)

		rule := models.NewRecurrenceRule(task.ID(), models.Daily)
		if err := store.Rules.Create(rule); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}

		if err := store.Rules.SaveCount(rule.ID(), 42); err != nil {
			t.Fatalf("Failed to save count: %v", err)
		}
		got, err := store.Rules.Get(rule.ID())
		if err != nil {
			t.Fatalf("Failed to get rule: %v", err)
		}
		if got.CurrentCount() != 42 {
			t.Errorf("Expected count 42, got %d", got.CurrentCount())
		}
	})

	t.Run("list filters by active", func(t *testing.T) {
		store, task := setup(t)
		other := mustCreateTask(t, store, "Retro", start)

		active := models.NewRecurrenceRule(task.ID(), models.Daily)
		if err := store.Rules.Create(active); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}

		paused := models.NewRecurrenceRule(other.ID(), models.Weekly)
		paused.SetActive(false)
		if err := store.Rules.Create(paused); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}

		rules, err := store.Rules.List(map[string]any{"is_active": true})
		if err != nil {
			t.Fatalf("Failed to list rules: %v", err)
		}
		if len(rules) != 1 || rules[0].ID() != active.ID() {
			t.Errorf("Expected only the active rule, got %d", len(rules))
		}
	})
}

func TestInstanceRepository(t *testing.T) {
	start := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*Store, *models.Task, *models.RecurrenceRule) {
		t.Helper()
		store := NewStore(tu.OpenTestDB(t))
		task := mustCreateTask(t, store, "Standup", start)
		rule := models.NewRecurrenceRule(task.ID(), models.Daily)
		if err := store.Rules.Create(rule); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}
		return store, task, rule
	}

	createInstance := func(t *testing.T, store *Store, task *models.Task, ruleID string, at time.Time) *models.TaskInstance {
		t.Helper()
		inst := models.NewTaskInstance(task, ruleID, at)
		if err := store.Instances.Create(inst); err != nil {
			t.Fatalf("Failed to create instance at %v: %v", at, err)
		}
		return inst
	}

	t.Run("find by time matches the exact datetime", func(t *testing.T) {
		store, task, rule := setup(t)
		inst := createInstance(t, store, task, rule.ID(), start)

		got, err := store.Instances.FindByTime(rule.ID(), start)
		if err != nil {
			t.Fatalf("FindByTime failed: %v", err)
		}
		if got == nil || got.ID() != inst.ID() {
			t.Error("Expected to find the instance at its scheduled time")
		}

		got, err = store.Instances.FindByTime(rule.ID(), start.Add(time.Minute))
		if err != nil {
			t.Fatalf("FindByTime failed: %v", err)
		}
		if got != nil {
			t.Error("Expected nil for a time with no instance")
		}
	})

	t.Run("update marks the instance modified", func(t *testing.T) {
		store, task, rule := setup(t)
		inst := createInstance(t, store, task, rule.ID(), start)

		inst.SetTitle("Standup (remote)")
		if err := store.Instances.Update(inst); err != nil {
			t.Fatalf("Failed to update instance: %v", err)
		}

		got, err := store.Instances.Get(inst.ID())
		if err != nil {
			t.Fatalf("Failed to get instance: %v", err)
		}
		if !got.Modified() {
			t.Error("Expected instance marked modified after update")
		}
		if got.Title() != "Standup (remote)" {
			t.Errorf("Expected updated title, got %q", got.Title())
		}
	})

	t.Run("status updates stamp timestamps", func(t *testing.T) {
		store, task, rule := setup(t)
		inst := createInstance(t, store, task, rule.ID(), start)

		inst.ApplyStatus(models.StatusDone, start.Add(time.Hour))
		if err := store.Instances.Update(inst); err != nil {
			t.Fatalf("Failed to update instance: %v", err)
		}

		got, err := store.Instances.Get(inst.ID())
		if err != nil {
			t.Fatalf("Failed to get instance: %v", err)
		}
		if got.Status() != models.StatusDone {
			t.Errorf("Expected done, got %s", got.Status())
		}
		if got.CompletedAt() == nil {
			t.Error("Expected completed_at persisted")
		}
	})

	t.Run("delete future unmodified spares past and edited instances", func(t *testing.T) {
		store, task, rule := setup(t)

		past := createInstance(t, store, task, rule.ID(), start.AddDate(0, 0, -1))
		createInstance(t, store, task, rule.ID(), start.AddDate(0, 0, 1))
		edited := createInstance(t, store, task, rule.ID(), start.AddDate(0, 0, 2))
		createInstance(t, store, task, rule.ID(), start.AddDate(0, 0, 3))

		edited.SetTitle("Standup (moved)")
		if err := store.Instances.Update(edited); err != nil {
			t.Fatalf("Failed to update instance: %v", err)
		}

		purged, err := store.Instances.DeleteFutureUnmodified(rule.ID(), start)
		if err != nil {
			t.Fatalf("DeleteFutureUnmodified failed: %v", err)
		}
		if purged != 2 {
			t.Errorf("Expected 2 purged, got %d", purged)
		}

		remaining, err := store.Instances.List(map[string]any{"recurrence_id": rule.ID()})
		if err != nil {
			t.Fatalf("Failed to list instances: %v", err)
		}
		if len(remaining) != 2 {
			t.Fatalf("Expected 2 remaining, got %d", len(remaining))
		}
		if remaining[0].ID() != past.ID() || remaining[1].ID() != edited.ID() {
			t.Error("Expected the past and edited instances to survive")
		}
	})

	t.Run("list filters by window and status", func(t *testing.T) {
		store, task, rule := setup(t)

		createInstance(t, store, task, rule.ID(), start)
		inWindow := createInstance(t, store, task, rule.ID(), start.AddDate(0, 0, 2))
		createInstance(t, store, task, rule.ID(), start.AddDate(0, 0, 5))

		list, err := store.Instances.List(map[string]any{
			"from": start.AddDate(0, 0, 1),
			"to":   start.AddDate(0, 0, 3),
		})
		if err != nil {
			t.Fatalf("Failed to list instances: %v", err)
		}
		if len(list) != 1 || list[0].ID() != inWindow.ID() {
			t.Errorf("Expected one instance in window, got %d", len(list))
		}
	})

	t.Run("duplicate scheduled time is rejected", func(t *testing.T) {
		store, task, rule := setup(t)
		createInstance(t, store, task, rule.ID(), start)

		dup := models.NewTaskInstance(task, rule.ID(), start)
		if err := store.Instances.Create(dup); err == nil {
			t.Error("Expected unique constraint violation for duplicate scheduled time")
		}
	})
}
