package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/repositories"
	"github.com/desertthunder/dayplan/internal/shared"
	tu "github.com/desertthunder/dayplan/internal/testing"
)

func fixedClock() time.Time {
	return time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
}

func testTask(start time.Time) *models.Task {
	task := models.NewTask(1, "Water the plants", "Back porch first", start)
	task.SetID("task-1")
	return task
}

func testRule(freq models.Frequency) *models.RecurrenceRule {
	rule := models.NewRecurrenceRule("task-1", freq)
	rule.SetID("rule-1")
	return rule
}

func newMockSynchronizer(tasks *tu.MockTaskStore, instances *tu.MockInstanceStore, horizonDays int) *Synchronizer {
	return NewSynchronizer(SynchronizerOpts{
		Tasks:       tasks,
		Instances:   instances,
		HorizonDays: horizonDays,
		Clock:       fixedClock,
	})
}

func TestSynchronize(t *testing.T) {
	t.Run("materializes instances within the horizon", func(t *testing.T) {
		task := testTask(fixedClock())
		rule := testRule(models.Daily)
		tasks := &tu.MockTaskStore{Task: task, Rule: rule}
		instances := &tu.MockInstanceStore{}

		s := newMockSynchronizer(tasks, instances, 5)
		if err := s.Synchronize(task, rule); err != nil {
			t.Fatalf("Synchronize failed: %v", err)
		}

		if len(instances.Created) != 6 {
			t.Fatalf("Expected 6 instances, got %d", len(instances.Created))
		}
		for _, inst := range instances.Created {
			if inst.Status() != models.StatusPlanned {
				t.Errorf("Expected planned status, got %s", inst.Status())
			}
			if inst.Title() != task.Title() {
				t.Errorf("Expected snapshot title %q, got %q", task.Title(), inst.Title())
			}
			if inst.Modified() {
				t.Error("Fresh instance should not be marked modified")
			}
		}
		if tasks.SavedCount != 6 {
			t.Errorf("Expected saved occurrence count 6, got %d", tasks.SavedCount)
		}
	})

	t.Run("skips occurrences that already have instances", func(t *testing.T) {
		task := testTask(fixedClock())
		rule := testRule(models.Daily)
		tasks := &tu.MockTaskStore{Task: task, Rule: rule}

		first := &tu.MockInstanceStore{}
		s := newMockSynchronizer(tasks, first, 5)
		if err := s.Synchronize(task, rule); err != nil {
			t.Fatalf("First synchronize failed: %v", err)
		}

		existing := make(map[time.Time]*models.TaskInstance, len(first.Created))
		for _, inst := range first.Created {
			existing[inst.ScheduledAt().UTC()] = inst
		}

		second := &tu.MockInstanceStore{Existing: existing}
		s = newMockSynchronizer(tasks, second, 5)
		if err := s.Synchronize(task, rule); err != nil {
			t.Fatalf("Second synchronize failed: %v", err)
		}

		if len(second.Created) != 0 {
			t.Errorf("Expected no duplicate instances, got %d", len(second.Created))
		}
		if tasks.SavedCount != 6 {
			t.Errorf("Expected occurrence count 6 either way, got %d", tasks.SavedCount)
		}
	})

	t.Run("counts past occurrences toward the rule count", func(t *testing.T) {
		task := testTask(fixedClock().AddDate(0, 0, -3))
		rule := testRule(models.Daily)
		tasks := &tu.MockTaskStore{Task: task, Rule: rule}
		instances := &tu.MockInstanceStore{}

		s := newMockSynchronizer(tasks, instances, 2)
		if err := s.Synchronize(task, rule); err != nil {
			t.Fatalf("Synchronize failed: %v", err)
		}

		// Dec 29 through Jan 3, past days included.
		if tasks.SavedCount != 6 {
			t.Errorf("Expected occurrence count 6, got %d", tasks.SavedCount)
		}
		if rule.CurrentCount() != 6 {
			t.Errorf("Expected rule current count 6, got %d", rule.CurrentCount())
		}
	})

	t.Run("inactive rule is a no-op", func(t *testing.T) {
		task := testTask(fixedClock())
		rule := testRule(models.Daily)
		rule.SetActive(false)

		instances := &tu.MockInstanceStore{DeleteErr: errors.New("storage must not be touched")}
		s := newMockSynchronizer(&tu.MockTaskStore{}, instances, 5)

		if err := s.Synchronize(task, rule); err != nil {
			t.Fatalf("Expected no-op, got error: %v", err)
		}
	})

	t.Run("invalid rule is rejected before storage", func(t *testing.T) {
		task := testTask(fixedClock())
		rule := testRule(models.Daily)
		rule.SetInterval(0)

		instances := &tu.MockInstanceStore{DeleteErr: errors.New("storage must not be touched")}
		s := newMockSynchronizer(&tu.MockTaskStore{}, instances, 5)

		err := s.Synchronize(task, rule)
		if !errors.Is(err, shared.ErrInvalidRule) {
			t.Fatalf("Expected ErrInvalidRule, got %v", err)
		}
	})

	t.Run("purge failure aborts the run", func(t *testing.T) {
		task := testTask(fixedClock())
		rule := testRule(models.Daily)
		instances := &tu.MockInstanceStore{DeleteErr: errors.New("disk full")}

		s := newMockSynchronizer(&tu.MockTaskStore{}, instances, 5)
		err := s.Synchronize(task, rule)

		if !errors.Is(err, shared.ErrStorageFailure) {
			t.Fatalf("Expected ErrStorageFailure, got %v", err)
		}
		if len(instances.Created) != 0 {
			t.Errorf("Expected no instances after purge failure, got %d", len(instances.Created))
		}
	})

	t.Run("insert failure aborts remaining inserts", func(t *testing.T) {
		task := testTask(fixedClock())
		rule := testRule(models.Daily)
		tasks := &tu.MockTaskStore{}
		instances := &tu.MockInstanceStore{CreateErr: errors.New("disk full")}

		s := newMockSynchronizer(tasks, instances, 5)
		err := s.Synchronize(task, rule)

		if !errors.Is(err, shared.ErrStorageFailure) {
			t.Fatalf("Expected ErrStorageFailure, got %v", err)
		}
		if tasks.SavedCount != 0 {
			t.Errorf("Expected rule count untouched after failure, got %d", tasks.SavedCount)
		}
	})
}

func TestSynchronizeWithDatabase(t *testing.T) {
	setup := func(t *testing.T) (*repositories.Store, *Synchronizer, *models.Task, *models.RecurrenceRule) {
		t.Helper()
		db := tu.OpenTestDB(t)
		store := repositories.NewStore(db)

		task := models.NewTask(0, "Water the plants", "", fixedClock())
		if err := store.Tasks.Create(task); err != nil {
			t.Fatalf("Failed to create task: %v", err)
		}

		rule := models.NewRecurrenceRule(task.ID(), models.Daily)
		if err := store.Rules.Create(rule); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}

		s := NewSynchronizer(SynchronizerOpts{
			Tasks:       store,
			Instances:   store.Instances,
			HorizonDays: 5,
			Clock:       fixedClock,
		})
		return store, s, task, rule
	}

	t.Run("SynchronizeTask materializes and persists the count", func(t *testing.T) {
		store, s, task, rule := setup(t)

		if err := s.SynchronizeTask(task.ID()); err != nil {
			t.Fatalf("SynchronizeTask failed: %v", err)
		}

		list, err := store.Instances.List(map[string]any{"recurrence_id": rule.ID()})
		if err != nil {
			t.Fatalf("Failed to list instances: %v", err)
		}
		if len(list) != 6 {
			t.Fatalf("Expected 6 instances, got %d", len(list))
		}

		saved, err := store.Rules.Get(rule.ID())
		if err != nil {
			t.Fatalf("Failed to reload rule: %v", err)
		}
		if saved.CurrentCount() != 6 {
			t.Errorf("Expected persisted count 6, got %d", saved.CurrentCount())
		}
	})

	t.Run("running twice leaves the instance set unchanged", func(t *testing.T) {
		store, s, task, rule := setup(t)

		if err := s.SynchronizeTask(task.ID()); err != nil {
			t.Fatalf("First run failed: %v", err)
		}
		if err := s.SynchronizeTask(task.ID()); err != nil {
			t.Fatalf("Second run failed: %v", err)
		}

		list, err := store.Instances.List(map[string]any{"recurrence_id": rule.ID()})
		if err != nil {
			t.Fatalf("Failed to list instances: %v", err)
		}
		if len(list) != 6 {
			t.Errorf("Expected 6 instances after rerun, got %d", len(list))
		}
	})

	t.Run("modified instances survive a rule change", func(t *testing.T) {
		store, s, task, rule := setup(t)

		if err := s.SynchronizeTask(task.ID()); err != nil {
			t.Fatalf("First run failed: %v", err)
		}

		list, err := store.Instances.List(map[string]any{"recurrence_id": rule.ID()})
		if err != nil {
			t.Fatalf("Failed to list instances: %v", err)
		}

		// Jan 3 is a future occurrence; edit it so regeneration must keep it.
		var edited *models.TaskInstance
		for _, inst := range list {
			if inst.ScheduledAt().Day() == 3 {
				edited = inst
				break
			}
		}
		if edited == nil {
			t.Fatal("Expected an instance on Jan 3")
		}
		edited.SetTitle("Water the plants (and the ferns)")
		if err := store.Instances.Update(edited); err != nil {
			t.Fatalf("Failed to update instance: %v", err)
		}

		rule.SetInterval(2)
		if err := store.Rules.Update(rule); err != nil {
			t.Fatalf("Failed to update rule: %v", err)
		}

		if err := s.SynchronizeTask(task.ID()); err != nil {
			t.Fatalf("Second run failed: %v", err)
		}

		list, err = store.Instances.List(map[string]any{"recurrence_id": rule.ID()})
		if err != nil {
			t.Fatalf("Failed to list instances: %v", err)
		}

		// Jan 1 (not future), the edited Jan 3, and the new cadence's Jan 5.
		if len(list) != 3 {
			t.Fatalf("Expected 3 instances after rule change, got %d", len(list))
		}

		found := false
		for _, inst := range list {
			if inst.ID() == edited.ID() {
				found = true
				if inst.Title() != "Water the plants (and the ferns)" {
					t.Errorf("Expected edited title preserved, got %q", inst.Title())
				}
				if !inst.Modified() {
					t.Error("Expected edited instance to stay marked modified")
				}
			}
		}
		if !found {
			t.Error("Edited instance was deleted by regeneration")
		}
	})
}
