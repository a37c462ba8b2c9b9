package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/dayplan/internal/repositories"
	"github.com/desertthunder/dayplan/internal/shared"
	tu "github.com/desertthunder/dayplan/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestParseTimeFlag(t *testing.T) {
	t.Run("accepts a bare date", func(t *testing.T) {
		got, err := parseTimeFlag("2025-06-15")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Year() != 2025 || got.Month() != time.June || got.Day() != 15 {
			t.Errorf("unexpected date: %v", got)
		}
	})

	t.Run("accepts date with time", func(t *testing.T) {
		got, err := parseTimeFlag("2025-06-15 09:30")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Hour() != 9 || got.Minute() != 30 {
			t.Errorf("unexpected clock: %v", got)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := parseTimeFlag("next tuesday"); err == nil {
			t.Error("expected error for unparseable time")
		}
	})
}

func TestParseWeekdays(t *testing.T) {
	t.Run("accepts names and numbers", func(t *testing.T) {
		days, err := parseWeekdays("mon,3,fri")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
		if len(days) != len(want) {
			t.Fatalf("expected %d days, got %d", len(want), len(days))
		}
		for i := range want {
			if days[i] != want[i] {
				t.Errorf("day %d: expected %v, got %v", i, want[i], days[i])
			}
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		if _, err := parseWeekdays("mon,someday"); err == nil {
			t.Error("expected error for unknown weekday")
		}
	})
}

func TestCommands(t *testing.T) {
	fixedNow := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

	newApp := func(t *testing.T) (*cli.Command, *repositories.Store, *bytes.Buffer) {
		t.Helper()
		db := tu.OpenTestDB(t)
		output := &bytes.Buffer{}

		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(&bytes.Buffer{}),
			Output: output,
			DB:     db,
			Clock:  func() time.Time { return fixedNow },
		})

		app := &cli.Command{Name: "dayplan", Commands: runner.register()}
		return app, repositories.NewStore(db), output
	}

	run := func(t *testing.T, app *cli.Command, args ...string) error {
		t.Helper()
		return app.Run(context.Background(), append([]string{"dayplan"}, args...))
	}

	t.Run("task add and list", func(t *testing.T) {
		app, store, output := newApp(t)

		if err := run(t, app, "task", "add", "--title", "Water the plants", "--priority", "high"); err != nil {
			t.Fatalf("task add failed: %v", err)
		}
		if !strings.Contains(output.String(), "Created task Water the plants") {
			t.Errorf("unexpected add output: %q", output.String())
		}

		tasks, err := store.Tasks.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list tasks: %v", err)
		}
		if len(tasks) != 1 || tasks[0].Title() != "Water the plants" {
			t.Fatalf("expected one created task, got %d", len(tasks))
		}

		output.Reset()
		if err := run(t, app, "task", "list"); err != nil {
			t.Fatalf("task list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Water the plants") {
			t.Errorf("expected task in listing, got %q", output.String())
		}
	})

	t.Run("task add rejects a bad priority", func(t *testing.T) {
		app, _, _ := newApp(t)

		err := run(t, app, "task", "add", "--title", "X", "--priority", "urgent")
		if err == nil {
			t.Fatal("expected error for unknown priority")
		}
	})

	t.Run("recur set generates instances", func(t *testing.T) {
		app, store, output := newApp(t)

		if err := run(t, app, "task", "add", "--title", "Standup"); err != nil {
			t.Fatalf("task add failed: %v", err)
		}
		tasks, _ := store.Tasks.List(map[string]any{})
		taskID := tasks[0].ID()

		if err := run(t, app, "recur", "set", "--task", taskID, "--freq", "daily", "--count", "5"); err != nil {
			t.Fatalf("recur set failed: %v", err)
		}

		instances, err := store.Instances.List(map[string]any{"parent_task_id": taskID})
		if err != nil {
			t.Fatalf("failed to list instances: %v", err)
		}
		if len(instances) != 5 {
			t.Errorf("expected 5 instances, got %d", len(instances))
		}

		output.Reset()
		if err := run(t, app, "instance", "list", "--task", taskID); err != nil {
			t.Fatalf("instance list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Standup") {
			t.Errorf("expected instances in listing, got %q", output.String())
		}
	})

	t.Run("recur set rejects until and count together", func(t *testing.T) {
		app, store, _ := newApp(t)

		if err := run(t, app, "task", "add", "--title", "Standup"); err != nil {
			t.Fatalf("task add failed: %v", err)
		}
		tasks, _ := store.Tasks.List(map[string]any{})

		err := run(t, app, "recur", "set", "--task", tasks[0].ID(), "--freq", "daily",
			"--until", "2025-12-31", "--count", "3")
		if err == nil {
			t.Fatal("expected error for conflicting end conditions")
		}
	})

	t.Run("instance done pins the instance", func(t *testing.T) {
		app, store, _ := newApp(t)

		if err := run(t, app, "task", "add", "--title", "Standup"); err != nil {
			t.Fatalf("task add failed: %v", err)
		}
		tasks, _ := store.Tasks.List(map[string]any{})
		taskID := tasks[0].ID()

		if err := run(t, app, "recur", "set", "--task", taskID, "--freq", "daily", "--count", "3"); err != nil {
			t.Fatalf("recur set failed: %v", err)
		}

		instances, _ := store.Instances.List(map[string]any{"parent_task_id": taskID})
		if err := run(t, app, "instance", "done", instances[0].ID()); err != nil {
			t.Fatalf("instance done failed: %v", err)
		}

		got, err := store.Instances.Get(instances[0].ID())
		if err != nil {
			t.Fatalf("failed to reload instance: %v", err)
		}
		if got.Status() != "done" || got.CompletedAt() == nil {
			t.Errorf("expected done with completed_at, got %s", got.Status())
		}
		if !got.Modified() {
			t.Error("expected status change to pin the instance")
		}
	})

	t.Run("tag attach and detach", func(t *testing.T) {
		app, store, _ := newApp(t)

		if err := run(t, app, "task", "add", "--title", "Buy groceries"); err != nil {
			t.Fatalf("task add failed: %v", err)
		}
		if err := run(t, app, "tag", "add", "errands", "--color", "#33AA55"); err != nil {
			t.Fatalf("tag add failed: %v", err)
		}

		tasks, _ := store.Tasks.List(map[string]any{})
		taskID := tasks[0].ID()

		if err := run(t, app, "tag", "attach", "--task", taskID, "--name", "errands"); err != nil {
			t.Fatalf("tag attach failed: %v", err)
		}

		tags, err := store.Tags.ListForTask(taskID)
		if err != nil {
			t.Fatalf("failed to list tags: %v", err)
		}
		if len(tags) != 1 {
			t.Fatalf("expected one attached tag, got %d", len(tags))
		}

		if err := run(t, app, "tag", "detach", "--task", taskID, "--name", "errands"); err != nil {
			t.Fatalf("tag detach failed: %v", err)
		}
		tags, _ = store.Tags.ListForTask(taskID)
		if len(tags) != 0 {
			t.Errorf("expected no tags after detach, got %d", len(tags))
		}
	})

	t.Run("agenda prints the scheduled window", func(t *testing.T) {
		app, store, output := newApp(t)

		if err := run(t, app, "task", "add", "--title", "Standup"); err != nil {
			t.Fatalf("task add failed: %v", err)
		}
		tasks, _ := store.Tasks.List(map[string]any{})

		if err := run(t, app, "recur", "set", "--task", tasks[0].ID(), "--freq", "daily", "--count", "3"); err != nil {
			t.Fatalf("recur set failed: %v", err)
		}

		output.Reset()
		if err := run(t, app, "agenda", "--days", "7"); err != nil {
			t.Fatalf("agenda failed: %v", err)
		}
		if !strings.Contains(output.String(), "Standup") {
			t.Errorf("expected agenda entries, got %q", output.String())
		}
	})

	t.Run("sync without rules reports zero", func(t *testing.T) {
		app, _, output := newApp(t)

		if err := run(t, app, "sync"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if !strings.Contains(output.String(), "Synchronized 0 of 0") {
			t.Errorf("unexpected sync output: %q", output.String())
		}
	})
}
