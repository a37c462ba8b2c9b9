// package testing contains shared testing utilities
package testing

import (
	"database/sql"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
)

// OpenTestDB opens an in-memory database with the schema applied.
//
// The connection is closed when the test finishes.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// An in-memory database exists per connection; keep the pool at one so
	// every statement sees the same schema.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// MockTaskStore is a test double for [recurrence.TaskStore]
type MockTaskStore struct {
	Task *models.Task
	Rule *models.RecurrenceRule
	Err  error

	SavedCount int
}

func (m *MockTaskStore) GetTask(id string) (*models.Task, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Task, nil
}

func (m *MockTaskStore) GetRuleByTask(taskID string) (*models.RecurrenceRule, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rule, nil
}

func (m *MockTaskStore) SaveRuleCount(id string, count int) error {
	if m.Err != nil {
		return m.Err
	}
	m.SavedCount = count
	return nil
}

// MockInstanceStore is a test double for [recurrence.InstanceStore].
//
// Each operation can be made to fail independently.
type MockInstanceStore struct {
	Existing  map[time.Time]*models.TaskInstance
	DeleteErr error
	FindErr   error
	CreateErr error

	Purged  int
	Created []*models.TaskInstance
}

func (m *MockInstanceStore) DeleteFutureUnmodified(recurrenceID string, after time.Time) (int, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	return m.Purged, nil
}

func (m *MockInstanceStore) FindByTime(recurrenceID string, at time.Time) (*models.TaskInstance, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if inst, ok := m.Existing[at.UTC()]; ok {
		return inst, nil
	}
	return nil, nil
}

func (m *MockInstanceStore) Create(instance *models.TaskInstance) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, instance)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
