package recurrence

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
)

// DefaultHorizonDays is how far ahead instances are materialized when no
// horizon is configured.
const DefaultHorizonDays = 90

// TaskStore provides the parent task and rule lookups the synchronizer needs.
type TaskStore interface {
	GetTask(id string) (*models.Task, error)
	GetRuleByTask(taskID string) (*models.RecurrenceRule, error)
	SaveRuleCount(ruleID string, count int) error
}

// InstanceStore persists materialized occurrences.
//
// FindByTime returns (nil, nil) when no instance exists for the exact
// scheduled time.
type InstanceStore interface {
	DeleteFutureUnmodified(recurrenceID string, now time.Time) (int, error)
	FindByTime(recurrenceID string, at time.Time) (*models.TaskInstance, error)
	Create(instance *models.TaskInstance) error
}

// Synchronizer reconciles calculated occurrences against persisted instances.
//
// Synchronize is idempotent: running it twice with unchanged task and rule
// state produces the same instance set. Instances a user has modified are
// never deleted or altered, and past instances are left alone entirely.
type Synchronizer struct {
	tasks       TaskStore
	instances   InstanceStore
	logger      *log.Logger
	horizonDays int
	now         func() time.Time
	locks       sync.Map // recurrence ID -> *sync.Mutex
}

// SynchronizerOpts contains configuration options for creating a Synchronizer.
type SynchronizerOpts struct {
	Tasks       TaskStore
	Instances   InstanceStore
	Logger      *log.Logger
	HorizonDays int
	Clock       func() time.Time // defaults to time.Now; injectable for tests
}

// NewSynchronizer creates a Synchronizer with the provided stores and options.
func NewSynchronizer(opts SynchronizerOpts) *Synchronizer {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = DefaultHorizonDays
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Synchronizer{
		tasks:       opts.Tasks,
		instances:   opts.Instances,
		logger:      opts.Logger,
		horizonDays: opts.HorizonDays,
		now:         opts.Clock,
	}
}

// SynchronizeTask loads a task and its rule from the task store and
// synchronizes them. This is the entry point the CLI uses on rule
// creation and update.
func (s *Synchronizer) SynchronizeTask(taskID string) error {
	task, err := s.tasks.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("%w: loading task: %v", shared.ErrStorageFailure, err)
	}

	rule, err := s.tasks.GetRuleByTask(taskID)
	if err != nil {
		return fmt.Errorf("%w: loading rule: %v", shared.ErrStorageFailure, err)
	}

	return s.Synchronize(task, rule)
}

// Synchronize regenerates the instance set for a task's recurrence rule:
// purge eligible future instances, expand occurrences within the horizon,
// insert the missing ones.
//
// An inactive rule is a no-op. A malformed rule is rejected before any
// storage is touched. A storage failure aborts the remaining inserts with no
// rollback; the next run self-heals since the purge-and-insert walk is
// re-entrant for unmodified future instances.
func (s *Synchronizer) Synchronize(task *models.Task, rule *models.RecurrenceRule) error {
	if !rule.Active() {
		s.logger.Debug("skipping inactive rule", "rule", rule.ID())
		return nil
	}

	if err := rule.Validate(); err != nil {
		return err
	}

	mu := s.ruleLock(rule.ID())
	mu.Lock()
	defer mu.Unlock()

	now := s.now()

	purged, err := s.instances.DeleteFutureUnmodified(rule.ID(), now)
	if err != nil {
		return fmt.Errorf("%w: purging future instances: %v", shared.ErrStorageFailure, err)
	}

	horizonEnd := now.AddDate(0, 0, s.horizonDays)
	dates := Occurrences(task.StartAt(), horizonEnd, rule)
	if len(dates) >= MaxOccurrences {
		s.logger.Warn("occurrence expansion truncated at safety cap",
			"rule", rule.ID(), "cap", MaxOccurrences)
	}

	inserted := 0
	for _, at := range dates {
		existing, err := s.instances.FindByTime(rule.ID(), at)
		if err != nil {
			return fmt.Errorf("%w: checking for existing instance: %v", shared.ErrStorageFailure, err)
		}
		if existing != nil {
			continue
		}

		instance := models.NewTaskInstance(task, rule.ID(), at)
		if err := s.instances.Create(instance); err != nil {
			return fmt.Errorf("%w: inserting instance at %s: %v", shared.ErrStorageFailure, at.Format(time.RFC3339), err)
		}
		inserted++
	}

	// Count every emitted occurrence, past ones included, and persist it on
	// the rule rather than recomputing from the instance table.
	rule.SetCurrentCount(len(dates))
	if err := s.tasks.SaveRuleCount(rule.ID(), len(dates)); err != nil {
		return fmt.Errorf("%w: saving occurrence count: %v", shared.ErrStorageFailure, err)
	}

	s.logger.Debug("synchronized recurring task",
		"task", task.ID(), "rule", rule.ID(), "purged", purged, "inserted", inserted, "occurrences", len(dates))
	return nil
}

// ruleLock returns the mutex serializing synchronize calls for one rule.
// The check-then-insert step is not atomic, so concurrent callers must not
// interleave on the same recurrence ID.
func (s *Synchronizer) ruleLock(recurrenceID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(recurrenceID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
