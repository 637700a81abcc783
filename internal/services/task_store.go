package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"star-task/internal/domain"
	apperrors "star-task/internal/errors"
	"star-task/internal/logging"
	"star-task/internal/storage"
)

// TaskStore holds the authoritative in-memory mission log and writes the full
// collection through Persistence after every mutation.
type TaskStore struct {
	mu      sync.RWMutex
	tasks   []domain.Task
	persist Persistence
	mapper  *domain.Mapper
	now     func() time.Time
	logger  *logging.Logger
}

// StoreOption customises a TaskStore.
type StoreOption func(*TaskStore)

// WithClock replaces time.Now for completion stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *TaskStore) { s.now = now }
}

// WithLogger attaches a logger for persistence diagnostics.
func WithLogger(logger *logging.Logger) StoreOption {
	return func(s *TaskStore) { s.logger = logger }
}

// NewTaskStore loads the stored collection once. A missing collection starts empty.
// Stray completion stamps are cleared on load; duplicate ids fail the load.
// A nil persist keeps everything in memory.
func NewTaskStore(ctx context.Context, persist Persistence, opts ...StoreOption) (*TaskStore, error) {
	s := &TaskStore{
		persist: persist,
		mapper:  domain.NewMapper(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if persist == nil {
		return s, nil
	}
	records, err := persist.Load(ctx)
	if err != nil {
		return nil, err
	}
	records, err = storage.Sanitize(records)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load mission log", err)
	}
	s.tasks = s.mapper.Task.FromRecords(records)
	s.logger.Debugf("loaded %d missions", len(s.tasks))
	return s, nil
}

// Add inserts task at the front of the collection.
func (s *TaskStore) Add(ctx context.Context, task domain.Task) error {
	if !task.IsValid() {
		return apperrors.NewValidationError("mission is incomplete", fmt.Errorf("invalid task %q", task.ID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(task.ID) >= 0 {
		return apperrors.NewValidationError("mission id already exists", fmt.Errorf("duplicate id %q", task.ID))
	}

	s.tasks = append([]domain.Task{task}, s.tasks...)
	return s.save(ctx, "add mission")
}

// ToggleCompletion flips the completion state of the mission with id.
// An unknown id is a no-op: nothing is written and (nil, nil) is returned.
func (s *TaskStore) ToggleCompletion(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	task := &s.tasks[i]
	if task.IsCompleted {
		task.IsCompleted = false
		task.CompletedAt = nil
	} else {
		completedAt := s.now().UnixMilli()
		task.IsCompleted = true
		task.CompletedAt = &completedAt
	}

	updated := copyTask(*task)
	return &updated, s.save(ctx, "toggle mission")
}

// Delete removes the mission with id. It reports whether anything was removed;
// an unknown id is a silent no-op.
func (s *TaskStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}

	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	return true, s.save(ctx, "delete mission")
}

// Replace swaps the whole collection, e.g. for an import. Order is kept as given.
func (s *TaskStore) Replace(ctx context.Context, tasks []domain.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		if !task.IsValid() {
			return apperrors.NewValidationError("mission is incomplete", fmt.Errorf("invalid task %q", task.ID))
		}
		if _, dup := seen[task.ID]; dup {
			return apperrors.NewValidationError("mission id already exists", fmt.Errorf("duplicate id %q", task.ID))
		}
		seen[task.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = copyTasks(tasks)
	return s.save(ctx, "replace missions")
}

// ActiveView returns incomplete missions, newest first.
func (s *TaskStore) ActiveView() []domain.Task {
	view := s.filter(func(t domain.Task) bool { return !t.IsCompleted })
	sort.SliceStable(view, func(i, j int) bool {
		return view[i].CreatedAt > view[j].CreatedAt
	})
	return view
}

// ArchiveView returns completed missions, most recently completed first.
// A missing CompletedAt sorts as the oldest.
func (s *TaskStore) ArchiveView() []domain.Task {
	view := s.filter(func(t domain.Task) bool { return t.IsCompleted })
	sort.SliceStable(view, func(i, j int) bool {
		return completedAt(view[i]) > completedAt(view[j])
	})
	return view
}

// Tasks returns a copy of the collection in stored order.
func (s *TaskStore) Tasks() []domain.Task {
	return s.filter(func(domain.Task) bool { return true })
}

// Get returns the mission with id.
func (s *TaskStore) Get(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return copyTask(s.tasks[i]), true
	}
	return domain.Task{}, false
}

// MatchPrefix returns missions whose id starts with prefix. An exact match wins outright.
func (s *TaskStore) MatchPrefix(prefix string) []domain.Task {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}
	if task, ok := s.Get(prefix); ok {
		return []domain.Task{task}
	}
	return s.filter(func(t domain.Task) bool { return strings.HasPrefix(t.ID, prefix) })
}

// Counts returns the size of each view.
func (s *TaskStore) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	for _, t := range s.tasks {
		if t.IsCompleted {
			c.Archive++
		} else {
			c.Active++
		}
	}
	return c
}

func (s *TaskStore) filter(keep func(domain.Task) bool) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, copyTask(t))
		}
	}
	return out
}

// indexOf must be called with mu held.
func (s *TaskStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// save must be called with mu held for writing. The in-memory change stays
// applied even when the write fails.
func (s *TaskStore) save(ctx context.Context, operation string) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(ctx, s.mapper.Task.ToRecords(s.tasks)); err != nil {
		s.logger.Errorf("%s: %v", operation, err)
		return apperrors.NewDatabaseError(operation, err)
	}
	return nil
}

func completedAt(t domain.Task) int64 {
	if t.CompletedAt == nil {
		return math.MinInt64
	}
	return *t.CompletedAt
}

func copyTask(t domain.Task) domain.Task {
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		t.CompletedAt = &v
	}
	return t
}

func copyTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = copyTask(t)
	}
	return out
}

var _ MissionStore = (*TaskStore)(nil)
