package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-task/internal/domain"
	apperrors "star-task/internal/errors"
	"star-task/internal/repository/sqlite"
	"star-task/internal/storage"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupTaskStore(t *testing.T) (*TaskStore, *storage.Snapshot, *fakeClock) {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	snap := storage.NewSnapshot(repo, "")
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store, err := NewTaskStore(context.Background(), snap, WithClock(clock.Now))
	require.NoError(t, err)
	return store, snap, clock
}

func newMission(id string, createdAt int64) domain.Task {
	return domain.Task{
		ID:              id,
		Title:           "Mission " + id,
		RepeatInterval:  domain.RepeatNone,
		CreatedAt:       createdAt,
		MissionCodename: "Operation Starfall",
	}
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestTaskStore_AddPrependsAndPersists(t *testing.T) {
	store, snap, _ := setupTaskStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, newMission("t1", 1000)))
	require.NoError(t, store.Add(ctx, newMission("t2", 2000)))

	assert.Equal(t, []string{"t2", "t1"}, ids(store.Tasks()))

	records, err := snap.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t2", records[0].ID)
}

func TestTaskStore_AddRejectsInvalid(t *testing.T) {
	store, _, _ := setupTaskStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		task domain.Task
	}{
		{name: "missing id", task: domain.Task{Title: "x", RepeatInterval: domain.RepeatNone}},
		{name: "missing title", task: domain.Task{ID: "x", RepeatInterval: domain.RepeatNone}},
		{name: "completed without stamp", task: domain.Task{ID: "x", Title: "x", RepeatInterval: domain.RepeatNone, IsCompleted: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Add(ctx, tt.task)
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
		})
	}

	require.NoError(t, store.Add(ctx, newMission("dup", 1)))
	err := store.Add(ctx, newMission("dup", 2))
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
	assert.Len(t, store.Tasks(), 1)
}

func TestTaskStore_ScoutNebulaScenario(t *testing.T) {
	store, _, _ := setupTaskStore(t)
	ctx := context.Background()

	t1 := newMission("t1", 1000)
	t1.Title = "Scout Nebula"
	require.NoError(t, store.Add(ctx, t1))

	got, ok := store.Get("t1")
	require.True(t, ok)
	assert.Equal(t, "Operation Starfall", got.MissionCodename)

	toggled, err := store.ToggleCompletion(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, toggled)
	assert.True(t, toggled.IsCompleted)
	assert.NotNil(t, toggled.CompletedAt)

	archive := store.ArchiveView()
	require.Len(t, archive, 1)
	assert.Equal(t, "t1", archive[0].ID)
	assert.NotNil(t, archive[0].CompletedAt)
	assert.Empty(t, store.ActiveView())

	_, err = store.ToggleCompletion(ctx, "t1")
	require.NoError(t, err)

	active := store.ActiveView()
	require.Len(t, active, 1)
	assert.Equal(t, "t1", active[0].ID)
	assert.Nil(t, active[0].CompletedAt)
	assert.Empty(t, store.ArchiveView())
}

func TestTaskStore_ActiveViewNewestFirst(t *testing.T) {
	store, _, _ := setupTaskStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, newMission("t1", 1000)))
	require.NoError(t, store.Add(ctx, newMission("t2", 2000)))

	assert.Equal(t, []string{"t2", "t1"}, ids(store.ActiveView()))
}

func TestTaskStore_ActiveViewSortedForAnyInsertionOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		store, _, _ := setupTaskStore(t)
		for _, n := range rng.Perm(8) {
			require.NoError(t, store.Add(ctx, newMission(fmt.Sprintf("m%d", n), int64(n*100))))
		}

		view := store.ActiveView()
		require.Len(t, view, 8)
		for i := 1; i < len(view); i++ {
			assert.GreaterOrEqual(t, view[i-1].CreatedAt, view[i].CreatedAt)
		}
	}
}

func TestTaskStore_ArchiveViewByCompletionDesc(t *testing.T) {
	store, _, _ := setupTaskStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Add(ctx, newMission(id, 1000)))
	}
	// completion order: b, a, c
	for _, id := range []string{"b", "a", "c"} {
		_, err := store.ToggleCompletion(ctx, id)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"c", "a", "b"}, ids(store.ArchiveView()))
}

func TestTaskStore_ArchiveViewMissingStampSortsOldest(t *testing.T) {
	store, err := NewTaskStore(context.Background(), nil)
	require.NoError(t, err)

	stamp := int64(500)
	store.tasks = []domain.Task{
		{ID: "unstamped", Title: "x", RepeatInterval: domain.RepeatNone, IsCompleted: true},
		{ID: "stamped", Title: "y", RepeatInterval: domain.RepeatNone, IsCompleted: true, CompletedAt: &stamp},
	}

	assert.Equal(t, []string{"stamped", "unstamped"}, ids(store.ArchiveView()))
}

func TestTaskStore_UnknownIDsAreNoOps(t *testing.T) {
	store, snap, _ := setupTaskStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, newMission("t1", 1000)))

	before := store.Tasks()
	raw, err := snap.Raw(ctx)
	require.NoError(t, err)

	toggled, err := store.ToggleCompletion(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, toggled)

	removed, err := store.Delete(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, removed)

	assert.Equal(t, before, store.Tasks())
	after, err := snap.Raw(ctx)
	require.NoError(t, err)
	assert.Equal(t, raw, after)
}

func TestTaskStore_Delete(t *testing.T) {
	store, snap, _ := setupTaskStore(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Add(ctx, newMission(id, int64(i))))
	}

	removed, err := store.Delete(ctx, "b")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"c", "a"}, ids(store.Tasks()))

	records, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestTaskStore_CompletionInvariantUnderRandomOperations(t *testing.T) {
	store, _, _ := setupTaskStore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	pool := []string{"a", "b", "c", "d", "e", "ghost"}
	next := 0
	for step := 0; step < 300; step++ {
		id := pool[rng.Intn(len(pool))]
		switch rng.Intn(3) {
		case 0:
			next++
			_ = store.Add(ctx, newMission(fmt.Sprintf("%s-%d", id, next), int64(next)))
		case 1:
			if tasks := store.Tasks(); len(tasks) > 0 && rng.Intn(2) == 0 {
				id = tasks[rng.Intn(len(tasks))].ID
			}
			_, err := store.ToggleCompletion(ctx, id)
			require.NoError(t, err)
		case 2:
			if tasks := store.Tasks(); len(tasks) > 0 && rng.Intn(3) == 0 {
				id = tasks[rng.Intn(len(tasks))].ID
			}
			_, err := store.Delete(ctx, id)
			require.NoError(t, err)
		}

		for _, task := range store.Tasks() {
			require.Equal(t, task.IsCompleted, task.CompletedAt != nil, "step %d task %s", step, task.ID)
		}
		for _, task := range store.ActiveView() {
			require.False(t, task.IsCompleted)
		}
		for _, task := range store.ArchiveView() {
			require.True(t, task.IsCompleted)
		}
		counts := store.Counts()
		require.Equal(t, len(store.ActiveView()), counts.Active)
		require.Equal(t, len(store.ArchiveView()), counts.Archive)
	}
}

func TestTaskStore_RoundTripThroughStorage(t *testing.T) {
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	snap := storage.NewSnapshot(repo, "")
	store, err := NewTaskStore(ctx, snap)
	require.NoError(t, err)

	first := newMission("t1", 1000)
	first.Description = "long range scan"
	first.RepeatInterval = domain.RepeatWeekly
	require.NoError(t, store.Add(ctx, first))
	require.NoError(t, store.Add(ctx, newMission("t2", 2000)))
	_, err = store.ToggleCompletion(ctx, "t1")
	require.NoError(t, err)

	reloaded, err := NewTaskStore(ctx, storage.NewSnapshot(repo, ""))
	require.NoError(t, err)
	assert.Equal(t, store.Tasks(), reloaded.Tasks())
}

func TestTaskStore_ReturnedTasksAreCopies(t *testing.T) {
	store, _, _ := setupTaskStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, newMission("t1", 1000)))
	toggled, err := store.ToggleCompletion(ctx, "t1")
	require.NoError(t, err)

	*toggled.CompletedAt = 0
	view := store.ArchiveView()
	view[0].Title = "changed"

	got, _ := store.Get("t1")
	assert.NotZero(t, *got.CompletedAt)
	assert.Equal(t, "Mission t1", got.Title)
}

func TestTaskStore_MatchPrefix(t *testing.T) {
	store, _, _ := setupTaskStore(t)
	ctx := context.Background()
	for _, id := range []string{"abc1", "abc2", "abd", "abc"} {
		require.NoError(t, store.Add(ctx, newMission(id, 1)))
	}

	assert.Len(t, store.MatchPrefix("abc"), 1, "exact match wins")
	assert.ElementsMatch(t, []string{"abc1"}, ids(store.MatchPrefix("abc1")))
	assert.Len(t, store.MatchPrefix("ab"), 4)
	assert.Empty(t, store.MatchPrefix("zz"))
	assert.Empty(t, store.MatchPrefix("  "))
}

func TestTaskStore_Replace(t *testing.T) {
	store, snap, _ := setupTaskStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, newMission("old", 1)))

	require.NoError(t, store.Replace(ctx, []domain.Task{newMission("n1", 1), newMission("n2", 2)}))
	assert.Equal(t, []string{"n1", "n2"}, ids(store.Tasks()))

	records, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	err = store.Replace(ctx, []domain.Task{newMission("x", 1), newMission("x", 2)})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, []string{"n1", "n2"}, ids(store.Tasks()), "failed replace leaves the log untouched")
}

type failingPersistence struct {
	records []storage.TaskRecord
	loadErr error
	saveErr error
}

func (f *failingPersistence) Load(context.Context) ([]storage.TaskRecord, error) {
	return f.records, f.loadErr
}

func (f *failingPersistence) Save(context.Context, []storage.TaskRecord) error {
	return f.saveErr
}

func TestTaskStore_SaveFailureKeepsMemoryState(t *testing.T) {
	persist := &failingPersistence{saveErr: errors.New("disk full")}
	store, err := NewTaskStore(context.Background(), persist)
	require.NoError(t, err)

	err = store.Add(context.Background(), newMission("t1", 1))
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeDatabase))
	assert.Len(t, store.Tasks(), 1)

	toggled, err := store.ToggleCompletion(context.Background(), "t1")
	assert.Error(t, err)
	require.NotNil(t, toggled)
	assert.True(t, toggled.IsCompleted)
}

func TestTaskStore_LoadFailure(t *testing.T) {
	loadErr := apperrors.NewDatabaseError("load", errors.New("corrupt"))
	_, err := NewTaskStore(context.Background(), &failingPersistence{loadErr: loadErr})
	assert.ErrorIs(t, err, loadErr)
}

func TestTaskStore_LoadsExistingRecords(t *testing.T) {
	done := int64(99)
	persist := &failingPersistence{records: []storage.TaskRecord{
		{ID: "x", Title: "Stored", RepeatInterval: "DAILY", IsCompleted: true, CreatedAt: 1, CompletedAt: &done},
	}}
	store, err := NewTaskStore(context.Background(), persist)
	require.NoError(t, err)

	got, ok := store.Get("x")
	require.True(t, ok)
	assert.Equal(t, domain.RepeatDaily, got.RepeatInterval)
	assert.Equal(t, Counts{Active: 0, Archive: 1}, store.Counts())
}

func TestTaskStore_LoadClearsStrayCompletionStamp(t *testing.T) {
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, storage.DefaultKey,
		`[{"id":"a","title":"Scout","repeatInterval":"NONE","isCompleted":false,"createdAt":1,"completedAt":5}]`))

	store, err := NewTaskStore(ctx, storage.NewSnapshot(repo, ""))
	require.NoError(t, err)

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.False(t, got.IsCompleted)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, Counts{Active: 1, Archive: 0}, store.Counts())
}

func TestTaskStore_LoadRejectsDuplicateIDs(t *testing.T) {
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, storage.DefaultKey,
		`[{"id":"a","title":"Scout","repeatInterval":"NONE","isCompleted":false,"createdAt":1,"completedAt":5},`+
			`{"id":"a","title":"Scout again","repeatInterval":"NONE","isCompleted":false,"createdAt":2}]`))

	store, err := NewTaskStore(ctx, storage.NewSnapshot(repo, ""))
	require.Error(t, err)
	assert.Nil(t, store)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeDatabase))
	assert.Contains(t, err.Error(), "duplicate id a")
}
