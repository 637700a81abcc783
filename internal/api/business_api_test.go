package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-task/internal/briefing"
	"star-task/internal/config"
	"star-task/internal/domain"
	"star-task/internal/errors"
	"star-task/internal/repository/sqlite"
	"star-task/internal/services"
	"star-task/internal/storage"
	"star-task/internal/validation"
)

type stubProvider struct {
	mu     sync.Mutex
	result domain.Briefing
	titles []string
	gate   chan struct{}
}

func (s *stubProvider) RequestBriefing(ctx context.Context, title string) domain.Briefing {
	s.mu.Lock()
	s.titles = append(s.titles, title)
	s.mu.Unlock()
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return briefing.Fallback
		}
	}
	return s.result
}

type testEnv struct {
	api      BusinessAPI
	store    *services.TaskStore
	snap     *storage.Snapshot
	provider *stubProvider
}

func setupTestBusinessAPI(t *testing.T) *testEnv {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	snap := storage.NewSnapshot(repo, "")
	store, err := services.NewTaskStore(context.Background(), snap)
	require.NoError(t, err)

	provider := &stubProvider{result: domain.Briefing{Codename: "Nebula Hawk", Tagline: "Press start!"}}
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seq := 0

	api := NewBusinessAPIWithOptions(store, provider, Options{
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		},
	})
	return &testEnv{api: api, store: store, snap: snap, provider: provider}
}

func TestPrepareMission(t *testing.T) {
	tests := []struct {
		name           string
		draft          MissionDraft
		expected       *PendingMission
		errorAssertion func(t *testing.T, err error)
	}{
		{
			name:  "should trim title and description",
			draft: MissionDraft{Title: "  Scout Nebula ", Description: "\tlong range scan  ", RepeatInterval: "weekly"},
			expected: &PendingMission{
				Title:          "Scout Nebula",
				Description:    "long range scan",
				RepeatInterval: domain.RepeatWeekly,
				Briefing:       domain.Briefing{Codename: "Nebula Hawk", Tagline: "Press start!"},
			},
		},
		{
			name:  "should default repeat interval to NONE",
			draft: MissionDraft{Title: "Refuel"},
			expected: &PendingMission{
				Title:          "Refuel",
				RepeatInterval: domain.RepeatNone,
				Briefing:       domain.Briefing{Codename: "Nebula Hawk", Tagline: "Press start!"},
			},
		},
		{
			name:  "should reject whitespace-only title",
			draft: MissionDraft{Title: "    "},
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
				assert.Contains(t, err.Error(), "title")
			},
		},
		{
			name:  "should reject unknown repeat interval",
			draft: MissionDraft{Title: "Refuel", RepeatInterval: "HOURLY"},
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
				assert.Contains(t, err.Error(), "repeat_interval")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestBusinessAPI(t)

			pending, err := env.api.PrepareMission(context.Background(), tt.draft)

			if tt.errorAssertion != nil {
				tt.errorAssertion(t, err)
				assert.Nil(t, pending)
				assert.Empty(t, env.provider.titles, "briefing must not be requested for invalid input")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pending)
			assert.Empty(t, env.store.Tasks(), "prepare must not insert")
		})
	}
}

func TestCreateMission(t *testing.T) {
	env := setupTestBusinessAPI(t)
	ctx := context.Background()

	result, err := env.api.CreateMission(ctx, MissionDraft{Title: "Scout Nebula", RepeatInterval: "DAILY"})
	require.NoError(t, err)

	assert.Equal(t, "id-001", result.Task.ID)
	assert.Equal(t, "Scout Nebula", result.Task.Title)
	assert.Equal(t, "Nebula Hawk", result.Task.MissionCodename)
	assert.Equal(t, domain.RepeatDaily, result.Task.RepeatInterval)
	assert.False(t, result.Task.IsCompleted)
	assert.Nil(t, result.Task.CompletedAt)
	assert.Equal(t, "Press start!", result.Briefing.Tagline)

	records, err := env.snap.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Nebula Hawk", records[0].MissionCodename)
}

func TestCreateMission_LongTitle(t *testing.T) {
	env := setupTestBusinessAPI(t)
	title := strings.Repeat("x", 200)

	result, err := env.api.CreateMission(context.Background(), MissionDraft{Title: title})
	require.NoError(t, err)
	assert.Equal(t, title, result.Task.Title)
	assert.Equal(t, []string{title}, env.provider.titles)
}

func TestPrepareMission_ConfiguredTitleLimit(t *testing.T) {
	env := setupTestBusinessAPI(t)
	cfg := config.NewConfig()
	cfg.Validation.TitleMaxLength = 10
	api := NewBusinessAPIWithOptions(env.store, env.provider, Options{
		Validator: validation.NewTaskValidatorWithConfig(cfg),
	})

	pending, err := api.PrepareMission(context.Background(), MissionDraft{Title: strings.Repeat("x", 11)})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation), "got %v", err)
	assert.Nil(t, pending)
	assert.Empty(t, env.provider.titles)
}

func TestCreateMission_BriefingFailureUsesFallback(t *testing.T) {
	env := setupTestBusinessAPI(t)
	env.provider.result = briefing.Fallback

	result, err := env.api.CreateMission(context.Background(), MissionDraft{Title: "Scout Nebula"})
	require.NoError(t, err)
	assert.Equal(t, "Operation Starfall", result.Task.MissionCodename)
}

func TestCreateMission_LaterMissionSortsFirst(t *testing.T) {
	env := setupTestBusinessAPI(t)
	ctx := context.Background()

	t1, err := env.api.CreateMission(ctx, MissionDraft{Title: "T1"})
	require.NoError(t, err)
	t2, err := env.api.CreateMission(ctx, MissionDraft{Title: "T2"})
	require.NoError(t, err)

	active := env.api.ActiveMissions()
	require.Len(t, active, 2)
	assert.Equal(t, t2.Task.ID, active[0].ID)
	assert.Equal(t, t1.Task.ID, active[1].ID)
}

func TestCommitMission_CancelledContextInsertsNothing(t *testing.T) {
	env := setupTestBusinessAPI(t)

	pending, err := env.api.PrepareMission(context.Background(), MissionDraft{Title: "Scout Nebula"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task, err := env.api.CommitMission(ctx, pending)
	assert.Nil(t, task)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeCancelled))
	assert.Empty(t, env.store.Tasks())
}

func TestCommitMission_Nil(t *testing.T) {
	env := setupTestBusinessAPI(t)

	_, err := env.api.CommitMission(context.Background(), nil)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))
}

func TestCreateMission_CancelWhileAwaitingBriefing(t *testing.T) {
	env := setupTestBusinessAPI(t)
	env.provider.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := env.api.CreateMission(ctx, MissionDraft{Title: "Scout Nebula"})
		done <- err
	}()

	require.Eventually(t, func() bool {
		env.provider.mu.Lock()
		defer env.provider.mu.Unlock()
		return len(env.provider.titles) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	err := <-done

	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeCancelled))
	assert.Empty(t, env.store.Tasks())
}

func TestToggleAndDeleteMission(t *testing.T) {
	env := setupTestBusinessAPI(t)
	ctx := context.Background()

	result, err := env.api.CreateMission(ctx, MissionDraft{Title: "Scout Nebula"})
	require.NoError(t, err)
	id := result.Task.ID

	toggled, err := env.api.ToggleMission(ctx, id)
	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)
	assert.Equal(t, services.Counts{Active: 0, Archive: 1}, env.api.MissionCounts())
	require.Len(t, env.api.ArchivedMissions(), 1)

	missing, err := env.api.ToggleMission(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	removed, err := env.api.DeleteMission(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = env.api.DeleteMission(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, services.Counts{}, env.api.MissionCounts())
}

func TestMissionLookup(t *testing.T) {
	env := setupTestBusinessAPI(t)
	ctx := context.Background()
	for _, title := range []string{"A", "B"} {
		_, err := env.api.CreateMission(ctx, MissionDraft{Title: title})
		require.NoError(t, err)
	}

	task, err := env.api.Mission("id-001")
	require.NoError(t, err)
	assert.Equal(t, "A", task.Title)

	_, err = env.api.Mission("id-999")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	tests := []struct {
		name      string
		input     string
		wantTitle string
		errType   errors.ErrorType
	}{
		{name: "full id", input: "id-002", wantTitle: "B"},
		{name: "first id", input: "id-001", wantTitle: "A"},
		{name: "ambiguous prefix", input: "id-00", errType: errors.ErrorTypeInvalidInput},
		{name: "no match", input: "zz", errType: errors.ErrorTypeNotFound},
		{name: "blank", input: "  ", errType: errors.ErrorTypeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := env.api.ResolveMission(tt.input)
			if tt.wantTitle == "" {
				assert.True(t, errors.IsErrorType(err, tt.errType), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, task.Title)
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	env := setupTestBusinessAPI(t)
	ctx := context.Background()

	_, err := env.api.CreateMission(ctx, MissionDraft{Title: "Scout Nebula", Description: "sector 7"})
	require.NoError(t, err)
	second, err := env.api.CreateMission(ctx, MissionDraft{Title: "Refit", RepeatInterval: "MONTHLY"})
	require.NoError(t, err)
	_, err = env.api.ToggleMission(ctx, second.Task.ID)
	require.NoError(t, err)

	data, err := env.api.ExportMissions(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"missionCodename":"Nebula Hawk"`)

	other := setupTestBusinessAPI(t)
	n, err := other.api.ImportMissions(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, env.store.Tasks(), other.store.Tasks())
}

func TestImportMissions_BrowserBlob(t *testing.T) {
	env := setupTestBusinessAPI(t)
	blob := `[
		{"id":"b1","title":"Scout Nebula","description":"","repeatInterval":"NONE","isCompleted":false,"createdAt":1700000000000,"missionCodename":"Operation Starfall"},
		{"id":"b2","title":"Refit","description":"","repeatInterval":"DAILY","isCompleted":false,"createdAt":1700000001000,"completedAt":1700000002000}
	]`

	n, err := env.api.ImportMissions(context.Background(), []byte(blob))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	task, err := env.api.Mission("b2")
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt, "stray completedAt on an active mission is cleared")
}

func TestImportMissions_LongTitle(t *testing.T) {
	env := setupTestBusinessAPI(t)
	title := strings.Repeat("t", 200)
	blob := `[{"id":"x","title":"` + title + `","description":"","repeatInterval":"NONE","isCompleted":false,"createdAt":1700000000000}]`

	n, err := env.api.ImportMissions(context.Background(), []byte(blob))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	task, err := env.api.Mission("x")
	require.NoError(t, err)
	assert.Equal(t, title, task.Title)
}

func TestImportMissions_IgnoresInputLimits(t *testing.T) {
	env := setupTestBusinessAPI(t)
	cfg := config.NewConfig()
	cfg.Validation.TitleMaxLength = 10
	api := NewBusinessAPIWithOptions(env.store, env.provider, Options{
		Validator: validation.NewTaskValidatorWithConfig(cfg),
	})

	n, err := api.ImportMissions(context.Background(), []byte(`[{"id":"x","title":"A stored mission title","repeatInterval":"NONE","createdAt":1}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportMissions_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		errType errors.ErrorType
	}{
		{name: "not json", data: "{", errType: errors.ErrorTypeInvalidInput},
		{name: "duplicate ids", data: `[{"id":"a","title":"x"},{"id":"a","title":"y"}]`, errType: errors.ErrorTypeInvalidInput},
		{name: "missing title", data: `[{"id":"a","title":""}]`, errType: errors.ErrorTypeInvalidInput},
		{name: "completed without stamp", data: `[{"id":"a","title":"x","isCompleted":true}]`, errType: errors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestBusinessAPI(t)
			_, err := env.api.CreateMission(context.Background(), MissionDraft{Title: "Keep me"})
			require.NoError(t, err)

			_, err = env.api.ImportMissions(context.Background(), []byte(tt.data))
			assert.True(t, errors.IsErrorType(err, tt.errType), "got %v", err)
			assert.Len(t, env.store.Tasks(), 1, "a rejected import leaves the log alone")
		})
	}
}

type failingSave struct{}

func (failingSave) Load(context.Context) ([]storage.TaskRecord, error) { return nil, nil }
func (failingSave) Save(context.Context, []storage.TaskRecord) error {
	return fmt.Errorf("disk full")
}

func TestCreateMission_PersistenceFailureKeepsMission(t *testing.T) {
	store, err := services.NewTaskStore(context.Background(), failingSave{})
	require.NoError(t, err)
	api := NewBusinessAPI(store, nil)

	result, err := api.CreateMission(context.Background(), MissionDraft{Title: "Scout Nebula"})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeDatabase))
	require.NotNil(t, result)
	assert.Equal(t, "Operation Starfall", result.Task.MissionCodename)
	assert.Len(t, api.ActiveMissions(), 1)
}
