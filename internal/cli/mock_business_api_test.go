package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"

	"star-task/internal/api"
	"star-task/internal/config"
	"star-task/internal/domain"
	"star-task/internal/errors"
	"star-task/internal/services"
	"star-task/internal/storage"
)

// mockBusinessAPI implements the BusinessAPI interface for testing
type mockBusinessAPI struct {
	tasks    map[string]*domain.Task
	order    []string // newest first, like the store
	clock    int64
	nextID   int
	briefing domain.Briefing

	// failWrites makes every mutation report a database error after applying it
	failWrites bool
}

// newMockBusinessAPI creates a new mock BusinessAPI instance
func newMockBusinessAPI() *mockBusinessAPI {
	return &mockBusinessAPI{
		tasks:    make(map[string]*domain.Task),
		clock:    1_700_000_000_000,
		nextID:   1,
		briefing: domain.Briefing{Codename: "Nebula Hawk", Tagline: "Press start!"},
	}
}

func (m *mockBusinessAPI) tick() int64 {
	m.clock += 1000
	return m.clock
}

func (m *mockBusinessAPI) writeErr(op string) error {
	if m.failWrites {
		return errors.NewDatabaseError(op, fmt.Errorf("disk full"))
	}
	return nil
}

func (m *mockBusinessAPI) PrepareMission(ctx context.Context, draft api.MissionDraft) (*api.PendingMission, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, errors.NewValidationError("invalid mission", fmt.Errorf("title is required"))
	}
	interval, err := domain.ParseRepeatInterval(draft.RepeatInterval)
	if err != nil {
		return nil, errors.NewValidationError("invalid mission", err)
	}
	if ctxErr := errors.FromContext(ctx, "prepare mission"); ctxErr != nil {
		return nil, ctxErr
	}
	return &api.PendingMission{
		Title:          title,
		Description:    strings.TrimSpace(draft.Description),
		RepeatInterval: interval,
		Briefing:       m.briefing,
	}, nil
}

func (m *mockBusinessAPI) CommitMission(ctx context.Context, pending *api.PendingMission) (*domain.Task, error) {
	if ctxErr := errors.FromContext(ctx, "commit mission"); ctxErr != nil {
		return nil, ctxErr
	}
	id := fmt.Sprintf("m%07d-0000-4000-8000-000000000000", m.nextID)
	m.nextID++
	task := &domain.Task{
		ID:              id,
		Title:           pending.Title,
		Description:     pending.Description,
		RepeatInterval:  pending.RepeatInterval,
		CreatedAt:       m.tick(),
		MissionCodename: pending.Briefing.Codename,
	}
	m.tasks[id] = task
	m.order = append([]string{id}, m.order...)
	copied := *task
	return &copied, m.writeErr("add mission")
}

func (m *mockBusinessAPI) CreateMission(ctx context.Context, draft api.MissionDraft) (*api.MissionResult, error) {
	pending, err := m.PrepareMission(ctx, draft)
	if err != nil {
		return nil, err
	}
	task, err := m.CommitMission(ctx, pending)
	if task == nil {
		return nil, err
	}
	return &api.MissionResult{Task: task, Briefing: pending.Briefing}, err
}

func (m *mockBusinessAPI) ToggleMission(ctx context.Context, id string) (*domain.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	task.IsCompleted = !task.IsCompleted
	if task.IsCompleted {
		stamp := m.tick()
		task.CompletedAt = &stamp
	} else {
		task.CompletedAt = nil
	}
	copied := *task
	return &copied, m.writeErr("toggle mission")
}

func (m *mockBusinessAPI) DeleteMission(ctx context.Context, id string) (bool, error) {
	if _, ok := m.tasks[id]; !ok {
		return false, nil
	}
	delete(m.tasks, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, m.writeErr("delete mission")
}

func (m *mockBusinessAPI) all() []domain.Task {
	out := make([]domain.Task, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.tasks[id])
	}
	return out
}

func (m *mockBusinessAPI) ActiveMissions() []domain.Task {
	var out []domain.Task
	for _, t := range m.all() {
		if !t.IsCompleted {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

func (m *mockBusinessAPI) ArchivedMissions() []domain.Task {
	var out []domain.Task
	for _, t := range m.all() {
		if t.IsCompleted {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].CompletedAt > *out[j].CompletedAt })
	return out
}

func (m *mockBusinessAPI) MissionCounts() services.Counts {
	active := len(m.ActiveMissions())
	return services.Counts{Active: active, Archive: len(m.tasks) - active}
}

func (m *mockBusinessAPI) Mission(id string) (*domain.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, errors.NewNotFoundError("mission", id)
	}
	copied := *task
	return &copied, nil
}

func (m *mockBusinessAPI) ResolveMission(idOrPrefix string) (*domain.Task, error) {
	if idOrPrefix == "" {
		return nil, errors.NewInvalidInputError("id", idOrPrefix, "mission id is required")
	}
	var matches []domain.Task
	for _, t := range m.all() {
		if strings.HasPrefix(t.ID, idOrPrefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return nil, errors.NewNotFoundError("mission", idOrPrefix)
	case 1:
		return &matches[0], nil
	default:
		return nil, errors.NewInvalidInputError("id", idOrPrefix, "prefix matches several missions")
	}
}

func (m *mockBusinessAPI) ExportMissions(ctx context.Context) ([]byte, error) {
	return storage.Encode(domain.NewMapper().Task.ToRecords(m.all()))
}

func (m *mockBusinessAPI) ImportMissions(ctx context.Context, data []byte) (int, error) {
	var records []storage.TaskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, errors.NewInvalidInputError("import", nil, err.Error())
	}
	m.tasks = make(map[string]*domain.Task)
	m.order = nil
	for _, task := range domain.NewMapper().Task.FromRecords(records) {
		task := task
		m.tasks[task.ID] = &task
		m.order = append(m.order, task.ID)
	}
	return len(records), m.writeErr("import missions")
}

// mustAdd logs a mission through the mock and returns it
func (m *mockBusinessAPI) mustAdd(t *testing.T, title string) domain.Task {
	t.Helper()
	result, err := m.CreateMission(context.Background(), api.MissionDraft{Title: title})
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return *result.Task
}

// setupTestAppWithMockBusinessAPI creates an App over the mock, writing into a buffer
func setupTestAppWithMockBusinessAPI(t *testing.T) (*App, *mockBusinessAPI, *strings.Builder) {
	t.Helper()
	mock := newMockBusinessAPI()
	out := &strings.Builder{}
	cfg := config.NewConfig()
	cfg.Display.TimeFormat = "2006-01-02"
	app := NewAppWithIO(mock, cfg, strings.NewReader(""), out)
	return app, mock, out
}

var _ api.BusinessAPI = (*mockBusinessAPI)(nil)
