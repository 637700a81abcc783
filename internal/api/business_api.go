package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"star-task/internal/briefing"
	"star-task/internal/domain"
	"star-task/internal/errors"
	"star-task/internal/logging"
	"star-task/internal/services"
	"star-task/internal/storage"
	"star-task/internal/validation"
)

// BusinessAPI defines the mission log workflows used by the TUI and the CLI
type BusinessAPI interface {
	// ========== Mission Creation ==========

	// PrepareMission trims and validates a draft, then fetches its briefing.
	// It may block on the briefing service and never touches the store.
	PrepareMission(ctx context.Context, draft MissionDraft) (*PendingMission, error)

	// CommitMission builds the task from a prepared mission and adds it.
	// It refuses with a cancelled error once ctx is done.
	CommitMission(ctx context.Context, pending *PendingMission) (*domain.Task, error)

	// CreateMission runs PrepareMission and CommitMission back to back
	CreateMission(ctx context.Context, draft MissionDraft) (*MissionResult, error)

	// ========== Mission Updates ==========

	// ToggleMission flips completion. Unknown ids return (nil, nil).
	ToggleMission(ctx context.Context, id string) (*domain.Task, error)

	// DeleteMission removes a mission and reports whether it existed
	DeleteMission(ctx context.Context, id string) (bool, error)

	// ========== Query Operations ==========

	ActiveMissions() []domain.Task
	ArchivedMissions() []domain.Task
	MissionCounts() services.Counts

	// Mission returns the mission with exactly this id
	Mission(id string) (*domain.Task, error)

	// ResolveMission finds a mission by full id or unambiguous id prefix
	ResolveMission(idOrPrefix string) (*domain.Task, error)

	// ========== Import / Export ==========

	// ExportMissions returns the whole log in its stored JSON form
	ExportMissions(ctx context.Context) ([]byte, error)

	// ImportMissions replaces the whole log with a JSON array in the stored form
	ImportMissions(ctx context.Context, data []byte) (int, error)
}

// businessAPIImpl implements the BusinessAPI interface
type businessAPIImpl struct {
	store     services.MissionStore
	provider  briefing.Provider
	mapper    *domain.Mapper
	validator *validation.TaskValidator
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

// NewBusinessAPI creates a new BusinessAPI instance with default options
func NewBusinessAPI(store services.MissionStore, provider briefing.Provider) BusinessAPI {
	return NewBusinessAPIWithOptions(store, provider, Options{})
}

// NewBusinessAPIWithOptions creates a BusinessAPI with explicit collaborators
func NewBusinessAPIWithOptions(store services.MissionStore, provider briefing.Provider, opts Options) BusinessAPI {
	opts = opts.withDefaults()
	if provider == nil {
		provider = briefing.Static{}
	}
	return &businessAPIImpl{
		store:     store,
		provider:  provider,
		mapper:    domain.NewMapper(),
		validator: opts.Validator,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
}

// ========== Mission Creation ==========

func (b *businessAPIImpl) PrepareMission(ctx context.Context, draft MissionDraft) (*PendingMission, error) {
	interval, err := b.validator.ValidateRepeatInterval(draft.RepeatInterval)
	if err != nil {
		return nil, errors.NewValidationError("invalid mission", err)
	}

	title, description, err := b.validator.CleanMission(draft.Title, draft.Description, interval)
	if err != nil {
		return nil, errors.NewValidationError("invalid mission", err)
	}

	if ctxErr := errors.FromContext(ctx, "prepare mission"); ctxErr != nil {
		return nil, ctxErr
	}

	brief := b.provider.RequestBriefing(ctx, title)

	if ctxErr := errors.FromContext(ctx, "prepare mission"); ctxErr != nil {
		b.logger.Debugf("mission %q abandoned while awaiting briefing", title)
		return nil, ctxErr
	}

	return &PendingMission{
		Title:          title,
		Description:    description,
		RepeatInterval: interval,
		Briefing:       brief,
	}, nil
}

// CommitMission returns the task alongside a database error when only the write failed;
// the mission is in the in-memory log either way.
func (b *businessAPIImpl) CommitMission(ctx context.Context, pending *PendingMission) (*domain.Task, error) {
	if pending == nil {
		return nil, errors.NewInvalidInputError("mission", nil, "nothing to commit")
	}
	if ctxErr := errors.FromContext(ctx, "commit mission"); ctxErr != nil {
		return nil, ctxErr
	}

	task := domain.NewTask(
		b.newID(),
		pending.Title,
		pending.Description,
		pending.RepeatInterval,
		pending.Briefing.Codename,
		b.now(),
	)

	if err := b.store.Add(ctx, task); err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeDatabase) {
			return &task, err
		}
		return nil, err
	}

	b.logger.Infof("mission %s added: %s (%s)", task.ID, task.Title, task.MissionCodename)
	return &task, nil
}

func (b *businessAPIImpl) CreateMission(ctx context.Context, draft MissionDraft) (*MissionResult, error) {
	pending, err := b.PrepareMission(ctx, draft)
	if err != nil {
		return nil, err
	}

	task, err := b.CommitMission(ctx, pending)
	if task == nil {
		return nil, err
	}
	return &MissionResult{Task: task, Briefing: pending.Briefing}, err
}

// ========== Mission Updates ==========

func (b *businessAPIImpl) ToggleMission(ctx context.Context, id string) (*domain.Task, error) {
	task, err := b.store.ToggleCompletion(ctx, id)
	if task != nil {
		b.logger.Infof("mission %s completed=%t", task.ID, task.IsCompleted)
	}
	return task, err
}

func (b *businessAPIImpl) DeleteMission(ctx context.Context, id string) (bool, error) {
	removed, err := b.store.Delete(ctx, id)
	if removed {
		b.logger.Infof("mission %s deleted", id)
	}
	return removed, err
}

// ========== Query Operations ==========

func (b *businessAPIImpl) ActiveMissions() []domain.Task {
	return b.store.ActiveView()
}

func (b *businessAPIImpl) ArchivedMissions() []domain.Task {
	return b.store.ArchiveView()
}

func (b *businessAPIImpl) MissionCounts() services.Counts {
	return b.store.Counts()
}

func (b *businessAPIImpl) Mission(id string) (*domain.Task, error) {
	task, ok := b.store.Get(id)
	if !ok {
		return nil, errors.NewNotFoundError("mission", id)
	}
	return &task, nil
}

func (b *businessAPIImpl) ResolveMission(idOrPrefix string) (*domain.Task, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, errors.NewInvalidInputError("id", idOrPrefix, "mission id is required")
	}

	matches := b.store.MatchPrefix(idOrPrefix)
	switch len(matches) {
	case 0:
		return nil, errors.NewNotFoundError("mission", idOrPrefix)
	case 1:
		return &matches[0], nil
	default:
		return nil, errors.NewInvalidInputError("id", idOrPrefix,
			fmt.Sprintf("prefix matches %d missions; use more characters", len(matches)))
	}
}

// ========== Import / Export ==========

func (b *businessAPIImpl) ExportMissions(ctx context.Context) ([]byte, error) {
	if ctxErr := errors.FromContext(ctx, "export missions"); ctxErr != nil {
		return nil, ctxErr
	}
	data, err := storage.Encode(b.mapper.Task.ToRecords(b.store.Tasks()))
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeDatabase, "encode mission log")
	}
	return data, nil
}

func (b *businessAPIImpl) ImportMissions(ctx context.Context, data []byte) (int, error) {
	records, err := storage.Decode(data)
	if err != nil {
		return 0, errors.NewInvalidInputError("import", nil, err.Error())
	}
	records, err = storage.Sanitize(records)
	if err != nil {
		return 0, errors.NewInvalidInputError("import", nil, err.Error())
	}

	tasks := b.mapper.Task.FromRecords(records)
	for _, task := range tasks {
		if err := b.validator.ValidateTask(task); err != nil {
			return 0, errors.NewValidationError(fmt.Sprintf("mission %s cannot be imported", task.ID), err)
		}
	}

	if err := b.store.Replace(ctx, tasks); err != nil {
		return 0, err
	}
	b.logger.Infof("imported %d missions", len(tasks))
	return len(tasks), nil
}
