package services

import (
	"context"

	"star-task/internal/domain"
	"star-task/internal/storage"
)

// Persistence loads and saves the whole mission log at once.
// *storage.Snapshot is the production implementation.
type Persistence interface {
	Load(ctx context.Context) ([]storage.TaskRecord, error)
	Save(ctx context.Context, records []storage.TaskRecord) error
}

// Counts is the number of missions in each view.
type Counts struct {
	Active  int `json:"active"`
	Archive int `json:"archive"`
}

// MissionStore is the mission log as seen by the workflow layer.
type MissionStore interface {
	Add(ctx context.Context, task domain.Task) error
	ToggleCompletion(ctx context.Context, id string) (*domain.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
	Replace(ctx context.Context, tasks []domain.Task) error

	ActiveView() []domain.Task
	ArchiveView() []domain.Task
	Tasks() []domain.Task
	Get(id string) (domain.Task, bool)
	MatchPrefix(prefix string) []domain.Task
	Counts() Counts
}
