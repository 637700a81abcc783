package api

import (
	"time"

	"github.com/google/uuid"

	"star-task/internal/domain"
	"star-task/internal/logging"
	"star-task/internal/validation"
)

// MissionDraft is raw user input for a new mission, before trimming.
type MissionDraft struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	RepeatInterval string `json:"repeat_interval"`
}

// PendingMission is a validated draft plus its briefing, waiting to be committed.
type PendingMission struct {
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	RepeatInterval domain.RepeatInterval `json:"repeat_interval"`
	Briefing       domain.Briefing       `json:"briefing"`
}

// MissionResult is what a completed creation hands back to the caller.
// The tagline travels here and is not stored on the task.
type MissionResult struct {
	Task     *domain.Task    `json:"task"`
	Briefing domain.Briefing `json:"briefing"`
}

// Options overrides collaborators of the BusinessAPI. Zero values pick defaults.
type Options struct {
	Validator *validation.TaskValidator
	Logger    *logging.Logger
	Now       func() time.Time
	NewID     func() string
}

func (o Options) withDefaults() Options {
	if o.Validator == nil {
		o.Validator = validation.NewTaskValidator()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}
