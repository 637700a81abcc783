package validation

import (
	"strings"

	"star-task/internal/config"
	"star-task/internal/domain"
)

// TaskValidator provides validation for mission input
type TaskValidator struct {
	validator *Validator
}

// NewTaskValidator creates a new task validator with no length limits
func NewTaskValidator() *TaskValidator {
	return &TaskValidator{
		validator: NewValidator(),
	}
}

// NewTaskValidatorWithConfig creates a task validator honouring configured limits
func NewTaskValidatorWithConfig(cfg *config.Config) *TaskValidator {
	return &TaskValidator{
		validator: NewValidatorWithConfig(cfg),
	}
}

// ValidateTitle validates an already trimmed mission title
func (tv *TaskValidator) ValidateTitle(title string) error {
	validationError := NewValidationError()

	if !tv.validator.IsNonEmptyString(title) {
		validationError.AddRequiredError("title")
		return validationError
	}

	if max := tv.validator.TitleMaxLength(); !tv.validator.FitsLength(title, max) {
		validationError.AddTooLongError("title", title, max)
	}

	return validationError.OrNil()
}

// ValidateDescription validates an already trimmed description; empty is allowed
func (tv *TaskValidator) ValidateDescription(description string) error {
	validationError := NewValidationError()

	if max := tv.validator.DescriptionMaxLength(); !tv.validator.FitsLength(description, max) {
		validationError.AddTooLongError("description", description, max)
	}

	return validationError.OrNil()
}

// ValidateRepeatInterval parses a repeat interval name
func (tv *TaskValidator) ValidateRepeatInterval(value string) (domain.RepeatInterval, error) {
	interval, err := domain.ParseRepeatInterval(value)
	if err != nil {
		validationError := NewValidationError()
		validationError.AddInvalidValueError("repeat_interval", value, "must be one of NONE, DAILY, WEEKLY, MONTHLY")
		return "", validationError
	}
	return interval, nil
}

// CleanMission trims title and description and validates every field of a new mission.
// All problems are reported together.
func (tv *TaskValidator) CleanMission(title, description string, interval domain.RepeatInterval) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	validationError := NewValidationError()
	validationError.Merge(tv.ValidateTitle(title))
	validationError.Merge(tv.ValidateDescription(description))
	if interval != "" && !interval.IsValid() {
		validationError.AddInvalidValueError("repeat_interval", string(interval), "must be one of NONE, DAILY, WEEKLY, MONTHLY")
	}

	if err := validationError.OrNil(); err != nil {
		return "", "", err
	}
	return title, description, nil
}

// ValidateTask validates a complete stored task, e.g. one arriving from an import.
// Length limits only guard new input; stored missions keep whatever title they were saved with.
func (tv *TaskValidator) ValidateTask(task domain.Task) error {
	validationError := NewValidationError()

	if strings.TrimSpace(task.ID) == "" {
		validationError.AddRequiredError("id")
	}
	if !tv.validator.IsNonEmptyString(task.Title) {
		validationError.AddRequiredError("title")
	}
	if !task.RepeatInterval.IsValid() {
		validationError.AddInvalidValueError("repeat_interval", string(task.RepeatInterval), "unknown interval")
	}
	if task.IsCompleted != (task.CompletedAt != nil) {
		validationError.AddInvalidValueError("completed_at", task.CompletedAt, "must be set exactly when the mission is completed")
	}

	return validationError.OrNil()
}
