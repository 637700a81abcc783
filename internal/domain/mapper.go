package domain

import (
	"star-task/internal/storage"
)

// TaskMapper handles conversion between domain tasks and stored task records.
type TaskMapper struct{}

// NewTaskMapper creates a new TaskMapper instance.
func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

// ToRecord converts a domain Task to its stored form.
func (m *TaskMapper) ToRecord(task Task) storage.TaskRecord {
	record := storage.TaskRecord{
		ID:              task.ID,
		Title:           task.Title,
		Description:     task.Description,
		RepeatInterval:  string(task.RepeatInterval),
		IsCompleted:     task.IsCompleted,
		CreatedAt:       task.CreatedAt,
		MissionCodename: task.MissionCodename,
	}
	if task.CompletedAt != nil {
		completedAt := *task.CompletedAt
		record.CompletedAt = &completedAt
	}
	return record
}

// FromRecord converts a stored record to a domain Task.
// Unknown repeat intervals degrade to RepeatNone rather than failing the whole load.
func (m *TaskMapper) FromRecord(record storage.TaskRecord) Task {
	interval, err := ParseRepeatInterval(record.RepeatInterval)
	if err != nil {
		interval = RepeatNone
	}
	task := Task{
		ID:              record.ID,
		Title:           record.Title,
		Description:     record.Description,
		RepeatInterval:  interval,
		IsCompleted:     record.IsCompleted,
		CreatedAt:       record.CreatedAt,
		MissionCodename: record.MissionCodename,
	}
	if record.CompletedAt != nil {
		completedAt := *record.CompletedAt
		task.CompletedAt = &completedAt
	}
	return task
}

// ToRecords converts a slice of domain Tasks to records.
func (m *TaskMapper) ToRecords(tasks []Task) []storage.TaskRecord {
	records := make([]storage.TaskRecord, len(tasks))
	for i, task := range tasks {
		records[i] = m.ToRecord(task)
	}
	return records
}

// FromRecords converts a slice of records to domain Tasks.
func (m *TaskMapper) FromRecords(records []storage.TaskRecord) []Task {
	tasks := make([]Task, len(records))
	for i, record := range records {
		tasks[i] = m.FromRecord(record)
	}
	return tasks
}

// Mapper provides a unified interface for all mapping operations.
type Mapper struct {
	Task *TaskMapper
}

// NewMapper creates a new Mapper instance with all sub-mappers.
func NewMapper() *Mapper {
	return &Mapper{
		Task: NewTaskMapper(),
	}
}
