// Package storage serializes the mission log as one JSON blob and keeps it under a
// single key of a key/value store. The field names match the browser build's
// local-storage blob so exports from either side load unchanged.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TaskRecord is the stored shape of one task.
type TaskRecord struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	RepeatInterval  string `json:"repeatInterval"`
	IsCompleted     bool   `json:"isCompleted"`
	CreatedAt       int64  `json:"createdAt"`
	CompletedAt     *int64 `json:"completedAt,omitempty"`
	MissionCodename string `json:"missionCodename,omitempty"`
}

// Encode renders records as a JSON array. A nil slice encodes as "[]".
func Encode(records []TaskRecord) ([]byte, error) {
	if records == nil {
		records = []TaskRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode task records: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array of task records. Blank input decodes to an empty collection.
func Decode(data []byte) ([]TaskRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []TaskRecord{}, nil
	}
	var records []TaskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode task records: %w", err)
	}
	if records == nil {
		records = []TaskRecord{}
	}
	return records, nil
}

// Sanitize checks an imported collection. It rejects blank ids and titles and
// duplicate ids, and clears a completedAt left on an incomplete task.
func Sanitize(records []TaskRecord) ([]TaskRecord, error) {
	seen := make(map[string]struct{}, len(records))
	out := make([]TaskRecord, 0, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
		if r.Title == "" {
			return nil, fmt.Errorf("record %d (%s): missing title", i, r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %s", i, r.ID)
		}
		seen[r.ID] = struct{}{}
		if !r.IsCompleted {
			r.CompletedAt = nil
		}
		out = append(out, r)
	}
	return out, nil
}
