package storage

import (
	"context"
	"fmt"

	apperrors "star-task/internal/errors"
	"star-task/internal/repository/sqlite"
)

// DefaultKey is the storage key the mission log lives under.
const DefaultKey = "star-tasks"

// KeyValueStore is the subset of the sqlite repository the snapshot needs.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (*sqlite.Entry, error)
	Put(ctx context.Context, key string, value string) error
}

// Snapshot loads and saves the whole task collection under one key.
type Snapshot struct {
	store KeyValueStore
	key   string
}

// NewSnapshot binds a snapshot to key in store. An empty key uses DefaultKey.
func NewSnapshot(store KeyValueStore, key string) *Snapshot {
	if key == "" {
		key = DefaultKey
	}
	return &Snapshot{store: store, key: key}
}

// Key returns the storage key in use.
func (s *Snapshot) Key() string {
	return s.key
}

// Load reads the collection. A missing key yields an empty collection.
func (s *Snapshot) Load(ctx context.Context) ([]TaskRecord, error) {
	data, err := s.Raw(ctx)
	if err != nil {
		return nil, err
	}
	records, err := Decode(data)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeDatabase, fmt.Sprintf("corrupt data under %q", s.key))
	}
	return records, nil
}

// Save overwrites the stored collection with records.
func (s *Snapshot) Save(ctx context.Context, records []TaskRecord) error {
	data, err := Encode(records)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeDatabase, "encode mission log")
	}
	return s.store.Put(ctx, s.key, string(data))
}

// Raw returns the stored blob exactly as written, or "[]" when nothing is stored.
func (s *Snapshot) Raw(ctx context.Context) ([]byte, error) {
	entry, err := s.store.Get(ctx, s.key)
	if err != nil {
		if apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
			return []byte("[]"), nil
		}
		return nil, err
	}
	return []byte(entry.Value), nil
}
