package sqlite

import (
	"context"
	"database/sql"
	"time"

	apperrors "star-task/internal/errors"
	"star-task/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// Repository is a durable key/value store. Each key holds one opaque text blob
// that is replaced wholesale on every write.
type Repository interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)

	Close() error
}

// Options tunes how long individual statements may run.
// Zero durations mean the caller's context is the only bound.
type Options struct {
	QueryTimeout time.Duration
	WriteTimeout time.Duration
}

// SQLiteRepository implements the Repository interface
type SQLiteRepository struct {
	db   *sql.DB
	opts Options
	now  func() time.Time
}

// New creates a new SQLite repository instance with no statement timeouts
func New(dbPath string) (*SQLiteRepository, error) {
	return NewWithOptions(dbPath, Options{})
}

// NewWithOptions opens dbPath, applies pending migrations and returns the repository.
func NewWithOptions(dbPath string, opts Options) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.NewDatabaseError("open database", err)
	}
	// one connection keeps ":memory:" databases coherent and serializes writers
	db.SetMaxOpenConns(1)

	if err := migrations.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, apperrors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db, opts: opts, now: time.Now}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Get returns the entry stored under key, or a not_found error
func (r *SQLiteRepository) Get(ctx context.Context, key string) (*Entry, error) {
	ctx, cancel := withTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	query := `SELECT key, value, updated_at FROM kv_store WHERE key = ?`
	return QuerySingle(ctx, r.db, query, ScanEntry, "storage key", key, key)
}

// Put creates or overwrites the value stored under key
func (r *SQLiteRepository) Put(ctx context.Context, key string, value string) error {
	ctx, cancel := withTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	query := `
	INSERT INTO kv_store (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, key, value, FormatTimeForDB(r.now())); err != nil {
		return HandleDatabaseError(ctx, "put "+key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is a not_found error
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	ctx, cancel := withTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	query := `DELETE FROM kv_store WHERE key = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "storage key", key, key)
}

// ListKeys returns every stored key in lexical order
func (r *SQLiteRepository) ListKeys(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	rows, err := QueryMultiple(ctx, r.db, `SELECT key FROM kv_store ORDER BY key ASC`, ScanKeys, "storage keys")
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(rows))
	for i, k := range rows {
		keys[i] = *k
	}
	return keys, nil
}
