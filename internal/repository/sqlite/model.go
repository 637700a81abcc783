package sqlite

import "time"

// Entry is one row of the key/value table: a named blob and when it was last written.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
