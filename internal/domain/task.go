package domain

import (
	"fmt"
	"strings"
	"time"
)

// RepeatInterval records how often a mission recurs. It is informational only;
// nothing schedules against it.
type RepeatInterval string

const (
	RepeatNone    RepeatInterval = "NONE"
	RepeatDaily   RepeatInterval = "DAILY"
	RepeatWeekly  RepeatInterval = "WEEKLY"
	RepeatMonthly RepeatInterval = "MONTHLY"
)

// RepeatIntervals lists every interval in display order.
var RepeatIntervals = []RepeatInterval{RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly}

// ParseRepeatInterval accepts an interval name in any case. The empty string maps to RepeatNone.
func ParseRepeatInterval(s string) (RepeatInterval, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return RepeatNone, nil
	}
	for _, ri := range RepeatIntervals {
		if string(ri) == trimmed {
			return ri, nil
		}
	}
	return "", fmt.Errorf("unknown repeat interval %q", s)
}

// IsValid reports whether ri is one of the known intervals.
func (ri RepeatInterval) IsValid() bool {
	for _, known := range RepeatIntervals {
		if ri == known {
			return true
		}
	}
	return false
}

// Next cycles to the following interval, wrapping back to RepeatNone.
func (ri RepeatInterval) Next() RepeatInterval {
	for i, known := range RepeatIntervals {
		if ri == known {
			return RepeatIntervals[(i+1)%len(RepeatIntervals)]
		}
	}
	return RepeatNone
}

// Lines shown when a view has nothing in it.
const (
	EmptyActiveMessage  = "SECTOR CLEAR. NO THREATS DETECTED."
	EmptyArchiveMessage = "ARCHIVES ARE EMPTY"
)

// Task is a single mission in the log.
// CompletedAt is non-nil exactly when IsCompleted is true. CreatedAt and
// CompletedAt are epoch milliseconds.
type Task struct {
	ID              string
	Title           string
	Description     string
	RepeatInterval  RepeatInterval
	IsCompleted     bool
	CreatedAt       int64
	CompletedAt     *int64
	MissionCodename string
}

// NewTask creates an incomplete task with every field populated.
func NewTask(id, title, description string, interval RepeatInterval, codename string, createdAt time.Time) Task {
	return Task{
		ID:              id,
		Title:           title,
		Description:     description,
		RepeatInterval:  interval,
		CreatedAt:       createdAt.UnixMilli(),
		MissionCodename: codename,
	}
}

// IsValid checks the fields and the completion invariant.
func (t Task) IsValid() bool {
	if t.ID == "" || t.Title == "" || !t.RepeatInterval.IsValid() {
		return false
	}
	return t.IsCompleted == (t.CompletedAt != nil)
}

// CreatedTime returns CreatedAt as a time.Time.
func (t Task) CreatedTime() time.Time {
	return time.UnixMilli(t.CreatedAt)
}

// CompletedTime returns CompletedAt as a time.Time, or nil.
func (t Task) CompletedTime() *time.Time {
	if t.CompletedAt == nil {
		return nil
	}
	ct := time.UnixMilli(*t.CompletedAt)
	return &ct
}

// String returns the title for display purposes.
func (t Task) String() string {
	return t.Title
}

// Briefing is the codename and tagline the briefing service attaches to a new mission.
type Briefing struct {
	Codename string
	Tagline  string
}
