package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger appends timestamped, levelled lines to a writer. The TUI owns the
// terminal, so in normal runs the writer is a file under the data directory.
// A nil *Logger discards everything.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	file  *os.File
	now   func() time.Time
	debug bool
}

// New creates a logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{out: w, now: time.Now, debug: DebugEnabled()}
}

// Discard returns a logger that drops every line.
func Discard() *Logger {
	return New(io.Discard)
}

// Open creates (or appends to) dir/logs/star-task.log.
func Open(dir string) (*Logger, error) {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "star-task.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	l := New(f)
	l.file = f
	return l, nil
}

// SetDebug turns DEBUG lines on or off regardless of ST_DEBUG.
func (l *Logger) SetDebug(enabled bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

// Close releases the file handle, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Log writes a single entry.
func (l *Logger) Log(level Level, format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if level == LevelDebug && !l.debug {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintf(l.out, "%s %-5s %s\n", l.now().UTC().Format(time.RFC3339), string(level), line)
}

// Debugf appends a debug entry when debug output is enabled.
func (l *Logger) Debugf(format string, args ...any) { l.Log(LevelDebug, format, args...) }

// Infof appends an informational entry.
func (l *Logger) Infof(format string, args ...any) { l.Log(LevelInfo, format, args...) }

// Warnf appends a warning entry.
func (l *Logger) Warnf(format string, args ...any) { l.Log(LevelWarn, format, args...) }

// Errorf appends an error entry.
func (l *Logger) Errorf(format string, args ...any) { l.Log(LevelError, format, args...) }
