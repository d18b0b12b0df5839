package activitylog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/gfs-monitor/internal/config"
)

// timestampLayout is the layout of the bracketed entry prefix.
const timestampLayout = time.DateTime

// Entry is a single audit line.
type Entry struct {
	// Timestamp is when the entry was written, without time zone.
	Timestamp time.Time
	// Message is the free-form text after the timestamp.
	Message string
}

// String renders the entry as "[YYYY-MM-DD HH:MM:SS] message".
func (e Entry) String() string {
	return "[" + e.Timestamp.Format(timestampLayout) + "] " + e.Message
}

// Log is an append-only text file that keeps at most limit entries,
// dropping the oldest ones first.
type Log struct {
	path  string
	limit int
	now   func() time.Time

	mu sync.Mutex
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLimit sets the maximum number of entries kept.
func WithLimit(limit int) Option {
	return func(l *Log) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// New returns a log writing to path.
func New(path string, opts ...Option) *Log {
	l := &Log{
		path:  filepath.Clean(path),
		limit: config.DefaultActivityLogLimit,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Append writes a timestamped message and evicts the oldest entries beyond
// the limit.
func (l *Log) Append(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := l.readLines()
	if err != nil {
		return err
	}

	entry := Entry{
		Timestamp: l.now(),
		Message:   strings.ReplaceAll(message, "\n", " "),
	}

	lines = append(lines, entry.String())
	if excess := len(lines) - l.limit; excess > 0 {
		lines = lines[excess:]
	}

	return l.writeLines(lines)
}

// Appendf formats and appends a message.
func (l *Log) Appendf(format string, args ...any) error {
	return l.Append(fmt.Sprintf(format, args...))
}

// Tail returns up to n newest entries, oldest first. A missing file yields
// no entries. Lines that do not carry a timestamp keep a zero Timestamp.
func (l *Log) Tail(n int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := l.readLines()
	if err != nil {
		return nil, err
	}

	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseLine(line))
	}

	return entries, nil
}

// Len returns the number of entries currently stored.
func (l *Log) Len() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := l.readLines()
	if err != nil {
		return 0, err
	}

	return len(lines), nil
}

// readLines loads all non-empty lines of the file.
func (l *Log) readLines() ([]string, error) {
	contents, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read activity log: %w", err)
	}

	lines := make([]string, 0, l.limit+1)
	for _, line := range strings.Split(string(contents), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}

	return lines, nil
}

// writeLines replaces the file through a temporary sibling and a rename.
func (l *Log) writeLines(lines []string) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace activity log: %w", err)
	}

	return nil
}

// parseLine splits "[timestamp] message" back into an Entry.
func parseLine(line string) Entry {
	if strings.HasPrefix(line, "[") {
		if stamp, message, ok := strings.Cut(line[1:], "] "); ok {
			if ts, err := time.Parse(timestampLayout, stamp); err == nil {
				return Entry{Timestamp: ts, Message: message}
			}
		}
	}

	return Entry{Message: line}
}
