// Package auditlog appends application actions to date-partitioned
// JSON-lines files. Logging is best-effort: a failed append is reported
// to the operational logger and never propagated to the caller.
package auditlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Level is the severity of an audit entry
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelDebug   Level = "debug"
)

// Entry is one audit log record
type Entry struct {
	Timestamp string      `json:"timestamp"`
	Level     Level       `json:"level"`
	Action    string      `json:"action"`
	Message   string      `json:"message"`
	User      string      `json:"user,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// Logger writes day-partitioned audit files under a fixed directory
type Logger struct {
	dir    string
	logger *logrus.Logger

	// injectable for partition tests
	now func() time.Time
}

// New creates an audit logger rooted at dir
func New(dir string, logger *logrus.Logger) *Logger {
	return &Logger{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

const dateLayout = "2006-01-02"

// Log appends one entry to today's UTC day-file. It never returns an
// error; failures surface only on the operational logger.
func (l *Logger) Log(level Level, action, message string, details interface{}, user string) {
	entry := Entry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     level,
		Action:    action,
		Message:   message,
		User:      user,
		Details:   details,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		l.logger.WithError(err).WithField("action", action).Error("Failed to marshal audit entry")
		return
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		l.logger.WithError(err).WithField("dir", l.dir).Error("Failed to create audit log directory")
		return
	}

	path := l.fileForDate(l.now().UTC().Format(dateLayout))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.logger.WithError(err).WithField("file", path).Error("Failed to open audit log file")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		l.logger.WithError(err).WithField("file", path).Error("Failed to append audit entry")
	}
}

// Info logs an informational action
func (l *Logger) Info(action, message string, details interface{}, user string) {
	l.Log(LevelInfo, action, message, details, user)
}

// Error logs a failed action
func (l *Logger) Error(action, message string, details interface{}, user string) {
	l.Log(LevelError, action, message, details, user)
}

// ReadForDate parses one day's file. Malformed lines are skipped, a
// missing file yields an empty slice.
func (l *Logger) ReadForDate(date string) ([]Entry, error) {
	// The date doubles as the file name; anything that is not a plain
	// YYYY-MM-DD day must not reach the filesystem.
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, err
	}

	f, err := os.Open(l.fileForDate(date))
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer f.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			l.logger.WithError(err).WithField("date", date).Warn("Skipping malformed audit log line")
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

// ReadRange concatenates per-day reads across an inclusive date range
func (l *Logger) ReadRange(start, end string) ([]Entry, error) {
	startDay, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, err
	}
	endDay, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		dayEntries, err := l.ReadForDate(day.Format(dateLayout))
		if err != nil {
			return nil, err
		}
		entries = append(entries, dayEntries...)
	}

	return entries, nil
}

// SearchCriteria filters audit entries
type SearchCriteria struct {
	Level  Level
	Action string
	User   string
	Start  string
	End    string
}

// Search returns entries in the criteria's date range matching every
// non-empty filter field
func (l *Logger) Search(criteria SearchCriteria) ([]Entry, error) {
	if criteria.Start == "" {
		return []Entry{}, nil
	}
	end := criteria.End
	if end == "" {
		end = criteria.Start
	}

	entries, err := l.ReadRange(criteria.Start, end)
	if err != nil {
		return nil, err
	}

	matched := []Entry{}
	for _, entry := range entries {
		if criteria.Level != "" && entry.Level != criteria.Level {
			continue
		}
		if criteria.Action != "" && entry.Action != criteria.Action {
			continue
		}
		if criteria.User != "" && entry.User != criteria.User {
			continue
		}
		matched = append(matched, entry)
	}

	return matched, nil
}

// CleanupOlderThan deletes whole day-files whose modification time is
// older than the cutoff, returning the number of files removed.
func (l *Logger) CleanupOlderThan(days int) int {
	cutoff := l.now().AddDate(0, 0, -days)

	files, err := os.ReadDir(l.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.WithError(err).WithField("dir", l.dir).Error("Failed to read audit log directory")
		}
		return 0
	}

	deleted := 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".log" {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			path := filepath.Join(l.dir, file.Name())
			if err := os.Remove(path); err != nil {
				l.logger.WithError(err).WithField("file", path).Warn("Failed to delete expired audit log file")
				continue
			}
			deleted++
		}
	}

	return deleted
}

func (l *Logger) fileForDate(date string) string {
	return filepath.Join(l.dir, date+".log")
}
