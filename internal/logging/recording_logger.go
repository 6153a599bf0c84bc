package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is one message captured by a RecordingLogger.
type Entry struct {
	Level   string
	Message string
}

// RecordingLogger keeps every message in memory.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) Verbose(format string, args ...interface{}) {
	l.record("verbose", format, args)
}

func (l *RecordingLogger) Info(format string, args ...interface{}) {
	l.record("info", format, args)
}

func (l *RecordingLogger) Error(format string, args ...interface{}) {
	l.record("error", format, args)
}

func (l *RecordingLogger) record(level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Entries returns a copy of the captured messages.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Contains reports whether any message at level contains substr.
func (l *RecordingLogger) Contains(level, substr string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
