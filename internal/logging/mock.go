package logging

import "sync"

// LogEntry records a single logged message for assertions in tests.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Err     error
}

type recorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// MockLogger is a Logger implementation that records entries in memory.
// Derived loggers (WithField, WithError) share the same recorder so tests
// can assert on everything logged. Intended for tests only.
type MockLogger struct {
	rec    *recorder
	fields []Field
	err    error
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{rec: &recorder{}}
}

func (m *MockLogger) record(level, msg string, fields []Field) {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	all := append(append([]Field{}, m.fields...), fields...)
	m.rec.entries = append(m.rec.entries, LogEntry{Level: level, Message: msg, Fields: all, Err: m.err})
}

func (m *MockLogger) Debug(msg string, fields ...Field) { m.record("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...Field)  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...Field)  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...Field) { m.record("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...Field) { m.record("fatal", msg, fields) }

func (m *MockLogger) WithError(err error) Logger {
	return &MockLogger{rec: m.rec, fields: m.fields, err: err}
}

func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.WithFields(Field{Key: key, Value: value})
}

func (m *MockLogger) WithFields(fields ...Field) Logger {
	merged := append(append([]Field{}, m.fields...), fields...)
	return &MockLogger{rec: m.rec, fields: merged, err: m.err}
}

// Entries returns a copy of all recorded entries.
func (m *MockLogger) Entries() []LogEntry {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	out := make([]LogEntry, len(m.rec.entries))
	copy(out, m.rec.entries)
	return out
}

// HasEntry reports whether a message was logged at the given level.
func (m *MockLogger) HasEntry(level, message string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}

// CountLevel returns the number of entries logged at the given level.
func (m *MockLogger) CountLevel(level string) int {
	n := 0
	for _, e := range m.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
