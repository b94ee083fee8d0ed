package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages in memory for assertions in tests.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	fields   map[string]interface{}
	nop      *zerolog.Logger
}

// LogMessage is one captured log entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a capturing logger.
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{nop: &nop, fields: map[string]interface{}{}}
}

// Messages returns a copy of all captured entries.
func (l *TestLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasMessage reports whether any entry at the given level contains msg.
func (l *TestLogger) HasMessage(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level && m.Message == msg {
			return true
		}
	}
	return false
}

func (l *TestLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	l.messages = append(l.messages, LogMessage{Level: level, Message: msg, Fields: merged})
}

func (l *TestLogger) Debug(msg string) { l.record("debug", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.record("info", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.record("warn", msg, nil) }
func (l *TestLogger) Error(msg string) { l.record("error", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.record("fatal", msg, nil) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	// Children share the parent's message sink.
	return &capturingChild{parent: l, fields: merged}
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.record("debug", msg, fields)
}
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.record("info", msg, fields)
}
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.record("warn", msg, fields)
}
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.record("error", msg, fields)
}

func (l *TestLogger) GetZerolog() *zerolog.Logger { return l.nop }

// capturingChild forwards entries to its parent with bound fields attached.
type capturingChild struct {
	parent *TestLogger
	fields map[string]interface{}
}

func (c *capturingChild) Debug(msg string) { c.parent.record("debug", msg, c.fields) }
func (c *capturingChild) Info(msg string)  { c.parent.record("info", msg, c.fields) }
func (c *capturingChild) Warn(msg string)  { c.parent.record("warn", msg, c.fields) }
func (c *capturingChild) Error(msg string) { c.parent.record("error", msg, c.fields) }
func (c *capturingChild) Fatal(msg string) { c.parent.record("fatal", msg, c.fields) }

func (c *capturingChild) WithField(key string, value interface{}) Logger {
	return c.WithFields(map[string]interface{}{key: value})
}

func (c *capturingChild) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &capturingChild{parent: c.parent, fields: merged}
}

func (c *capturingChild) WithError(err error) Logger {
	if err == nil {
		return c
	}
	return c.WithField("error", err.Error())
}

func (c *capturingChild) DebugWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("debug", msg, c.merge(fields))
}
func (c *capturingChild) InfoWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("info", msg, c.merge(fields))
}
func (c *capturingChild) WarnWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("warn", msg, c.merge(fields))
}
func (c *capturingChild) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("error", msg, c.merge(fields))
}

func (c *capturingChild) merge(fields map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

func (c *capturingChild) GetZerolog() *zerolog.Logger { return c.parent.nop }
